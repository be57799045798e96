package pagestore

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/binary-inputs/constants"
	"github.com/joseph-ayodele/binary-inputs/internal/common"
)

type fakeRunner struct {
	missing bool
	outputs map[string]string // keyed by first arg
	calls   [][]string
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.missing {
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	return "/usr/bin/" + name, nil
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	out, ok := f.outputs[args[0]]
	if !ok {
		return nil, []byte("unexpected"), errors.New("exit status 1")
	}
	return []byte(out), nil, nil
}

const bboxDoc = `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title></title></head>
<body>
<doc>
  <page width="400.000000" height="300.000000">
    <word xMin="90.000000" yMin="120.000000" xMax="110.000000" yMax="128.000000">BI_01</word>
    <word xMin="20.000000" yMin="30.000000" xMax="60.000000" yMax="38.000000">Posici&#243;n</word>
  </page>
  <page width="400.000000" height="300.000000">
  </page>
</doc>
</body>
</html>`

func TestParseBBoxHTML(t *testing.T) {
	pages, err := ParseBBoxHTML(strings.NewReader(bboxDoc))
	require.NoError(t, err)
	require.Len(t, pages, 2)

	p1 := pages[1]
	assert.InDelta(t, 400.0, p1.width, 1e-9)
	require.Len(t, p1.words, 2)
	assert.Equal(t, "BI_01", p1.words[0].Text)
	assert.InDelta(t, 90.0, p1.words[0].Left, 1e-9)
	assert.InDelta(t, 110.0, p1.words[0].Right, 1e-9)
	assert.InDelta(t, 120.0, p1.words[0].Top, 1e-9)
	assert.Equal(t, "Posición", p1.words[1].Text)
	assert.Empty(t, pages[2].words)
}

func TestPoppler_Load(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"-layout": "Entradas   Binarias\r\n   BI_01     BI_02\n\fsecond page\n\f",
		"-bbox":   bboxDoc,
	}}
	p := NewPoppler("pdftotext", 0, r, nil)

	store, err := p.Load(context.Background(), "drawing.pdf")
	require.NoError(t, err)
	assert.True(t, store.Layout)
	assert.Equal(t, []int{1, 2}, store.Numbers())
	assert.Equal(t, "Entradas Binarias\nBI_01 BI_02", store.Text(1))

	pg, ok := store.Page(1)
	require.True(t, ok)
	assert.True(t, pg.HasWords())
	assert.Equal(t, 1, pg.Words[0].Page)

	pg2, _ := store.Page(2)
	assert.False(t, pg2.HasWords())
}

func TestPoppler_BBoxFailureKeepsText(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{"-layout": "only text\f"}}
	store, err := NewPoppler("pdftotext", 0, r, nil).Load(context.Background(), "x.pdf")
	require.NoError(t, err)
	assert.False(t, store.Layout)
	assert.Equal(t, "only text", store.Text(1))
}

func TestPoppler_MissingBinary(t *testing.T) {
	p := NewPoppler("pdftotext", 0, &fakeRunner{missing: true}, nil)
	_, err := p.Load(context.Background(), "x.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMissingCapability))
}

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pages.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestLoadArchive(t *testing.T) {
	path := writeZip(t, map[string]string{
		"export/page_3.txt": "tercera",
		"export/Page-1.TXT": "primera\r\nlinea",
		"export/page10.txt": "   ",
		"export/notes.txt":  "no page number",
		"export/page_2.png": "binary",
	})
	store, err := LoadArchive(path, nil)
	require.NoError(t, err)
	assert.Equal(t, constants.SourceZIP, store.Kind)
	assert.False(t, store.Layout)
	assert.Equal(t, []int{1, 3}, store.Numbers())
	assert.Equal(t, "primera\nlinea", store.Text(1))
	assert.Equal(t, "", store.Text(10))
}

func TestLoader_SniffsByContent(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "drawing.pdf")
	require.NoError(t, os.WriteFile(junk, []byte("not really a pdf"), 0o644))

	l := NewLoader(common.PDFConfig{}, common.DefaultTuning(), &fakeRunner{}, nil)
	_, err := l.Load(context.Background(), junk)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnsupportedSource))

	zipPath := writeZip(t, map[string]string{"page_1.txt": "Entradas Binarias"})
	renamed := filepath.Join(dir, "archive.bin")
	require.NoError(t, os.Rename(zipPath, renamed))
	store, err := l.Load(context.Background(), renamed)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	empty := writeZip(t, map[string]string{"readme.md": "x"})
	_, err = l.Load(context.Background(), empty)
	assert.True(t, errors.Is(err, common.ErrNoPages))
}

func TestLoader_ExplicitPdftotextWithoutBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7\n"), 0o644))

	l := NewLoader(common.PDFConfig{Backend: common.BackendPdftotext}, common.DefaultTuning(), &fakeRunner{missing: true}, nil)
	_, err := l.Load(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrMissingCapability))
}

func TestStorePut_NormalizesAndDropsBlank(t *testing.T) {
	s := NewStore("x", constants.SourcePDF, false)
	s.Put(Page{Number: 2, Text: "SUBESTACIO\u0301N"})
	s.Put(Page{Number: 1, Text: " \n\t"})
	assert.Equal(t, []int{2}, s.Numbers())
	assert.Equal(t, "SUBESTACI\u00d3N", s.Text(2))
}

func TestAssembleWords(t *testing.T) {
	// page is 300pt tall; glyph Y is the baseline from the bottom
	glyphs := []pdf.Text{
		{S: "B", X: 10, Y: 200, W: 5, FontSize: 8},
		{S: "I", X: 15, Y: 200, W: 2, FontSize: 8},
		{S: "_", X: 17, Y: 200, W: 4, FontSize: 8},
		{S: "0", X: 21, Y: 200, W: 4, FontSize: 8},
		{S: "1", X: 25, Y: 200.5, W: 4, FontSize: 8},
		{S: "B", X: 60, Y: 200, W: 5, FontSize: 8}, // large gap, new word
		{S: "I", X: 65, Y: 200, W: 2, FontSize: 8},
		{S: "A", X: 10, Y: 250, W: 5, FontSize: 8},
		{S: " ", X: 15, Y: 250, W: 2, FontSize: 8},
		{S: "B", X: 17, Y: 250, W: 5, FontSize: 8},
	}
	words, lines := AssembleWords(glyphs, 0, 300, 0.25)

	require.Len(t, words, 4)
	assert.Equal(t, "A", words[0].Text)
	assert.Equal(t, "B", words[1].Text)
	assert.Equal(t, "BI_01", words[2].Text)
	assert.InDelta(t, 10.0, words[2].Left, 1e-9)
	assert.InDelta(t, 29.0, words[2].Right, 1e-9)
	assert.InDelta(t, 300-200.5-8, words[2].Top, 1e-9)
	assert.Equal(t, "BI", words[3].Text)
	assert.Equal(t, []string{"A B", "BI_01 BI"}, lines)
}

func TestExecRunner_FailureLogsSource(t *testing.T) {
	var buf bytes.Buffer
	r := newExecRunner(slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := common.WithSource(context.Background(), "/planos/a.pdf")

	_, _, err := r.Run(ctx, "biextract-no-such-binary", "-v")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "exec.failed")
	assert.Contains(t, buf.String(), "source=/planos/a.pdf")
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 8))
	assert.Equal(t, "a…", truncate("aé", 2))
}
