package pagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/joseph-ayodele/binary-inputs/constants"
	"github.com/joseph-ayodele/binary-inputs/internal/common"
	"github.com/joseph-ayodele/binary-inputs/internal/entity"
)

// Poppler extracts page text with `pdftotext -layout` and word boxes with
// `pdftotext -bbox`.
type Poppler struct {
	bin     string
	timeout time.Duration
	runner  Runner
	logger  *slog.Logger
}

func NewPoppler(bin string, timeout time.Duration, runner Runner, logger *slog.Logger) *Poppler {
	if logger == nil {
		logger = slog.Default()
	}
	if bin == "" {
		bin = "pdftotext"
	}
	if runner == nil {
		runner = newExecRunner(logger)
	}
	return &Poppler{bin: bin, timeout: timeout, runner: runner, logger: logger}
}

// Available returns a MissingCapability error when the binary is not on PATH.
func (p *Poppler) Available() error {
	if _, err := p.runner.LookPath(p.bin); err != nil {
		return common.MissingCapabilityError(p.bin+" not found", err)
	}
	return nil
}

func (p *Poppler) Load(ctx context.Context, path string) (*Store, error) {
	if err := p.Available(); err != nil {
		return nil, err
	}
	ctx, cancel := common.WithTimeout(ctx, p.timeout)
	defer cancel()

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := p.runner.Run(ctx, p.bin, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, common.MissingCapabilityError(p.bin, err)
		}
		return nil, fmt.Errorf("pdftotext: %w: %s", err, truncate(string(errb), 512))
	}
	texts := splitPages(string(out))

	store := NewStore(path, constants.SourcePDF, true)
	boxes, err := p.words(ctx, path)
	if err != nil {
		// text-only strategies still work
		p.logger.Warn("pdftotext.bbox.failed", "path", path, "error", err)
		store.Layout = false
	}
	for i, txt := range texts {
		pg := Page{Number: i + 1, Text: Normalize(txt)}
		if b, ok := boxes[pg.Number]; ok {
			pg.Words = b.words
			pg.Width = b.width
		}
		store.Put(pg)
	}
	return store, nil
}

// splitPages splits on the form feed pdftotext emits after every page.
func splitPages(s string) []string {
	pages := strings.Split(s, "\f")
	if n := len(pages); n > 0 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}

type pageBoxes struct {
	width float64
	words []entity.WordBox
}

func (p *Poppler) words(ctx context.Context, path string) (map[int]pageBoxes, error) {
	// pdftotext -bbox -enc UTF-8 <path> -
	out, errb, err := p.runner.Run(ctx, p.bin, "-bbox", "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext -bbox: %w: %s", err, truncate(string(errb), 512))
	}
	return ParseBBoxHTML(bytes.NewReader(out))
}

// ParseBBoxHTML reads the XHTML written by `pdftotext -bbox`:
//
//	<page width=".." height=".."><word xMin=".." yMin=".." xMax=".." yMax="..">BI_01</word>...</page>
//
// yMin is measured from the top of the page, which is the orientation WordBox uses.
func ParseBBoxHTML(r io.Reader) (map[int]pageBoxes, error) {
	z := html.NewTokenizer(r)
	out := map[int]pageBoxes{}
	page := 0
	var cur *entity.WordBox
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return out, nil
			}
			return out, z.Err()
		case html.StartTagToken:
			tok := z.Token()
			switch tok.Data {
			case "page":
				page++
				out[page] = pageBoxes{width: attrFloat(tok, "width")}
			case "word":
				if page == 0 {
					continue
				}
				cur = &entity.WordBox{
					Left:  attrFloat(tok, "xmin"),
					Right: attrFloat(tok, "xmax"),
					Top:   attrFloat(tok, "ymin"),
					Page:  page,
				}
			}
		case html.TextToken:
			if cur != nil {
				cur.Text += string(z.Text())
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "word" && cur != nil {
				cur.Text = strings.TrimSpace(cur.Text)
				if cur.Text != "" {
					pb := out[cur.Page]
					pb.words = append(pb.words, *cur)
					out[cur.Page] = pb
				}
				cur = nil
			}
		}
	}
}

// attrFloat reads a numeric attribute; the tokenizer lower-cases attribute names.
func attrFloat(tok html.Token, key string) float64 {
	for _, a := range tok.Attr {
		if strings.EqualFold(a.Key, key) {
			f, err := strconv.ParseFloat(strings.TrimSpace(a.Val), 64)
			if err == nil {
				return f
			}
		}
	}
	return 0
}
