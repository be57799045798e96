package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/binary-inputs/constants"
	"github.com/joseph-ayodele/binary-inputs/internal/common"
	"github.com/joseph-ayodele/binary-inputs/internal/entity"
	"github.com/joseph-ayodele/binary-inputs/internal/extract"
	"github.com/joseph-ayodele/binary-inputs/internal/pagestore"
	"github.com/joseph-ayodele/binary-inputs/internal/repository"
)

type fakeLoader struct {
	fail map[string]error
}

func (f *fakeLoader) Load(_ context.Context, path string) (*pagestore.Store, error) {
	if err := f.fail[path]; err != nil {
		return nil, err
	}
	s := pagestore.NewStore(path, constants.SourcePDF, false)
	s.Put(pagestore.Page{Number: 1, Text: "Entradas Binarias"})
	return s, nil
}

type fakeExtractor struct {
	panicOn string
	runIDs  []string
}

func (f *fakeExtractor) Extract(ctx context.Context, store *pagestore.Store) (*extract.Result, error) {
	f.runIDs = append(f.runIDs, common.RunIDFromContext(ctx))
	if store.Source == f.panicOn {
		panic("corrupt page tree")
	}
	pc := entity.PageContext{Substation: "LAS PALMAS"}
	return &extract.Result{
		Source:  store.Source,
		Context: pc,
		Inputs: []entity.BinaryInput{
			{Device: "-F01", DeviceModel: "PCS-931S", InputID: "BI_01", InputNumber: 1, FullDescription: "Disparo", PageNumber: 1, PageContext: pc},
			{Device: "-F01", DeviceModel: "PCS-931S", InputID: "BI_02", InputNumber: 2, FullDescription: "Cierre", PageNumber: 1, PageContext: pc},
			{Device: "-C01", DeviceModel: "ACME-1", InputID: "BI_01", InputNumber: 1, FullDescription: "Local", PageNumber: 1, PageContext: pc},
		},
		Pages: 1,
	}, nil
}

func TestProcessFile_OK(t *testing.T) {
	ex := &fakeExtractor{}
	p := NewProcessor(nil, &fakeLoader{}, ex, nil)

	out, err := p.ProcessFile(context.Background(), "/planos/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusOK, out.Status)
	assert.Len(t, out.Result.Inputs, 3)
	require.Len(t, ex.runIDs, 1)
	assert.Equal(t, out.RunID.String(), ex.runIDs[0])
	assert.Equal(t, "-C01=1 -F01=2", DeviceSummary(out.Result))
	assert.Equal(t, "ACME-1, NR Electric PCS-931S", ModelSummary(out.Result))
}

func TestProcessFile_Statuses(t *testing.T) {
	loader := &fakeLoader{fail: map[string]error{
		"/planos/notes.pdf":  common.UnsupportedSourceError("/planos/notes.pdf"),
		"/planos/broken.pdf": errors.New("truncated xref"),
	}}
	p := NewProcessor(nil, loader, &fakeExtractor{panicOn: "/planos/panic.pdf"}, nil)

	tests := []struct {
		path string
		want constants.RunStatus
	}{
		{"/planos/notes.pdf", constants.RunStatusUnsupported},
		{"/planos/broken.pdf", constants.RunStatusFailed},
		{"/planos/panic.pdf", constants.RunStatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			out, err := p.ProcessFile(context.Background(), tt.path)
			require.Error(t, err)
			require.NotNil(t, out)
			assert.Equal(t, tt.want, out.Status)
			assert.Nil(t, out.Result)
			assert.Equal(t, err, out.Err)
		})
	}
}

func TestProcessFile_PersistsRun(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })
	runs := repository.NewRunRepository(db, nil)

	loader := &fakeLoader{fail: map[string]error{"/planos/broken.pdf": errors.New("truncated xref")}}
	p := NewProcessor(nil, loader, &fakeExtractor{}, runs)

	out, err := p.ProcessFile(ctx, "/planos/a.pdf")
	require.NoError(t, err)
	run, err := runs.Get(ctx, out.RunID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusOK, run.Status)
	assert.Equal(t, 3, run.InputCount)
	assert.Equal(t, "LAS PALMAS", run.Context.Substation)

	stored, err := runs.ListInputs(ctx, out.RunID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	out, err = p.ProcessFile(ctx, "/planos/broken.pdf")
	require.Error(t, err)
	run, err = runs.Get(ctx, out.RunID)
	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusFailed, run.Status)
	assert.Contains(t, run.Error, "truncated xref")
}

func TestBatch_IsolatesFailures(t *testing.T) {
	loader := &fakeLoader{fail: map[string]error{"/planos/b.pdf": errors.New("truncated xref")}}
	b := NewBatch(NewProcessor(nil, loader, &fakeExtractor{}, nil), nil)

	outcomes := b.Run(context.Background(), []string{"/planos/a.pdf", "/planos/b.pdf", "/planos/c.pdf"})
	require.Len(t, outcomes, 3)
	assert.Equal(t, constants.RunStatusOK, outcomes[0].Status)
	assert.Equal(t, constants.RunStatusFailed, outcomes[1].Status)
	assert.Equal(t, constants.RunStatusOK, outcomes[2].Status)

	sheets := Sheets(outcomes)
	require.Len(t, sheets, 3)
	assert.Len(t, sheets[0].Inputs, 3)
	assert.Empty(t, sheets[1].Inputs)
	assert.Equal(t, "/planos/c.pdf", sheets[2].Source)
}

func TestBatch_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewBatch(NewProcessor(nil, &fakeLoader{}, &fakeExtractor{}, nil), nil)
	assert.Empty(t, b.Run(ctx, []string{"/planos/a.pdf"}))
}
