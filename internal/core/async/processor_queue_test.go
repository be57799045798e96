package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/binary-inputs/constants"
	"github.com/joseph-ayodele/binary-inputs/internal/core"
)

type fakeProcessor struct {
	mu     sync.Mutex
	active int
	peak   int
}

func (f *fakeProcessor) ProcessFile(_ context.Context, path string) (*core.Outcome, error) {
	f.mu.Lock()
	f.active++
	f.peak = max(f.peak, f.active)
	f.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	if path == "bad.pdf" {
		err := errors.New("truncated xref")
		return &core.Outcome{Source: path, Status: constants.RunStatusFailed, Err: err}, err
	}
	return &core.Outcome{Source: path, Status: constants.RunStatusOK}, nil
}

func TestProcessorQueue_SingleWorkerInOrder(t *testing.T) {
	proc := &fakeProcessor{}
	var mu sync.Mutex
	var done []string
	q := NewProcessorQueue(proc, nil, WithOnDone(func(o *core.Outcome) {
		mu.Lock()
		defer mu.Unlock()
		done = append(done, o.Source)
	}))

	ctx := context.Background()
	for _, p := range []string{"a.pdf", "bad.pdf", "c.zip"} {
		require.NoError(t, q.Enqueue(ctx, Job{Path: p}))
	}
	q.Shutdown(ctx)

	assert.Equal(t, []string{"a.pdf", "bad.pdf", "c.zip"}, done)
	assert.Equal(t, 1, proc.peak)
}

func TestProcessorQueue_RejectsAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&fakeProcessor{}, nil, WithQueueSize(1), WithProcessTimeout(time.Second))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{Path: "a.pdf"}), ErrQueueClosed)
}

type gatedProcessor struct {
	started chan string
	release chan struct{}
}

func (g *gatedProcessor) ProcessFile(_ context.Context, path string) (*core.Outcome, error) {
	g.started <- path
	<-g.release
	return &core.Outcome{Source: path, Status: constants.RunStatusOK}, nil
}

func TestProcessorQueue_ShutdownUnblocksFullEnqueue(t *testing.T) {
	proc := &gatedProcessor{started: make(chan string, 4), release: make(chan struct{})}
	q := NewProcessorQueue(proc, nil, WithQueueSize(1))
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Job{Path: "a.pdf"}))
	assert.Equal(t, "a.pdf", <-proc.started)
	require.NoError(t, q.Enqueue(ctx, Job{Path: "b.pdf"}))

	blocked := make(chan error, 1)
	go func() { blocked <- q.Enqueue(ctx, Job{Path: "c.pdf"}) }()

	stopped := make(chan struct{})
	go func() { defer close(stopped); q.Shutdown(ctx) }()

	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue stayed blocked after Shutdown")
	}

	close(proc.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not finish")
	}
	assert.Equal(t, "b.pdf", <-proc.started)
}
