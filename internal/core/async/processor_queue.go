package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/binary-inputs/internal/core"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// FileProcessor is the part of core.Processor the queue needs.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (*core.Outcome, error)
}

// ProcessorQueue feeds watched sources to a processor, one at a time.
type ProcessorQueue struct {
	proc    FileProcessor
	logger  *slog.Logger
	timeout time.Duration
	onDone  func(*core.Outcome)

	ch      chan Job
	quit    chan struct{}
	wg      sync.WaitGroup
	sending sync.WaitGroup
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithOnDone registers a callback run by the worker after every job,
// successful or not.
func WithOnDone(fn func(*core.Outcome)) Option {
	return func(q *ProcessorQueue) { q.onDone = fn }
}

func NewProcessorQueue(proc FileProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		timeout: 10 * time.Minute,
		ch:      make(chan Job, 64),
		quit:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.logger.Debug("queue.worker.started")
			for job := range q.ch {
				q.handle(job)
			}
			q.logger.Debug("queue.worker.stopped")
		}()
	})
}

func (q *ProcessorQueue) handle(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	out, err := q.proc.ProcessFile(ctx, job.Path)
	wait := time.Since(job.SubmittedAt)
	if err != nil {
		q.logger.Error("queue.job.failed", "source", job.Path, "trace_id", job.TraceID, "err", err)
	} else {
		q.logger.Info("queue.job.ok", "source", job.Path, "trace_id", job.TraceID, "wait_ms", wait.Milliseconds())
	}
	if q.onDone != nil && out != nil {
		q.onDone(out)
	}
}

// Enqueue blocks while the queue is full. The lock is released before the
// send so Shutdown can interrupt a blocked caller.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("queue.enqueue.closed", "source", job.Path)
		return ErrQueueClosed
	}
	q.sending.Add(1)
	q.mu.Unlock()
	defer q.sending.Done()

	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queue.enqueued", "source", job.Path)
		return nil
	default:
	}
	q.logger.Warn("queue.full", "source", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-q.quit:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones until ctx ends.
// Callers blocked in Enqueue get ErrQueueClosed.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.quit)
	q.mu.Unlock()

	// no sender may be mid-send when the channel closes
	q.sending.Wait()
	close(q.ch)

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.ok")
	}
}

var _ Queue = (*ProcessorQueue)(nil)
