package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/cv-parser/internal/extract"
)

// Pool runs jobs on a fixed number of workers fed by a bounded queue.
type Pool struct {
	proc     Processor
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	base     context.Context
	onResult func(Outcome)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.ch = make(chan Job, n)
		}
	}
}

// WithJobTimeout bounds each job, OCR round trip included.
func WithJobTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithBaseContext sets the context every job context derives from; cancelling it
// abandons in-flight jobs.
func WithBaseContext(ctx context.Context) Option {
	return func(p *Pool) {
		if ctx != nil {
			p.base = ctx
		}
	}
}

// WithOnResult registers the outcome callback. It runs on worker goroutines.
func WithOnResult(fn func(Outcome)) Option {
	return func(p *Pool) { p.onResult = fn }
}

func NewPool(proc Processor, logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		base:    context.Background(),
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(p)
	}
	p.start()
	return p
}

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func(workerID int) {
				defer p.wg.Done()
				p.logger.Debug("async.worker.started", "worker_id", workerID)

				for job := range p.ch {
					out := p.run(job)
					if out.Err != nil {
						p.logger.Error("async.job.failed",
							"worker_id", workerID, "seq", job.Seq, "name", job.Name,
							"kind", extract.KindOf(out.Err), "error", out.Err,
						)
					} else {
						p.logger.Info("async.job.ok",
							"worker_id", workerID, "seq", job.Seq, "name", job.Name,
							"core_pct", out.Result.Scores.CorePercentage,
							"elapsed_ms", out.Elapsed.Milliseconds(),
						)
					}
					if p.onResult != nil {
						p.onResult(out)
					}
				}

				p.logger.Debug("async.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (p *Pool) run(job Job) Outcome {
	start := time.Now()
	ctx, cancel := context.WithTimeout(p.base, p.timeout)
	defer cancel()

	out := Outcome{Job: job}
	req, err := job.Load()
	if err == nil {
		out.Result, err = p.proc.Process(ctx, req)
	}
	out.Err = err
	out.Elapsed = time.Since(start)
	return out
}

// Enqueue blocks while the queue is full, until ctx is done.
func (p *Pool) Enqueue(ctx context.Context, job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.logger.Warn("async.enqueue.closed", "seq", job.Seq, "name", job.Name)
		return ErrClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case p.ch <- job:
		return nil
	default:
	}
	p.logger.Debug("async.queue.full", "seq", job.Seq, "name", job.Name)
	select {
	case p.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish, or for ctx.
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.ch)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); p.wg.Wait() }()

	select {
	case <-ctx.Done():
		p.logger.Warn("async.shutdown.interrupted")
	case <-done:
		p.logger.Debug("async.shutdown.drained")
	}
}

// Run processes jobs on a temporary pool and returns their outcomes in input order.
// Job.Seq is set to the job's index.
func Run(ctx context.Context, proc Processor, jobs []Job, logger *slog.Logger, opts ...Option) []Outcome {
	out := make([]Outcome, len(jobs))
	opts = append(opts,
		WithBaseContext(ctx),
		WithOnResult(func(o Outcome) { out[o.Job.Seq] = o }),
	)
	pool := NewPool(proc, logger, opts...)
	for i, job := range jobs {
		job.Seq = i
		if err := pool.Enqueue(ctx, job); err != nil {
			out[i] = Outcome{Job: job, Err: err}
		}
	}
	pool.Shutdown(context.Background())
	return out
}
