package async

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/cv-parser/internal/extract"
	"github.com/joseph-ayodele/cv-parser/internal/pipeline"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProcessor echoes the document name as the request id after an optional delay.
type fakeProcessor struct {
	delay   time.Duration
	running atomic.Int32
	peak    atomic.Int32
}

func (f *fakeProcessor) Process(ctx context.Context, req pipeline.Request) (pipeline.Result, error) {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return pipeline.Result{}, &extract.Error{Kind: extract.KindExternalServiceUnavailable, Err: ctx.Err()}
	}
	if req.Document.Name == "broken.pdf" {
		return pipeline.Result{}, &extract.Error{Kind: extract.KindUnsupportedDocument}
	}
	return pipeline.Result{Meta: pipeline.Meta{RequestID: req.Document.Name}}, nil
}

func jobFor(name string) Job {
	return Job{Name: name, Load: func() (pipeline.Request, error) {
		return pipeline.Request{Document: extract.RawDocument{Name: name}}, nil
	}}
}

func TestRun_KeepsInputOrder(t *testing.T) {
	proc := &fakeProcessor{delay: 10 * time.Millisecond}
	var jobs []Job
	for i := 0; i < 20; i++ {
		jobs = append(jobs, jobFor(fmt.Sprintf("cv-%02d.pdf", i)))
	}

	out := Run(context.Background(), proc, jobs, quietLogger(), WithWorkers(4), WithQueueSize(2))
	require.Len(t, out, 20)
	for i, o := range out {
		require.NoError(t, o.Err)
		assert.Equal(t, i, o.Job.Seq)
		assert.Equal(t, fmt.Sprintf("cv-%02d.pdf", i), o.Result.Meta.RequestID)
	}
	assert.LessOrEqual(t, proc.peak.Load(), int32(4))
	assert.Greater(t, proc.peak.Load(), int32(1))
}

func TestRun_ErrorsStayPerJob(t *testing.T) {
	loadErr := errors.New("permission denied")
	jobs := []Job{
		jobFor("ok.pdf"),
		jobFor("broken.pdf"),
		{Name: "unreadable.pdf", Load: func() (pipeline.Request, error) { return pipeline.Request{}, loadErr }},
	}

	out := Run(context.Background(), &fakeProcessor{}, jobs, quietLogger(), WithWorkers(2))
	require.Len(t, out, 3)
	assert.NoError(t, out[0].Err)
	assert.Equal(t, extract.KindUnsupportedDocument, extract.KindOf(out[1].Err))
	assert.ErrorIs(t, out[2].Err, loadErr)
}

func TestRun_JobTimeout(t *testing.T) {
	out := Run(context.Background(), &fakeProcessor{delay: time.Second}, []Job{jobFor("slow.pdf")}, quietLogger(),
		WithJobTimeout(20*time.Millisecond))
	require.Len(t, out, 1)
	assert.Equal(t, extract.KindExternalServiceUnavailable, extract.KindOf(out[0].Err))
}

func TestPool_EnqueueAfterShutdown(t *testing.T) {
	var mu sync.Mutex
	var got []string
	pool := NewPool(&fakeProcessor{}, quietLogger(), WithWorkers(1), WithOnResult(func(o Outcome) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, o.Job.Name)
	}))

	require.NoError(t, pool.Enqueue(context.Background(), jobFor("a.pdf")))
	pool.Shutdown(context.Background())
	pool.Shutdown(context.Background())

	assert.ErrorIs(t, pool.Enqueue(context.Background(), jobFor("b.pdf")), ErrClosed)
	assert.Equal(t, []string{"a.pdf"}, got)
}

func TestPool_EnqueueHonoursContext(t *testing.T) {
	proc := &fakeProcessor{delay: 200 * time.Millisecond}
	pool := NewPool(proc, quietLogger(), WithWorkers(1), WithQueueSize(1))
	defer pool.Shutdown(context.Background())

	require.NoError(t, pool.Enqueue(context.Background(), jobFor("1.pdf")))
	require.NoError(t, pool.Enqueue(context.Background(), jobFor("2.pdf")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.Enqueue(ctx, jobFor("3.pdf")), context.DeadlineExceeded)
}
