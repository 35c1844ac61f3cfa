// Package async runs the pipeline over many documents with a bounded worker pool.
package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/cv-parser/internal/pipeline"
)

// ErrClosed is returned by Enqueue once Shutdown has started.
var ErrClosed = errors.New("queue is shutting down")

// Job is one document to process. Load is called on a worker, so documents are read only
// when a worker is free.
type Job struct {
	Seq         int
	Name        string
	Load        func() (pipeline.Request, error)
	SubmittedAt time.Time
}

// Outcome is the result of one job; Err is the load or extraction error.
type Outcome struct {
	Job     Job
	Result  pipeline.Result
	Err     error
	Elapsed time.Duration
}

// Processor is the work a pool runs; *pipeline.Processor implements it.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
