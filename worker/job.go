package worker

import (
	"context"
	"time"

	"github.com/gofhir/arbor/walker"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Order selects the traversal a job runs.
type Order int

const (
	// PreOrder runs a pre-order traversal; the job value is nil.
	PreOrder Order = iota
	// PostOrder runs a post-order traversal; the job value is the root result.
	PostOrder
)

func (o Order) String() string {
	if o == PostOrder {
		return "post-order"
	}
	return "pre-order"
}

// Job represents a traversal to be processed by a worker.
type Job struct {
	// ID is a unique identifier for this job.
	ID string

	// Instance is a pointer to the struct value to walk.
	Instance any

	// Visitor is invoked during the traversal.
	Visitor walker.Visitor

	// Order selects pre-order or post-order.
	Order Order

	// Args are passed to every visit.
	Args []any
}

// Runner runs a single job.
type Runner interface {
	Run(ctx context.Context, job Job) (any, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, job Job) (any, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, job Job) (any, error) {
	return f(ctx, job)
}

// JobResult represents the result of a job.
type JobResult struct {
	// ID matches the Job.ID that produced this result.
	ID string

	// Value is the traversal result (post-order only).
	Value any

	// Error contains any error that occurred during the traversal.
	Error error

	// Duration is the time taken by the traversal.
	Duration time.Duration
}

// BatchResult aggregates results from multiple jobs.
type BatchResult struct {
	// Results contains all job results. Batch keeps submission order;
	// Pool.CloseAndWait keeps completion order.
	Results []*JobResult

	// TotalJobs is the number of jobs submitted.
	TotalJobs int

	// CompletedJobs is the number of jobs completed (including errors).
	CompletedJobs int

	// FailedJobs is the number of jobs that failed with an error.
	FailedJobs int

	// TotalDuration is the summed duration of all jobs.
	TotalDuration time.Duration
}

// HasErrors returns true if any job failed.
func (br *BatchResult) HasErrors() bool {
	for _, r := range br.Results {
		if r != nil && r.Error != nil {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of failed jobs.
func (br *BatchResult) ErrorCount() int {
	count := 0
	for _, r := range br.Results {
		if r != nil && r.Error != nil {
			count++
		}
	}
	return count
}

// Err combines the job errors, each prefixed with its job ID, or returns nil.
func (br *BatchResult) Err() error {
	var result *multierror.Error
	for _, r := range br.Results {
		if r != nil && r.Error != nil {
			result = multierror.Append(result, errors.Wrapf(r.Error, "job %s", r.ID))
		}
	}
	return result.ErrorOrNil()
}
