package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// ErrNoRunner is returned when the pool has no runner configured.
var ErrNoRunner = errors.New("no runner configured")

// Pool manages a pool of worker goroutines running traversals.
type Pool struct {
	workers    int
	jobsChan   chan Job
	resultChan chan *JobResult
	runner     Runner
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closed     atomic.Bool

	// mu orders sends on jobsChan before its close: senders hold the read
	// lock, closing takes the write lock.
	mu sync.RWMutex

	// Metrics
	jobsSubmitted atomic.Uint64
	jobsCompleted atomic.Uint64
	jobsFailed    atomic.Uint64
	totalDuration atomic.Int64
}

// NewPool creates a new worker pool with the specified number of workers.
// If workers <= 0, it defaults to runtime.NumCPU().
func NewPool(runner Runner, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		workers:    workers,
		jobsChan:   make(chan Job, workers*2),
		resultChan: make(chan *JobResult, workers*2),
		runner:     runner,
		ctx:        ctx,
		cancel:     cancel,
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	return p
}

// Submit submits a job to the pool for processing.
// This method blocks if the job queue is full.
func (p *Pool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return false
	}

	select {
	case <-p.ctx.Done():
		return false
	case p.jobsChan <- job:
		p.jobsSubmitted.Add(1)
		return true
	}
}

// SubmitAsync submits a job without blocking.
// Returns false if the job queue is full or the pool is closed.
func (p *Pool) SubmitAsync(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return false
	}

	select {
	case <-p.ctx.Done():
		return false
	case p.jobsChan <- job:
		p.jobsSubmitted.Add(1)
		return true
	default:
		return false
	}
}

// Results returns the channel for receiving job results.
func (p *Pool) Results() <-chan *JobResult {
	return p.resultChan
}

// Close cancels pending jobs, discards undelivered results and waits for
// all workers to finish. Submitters blocked on a full queue return false.
func (p *Pool) Close() {
	if p.closed.Swap(true) {
		return
	}

	p.cancel()

	// Drain results in background to prevent worker deadlock
	done := make(chan struct{})
	go func() {
		for range p.resultChan {
		}
		close(done)
	}()

	p.closeJobs()
	p.wg.Wait()
	close(p.resultChan)
	<-done
}

// CloseAndWait stops accepting jobs, lets the queued ones finish and
// returns every result not yet received from Results.
func (p *Pool) CloseAndWait() *BatchResult {
	if p.closed.Swap(true) {
		return &BatchResult{}
	}

	// Collect before closing the queue: submitters still in flight need
	// workers to make progress.
	collected := make(chan []*JobResult, 1)
	go func() {
		results := make([]*JobResult, 0)
		for result := range p.resultChan {
			results = append(results, result)
		}
		collected <- results
	}()

	p.closeJobs()
	p.wg.Wait()
	close(p.resultChan)
	results := <-collected
	p.cancel()

	return &BatchResult{
		Results:       results,
		TotalJobs:     int(p.jobsSubmitted.Load()),
		CompletedJobs: int(p.jobsCompleted.Load()),
		FailedJobs:    int(p.jobsFailed.Load()),
		TotalDuration: time.Duration(p.totalDuration.Load()),
	}
}

// closeJobs closes the queue once no submitter is sending.
func (p *Pool) closeJobs() {
	p.mu.Lock()
	defer p.mu.Unlock()
	close(p.jobsChan)
}

// Stats returns current pool statistics.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:       p.workers,
		JobsSubmitted: p.jobsSubmitted.Load(),
		JobsCompleted: p.jobsCompleted.Load(),
		JobsFailed:    p.jobsFailed.Load(),
		AvgDuration:   p.averageDuration(),
	}
}

// PoolStats contains pool statistics.
type PoolStats struct {
	Workers       int           `json:"workers" yaml:"workers"`
	JobsSubmitted uint64        `json:"jobs_submitted" yaml:"jobsSubmitted"`
	JobsCompleted uint64        `json:"jobs_completed" yaml:"jobsCompleted"`
	JobsFailed    uint64        `json:"jobs_failed" yaml:"jobsFailed"`
	AvgDuration   time.Duration `json:"avg_duration" yaml:"avgDuration"`
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobsChan {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		result := run(p.ctx, p.runner, job)
		p.jobsCompleted.Add(1)
		if result.Error != nil {
			p.jobsFailed.Add(1)
		}
		p.totalDuration.Add(int64(result.Duration))

		select {
		case <-p.ctx.Done():
			return
		case p.resultChan <- result:
		}
	}
}

// run executes job and times it.
func run(ctx context.Context, runner Runner, job Job) *JobResult {
	start := time.Now()
	result := &JobResult{ID: job.ID}

	switch {
	case runner == nil:
		result.Error = ErrNoRunner
	case ctx.Err() != nil:
		result.Error = ctx.Err()
	default:
		result.Value, result.Error = runner.Run(ctx, job)
	}

	result.Duration = time.Since(start)
	return result
}

func (p *Pool) averageDuration() time.Duration {
	completed := p.jobsCompleted.Load()
	if completed == 0 {
		return 0
	}
	return time.Duration(p.totalDuration.Load() / int64(completed)) //nolint:gosec // completed job count fits int64
}
