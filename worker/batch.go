package worker

import (
	"context"
	"runtime"
	"strconv"
	"sync"
)

// Batch runs a fixed set of jobs with a bounded number of workers and
// returns their results in submission order. Jobs not started when ctx is
// cancelled report ctx.Err(). Empty job IDs are replaced by the job index.
func Batch(ctx context.Context, runner Runner, jobs []Job, workers int) *BatchResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if len(jobs) == 0 {
		return &BatchResult{Results: make([]*JobResult, 0)}
	}

	// For small batches, don't use parallelism
	if len(jobs) <= 2 || workers == 1 {
		return batchSequential(ctx, runner, jobs)
	}
	return batchParallel(ctx, runner, jobs, min(workers, len(jobs)))
}

func batchSequential(ctx context.Context, runner Runner, jobs []Job) *BatchResult {
	results := make([]*JobResult, len(jobs))
	for i, job := range jobs {
		results[i] = run(ctx, runner, withID(job, i))
	}
	return summarize(results)
}

func batchParallel(ctx context.Context, runner Runner, jobs []Job, workers int) *BatchResult {
	indexes := make(chan int, len(jobs))
	for i := range jobs {
		indexes <- i
	}
	close(indexes)

	results := make([]*JobResult, len(jobs))
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = run(ctx, runner, withID(jobs[i], i))
			}
		}()
	}
	wg.Wait()

	return summarize(results)
}

func withID(job Job, i int) Job {
	if job.ID == "" {
		job.ID = strconv.Itoa(i)
	}
	return job
}

func summarize(results []*JobResult) *BatchResult {
	br := &BatchResult{Results: results, TotalJobs: len(results)}
	for _, r := range results {
		br.CompletedJobs++
		br.TotalDuration += r.Duration
		if r.Error != nil {
			br.FailedJobs++
		}
	}
	return br
}
