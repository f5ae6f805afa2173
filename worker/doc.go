// Package worker provides a worker pool for running traversals in parallel.
//
// Each Job names an instance and a visitor; a Runner (usually the engine)
// resolves the instance's tree and walks it. The pool is useful when many
// independent instances are processed with the same or different visitors.
//
// Example usage:
//
//	// Create a worker pool with 4 workers
//	pool := worker.NewPool(eng, 4)
//	defer pool.Close()
//
//	// Submit jobs
//	for i, order := range orders {
//	    pool.Submit(worker.Job{
//	        ID:       strconv.Itoa(i),
//	        Instance: order,
//	        Visitor:  visitors.NewSummer("sum"),
//	    })
//	}
//
//	// Collect results
//	for result := range pool.Results() {
//	    if result.Error != nil {
//	        // Handle error
//	    }
//	    // Process result.Value
//	}
package worker
