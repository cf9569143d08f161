package export

import (
	"context"
	"errors"
	"sync"
)

const maxWorkers = 4

// Result is the outcome of one format in a batch.
type Result struct {
	Format   Format
	Document Document
	Err      error
}

// RunBatch exports every format through a small worker pool. Results come
// back in the order of formats; the first failure is also returned as err.
func RunBatch(ctx context.Context, svc *Service, formats []Format, workers int) ([]Result, error) {
	if workers <= 0 || workers > maxWorkers {
		workers = maxWorkers
	}

	jobs := make(chan int)
	results := make([]Result, len(formats))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				f := formats[idx]
				doc, err := svc.Export(ctx, f)
				results[idx] = Result{Format: f, Document: doc, Err: err}
			}
		}()
	}

	for i := range formats {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return results, errors.Join(errs...)
}
