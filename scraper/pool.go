package scraper

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Job is one unit of a batch.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// JobError is the failure of a single job inside a batch.
type JobError struct {
	Job string
	Err error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s: %v", e.Job, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// RunBatch runs every job with at most limit running at once and waits for
// all of them. A failing job does not stop its siblings; failures are
// returned in no particular order.
func RunBatch(ctx context.Context, limit int, jobs []Job) []*JobError {
	var (
		mu   sync.Mutex
		errs []*JobError
	)
	var eg errgroup.Group
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for _, job := range jobs {
		job := job
		eg.Go(func() error {
			if err := job.Run(ctx); err != nil {
				mu.Lock()
				errs = append(errs, &JobError{Job: job.Name, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	eg.Wait()
	return errs
}
