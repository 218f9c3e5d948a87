package similarity

import (
	"context"

	"go.uber.org/zap"
	"vasiluta.ro/plism/scraper"
)

// ObserveFunc is told about every observation after it reached the
// aggregator.
type ObserveFunc func(ref Reference, o Observation, updated bool)

// Collect fetches the scores behind every reference, at most limit at a
// time, and feeds them into agg. Failed fetches are returned; they do not
// stop the others.
func Collect(ctx context.Context, svc Service, refs []Reference, agg *Aggregator, limit int, onObserve ObserveFunc) []*scraper.JobError {
	jobs := make([]scraper.Job, 0, len(refs))
	for _, ref := range refs {
		ref := ref
		jobs = append(jobs, scraper.Job{
			Name: ref.Bucket + " " + ref.URL,
			Run: func(ctx context.Context) error {
				obs, err := svc.FetchScores(ctx, ref)
				if err != nil {
					return err
				}
				zap.S().Debugf("%d observations from %s", len(obs), ref.URL)
				for _, o := range obs {
					updated := agg.Observe(o)
					if onObserve != nil {
						onObserve(ref, o, updated)
					}
				}
				return nil
			},
		})
	}
	return scraper.RunBatch(ctx, limit, jobs)
}
