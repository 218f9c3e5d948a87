// Package similarity defines the boundary to an external similarity detector
// and aggregates its per-contestant results.
package similarity

import (
	"context"
	"sort"
	"sync"
)

// Reference locates the output of one detector run.
type Reference struct {
	Bucket string
	URL    string
}

// Observation is one contestant's side of a compared pair.
type Observation struct {
	Hacker  string
	Percent int
	Link    string
}

// Service submits a set of files for comparison and later reads back the
// scores of a finished comparison.
type Service interface {
	Submit(ctx context.Context, bucket string, files []string) (Reference, error)
	FetchScores(ctx context.Context, ref Reference) ([]Observation, error)
}

// Max is the highest percentage seen for a contestant and the comparison
// that produced it.
type Max struct {
	Percent int
	Link    string
}

// Aggregator keeps the maximum percentage per contestant. It is safe for
// concurrent use and its values never decrease.
type Aggregator struct {
	mu   sync.Mutex
	best map[string]Max
}

func NewAggregator() *Aggregator {
	return &Aggregator{best: make(map[string]Max)}
}

// Observe records o and reports whether it raised the stored maximum.
func (a *Aggregator) Observe(o Observation) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if o.Percent <= a.best[o.Hacker].Percent {
		return false
	}
	a.best[o.Hacker] = Max{Percent: o.Percent, Link: o.Link}
	return true
}

// Get returns the stored maximum, or the zero Max for unknown contestants.
func (a *Aggregator) Get(hacker string) Max {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.best[hacker]
}

func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.best)
}

// Snapshot copies the current state.
func (a *Aggregator) Snapshot() map[string]Max {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]Max, len(a.best))
	for k, v := range a.best {
		out[k] = v
	}
	return out
}

// Hackers lists every contestant with a stored maximum, highest first.
func (a *Aggregator) Hackers() []string {
	snap := a.Snapshot()
	hackers := make([]string, 0, len(snap))
	for h := range snap {
		hackers = append(hackers, h)
	}
	sort.Slice(hackers, func(i, j int) bool {
		if snap[hackers[i]].Percent != snap[hackers[j]].Percent {
			return snap[hackers[i]].Percent > snap[hackers[j]].Percent
		}
		return hackers[i] < hackers[j]
	})
	return hackers
}
