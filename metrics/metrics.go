// Package metrics keeps run counters on a private Prometheus registry and
// dumps them in text format for the node_exporter textfile collector.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "plism"

var registry = prometheus.NewRegistry() //nolint:gochecknoglobals // one registry per process

var (
	entries = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_total",
		Help:      "Leaderboard entries accepted for screening",
	})

	downloads = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "downloads_total",
		Help:      "Submission downloads by result",
	}, []string{"result"})

	submissions = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "moss_submissions_total",
		Help:      "Similarity tool invocations by result",
	}, []string{"result"})

	observations = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "observations_total",
		Help:      "Similarity observations, split by whether they raised a contestant's maximum",
	}, []string{"updated"})
)

func RecordEntry() { entries.Inc() }

func RecordDownload(err error) { downloads.WithLabelValues(result(err)).Inc() }

func RecordSubmission(err error) { submissions.WithLabelValues(result(err)).Inc() }

func RecordObservation(updated bool) {
	observations.WithLabelValues(strconv.FormatBool(updated)).Inc()
}

// WriteTextfile writes every metric to path, replacing it atomically.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, registry)
}

// Gatherer exposes the registry, mostly for tests.
func Gatherer() prometheus.Gatherer {
	return registry
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
