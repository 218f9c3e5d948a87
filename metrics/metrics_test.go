package metrics_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"vasiluta.ro/plism/metrics"
)

func TestMetrics(t *testing.T) {
	convey.Convey("Given some recorded activity", t, func() {
		metrics.RecordEntry()
		metrics.RecordDownload(nil)
		metrics.RecordDownload(errors.New("404"))
		metrics.RecordSubmission(nil)
		metrics.RecordObservation(true)

		convey.Convey("Then every counter family is gathered", func() {
			families, err := metrics.Gatherer().Gather()
			convey.So(err, convey.ShouldBeNil)
			series := map[string]int{}
			for _, mf := range families {
				series[mf.GetName()] = len(mf.GetMetric())
			}
			convey.So(series, convey.ShouldResemble, map[string]int{
				"plism_entries_total":          1,
				"plism_downloads_total":        2,
				"plism_moss_submissions_total": 1,
				"plism_observations_total":     1,
			})
		})

		convey.Convey("When written as a textfile", func() {
			path := filepath.Join(t.TempDir(), "plism.prom")
			err := metrics.WriteTextfile(path)

			convey.Convey("Then the file holds the counters", func() {
				convey.So(err, convey.ShouldBeNil)
				body, err := os.ReadFile(path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(body), convey.ShouldContainSubstring, `plism_downloads_total{result="error"}`)
				convey.So(string(body), convey.ShouldContainSubstring, "plism_entries_total")
			})
		})
	})
}
