package scraper_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
	"vasiluta.ro/plism/scraper"
)

func TestDB(t *testing.T) {
	convey.Convey("Given a fresh ledger", t, func() {
		ctx := context.Background()
		db, err := scraper.NewDB(filepath.Join(t.TempDir(), "ledger.db"))
		convey.So(err, convey.ShouldBeNil)
		defer db.Close()

		runID, err := db.StartRun(ctx, "turing")
		convey.So(err, convey.ShouldBeNil)
		convey.So(runID, convey.ShouldNotBeEmpty)
		convey.So(db.RunID, convey.ShouldEqual, runID)

		entries := []*scraper.Entry{
			{Challenge: "beads", Hacker: "alice", Language: "cpp14", Bucket: "cc", Score: 50},
			{Challenge: "beads", Hacker: "bob", Language: "python3", Bucket: "python", Score: 30},
		}

		convey.Convey("When inserting a leaderboard twice", func() {
			first, err := db.InsertEntries(ctx, entries)
			convey.So(err, convey.ShouldBeNil)
			again, err := db.InsertEntries(ctx, []*scraper.Entry{
				{Challenge: "beads", Hacker: "alice", Language: "cpp17", Bucket: "cc", Score: 60},
			})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then only new rows count and the latest data wins", func() {
				convey.So(first, convey.ShouldEqual, 2)
				convey.So(again, convey.ShouldEqual, 0)

				stored, err := db.Entries(ctx, "beads")
				convey.So(err, convey.ShouldBeNil)
				convey.So(stored, convey.ShouldHaveLength, 2)
				var alice *scraper.Entry
				for _, e := range stored {
					if e.Hacker == "alice" {
						alice = e
					}
				}
				convey.So(alice, convey.ShouldNotBeNil)
				convey.So(alice.Score, convey.ShouldEqual, 60)
				convey.So(alice.Language, convey.ShouldEqual, "cpp17")
			})
		})

		convey.Convey("When marking downloads", func() {
			_, err := db.InsertEntries(ctx, entries)
			convey.So(err, convey.ShouldBeNil)
			convey.So(db.MarkDownload(ctx, "beads", "alice", nil), convey.ShouldBeNil)
			convey.So(db.MarkDownload(ctx, "beads", "bob", errors.New("404")), convey.ShouldBeNil)

			convey.Convey("Then only successful ones are counted", func() {
				n, err := db.CountDownloaded(ctx, "beads")
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 1)

				stored, err := db.Entries(ctx, "beads")
				convey.So(err, convey.ShouldBeNil)
				for _, e := range stored {
					if e.Hacker == "bob" {
						convey.So(e.Downloaded, convey.ShouldBeFalse)
						convey.So(*e.Error, convey.ShouldEqual, "404")
					}
				}
			})
		})

		convey.Convey("When storing matches", func() {
			convey.So(db.InsertMatch(ctx, &scraper.Match{Challenge: "beads", Bucket: "cc", Hacker: "alice", Percent: 40, URL: "match0.html"}), convey.ShouldBeNil)
			convey.So(db.InsertMatch(ctx, &scraper.Match{Challenge: "beads", Bucket: "cc", Hacker: "alice", Percent: 70, URL: "match1.html"}), convey.ShouldBeNil)

			convey.Convey("Then they come back highest first", func() {
				matches, err := db.Matches(ctx, "alice")
				convey.So(err, convey.ShouldBeNil)
				convey.So(matches, convey.ShouldHaveLength, 2)
				convey.So(matches[0].Percent, convey.ShouldEqual, 70)
				convey.So(matches[0].RunID, convey.ShouldEqual, runID)
			})
		})
	})
}
