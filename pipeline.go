package main

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"vasiluta.ro/plism/config"
	"vasiluta.ro/plism/hackerrank"
	"vasiluta.ro/plism/metrics"
	"vasiluta.ro/plism/report"
	"vasiluta.ro/plism/scraper"
	"vasiluta.ro/plism/similarity"
)

var (
	ErrDownloadsFailed = errors.New("some submissions could not be downloaded")
	ErrNoChallenges    = errors.New("no challenges to screen")
)

// Pipeline screens the challenges of one contest and writes the report.
type Pipeline struct {
	Conf *config.Config

	Leaderboard *hackerrank.Client
	Downloader  *hackerrank.Downloader
	Similarity  similarity.Service

	// Ledger is optional.
	Ledger *scraper.DB

	Aggregator *similarity.Aggregator
}

// Run screens every configured challenge and then writes the report.
func (p *Pipeline) Run(ctx context.Context) ([]report.Row, error) {
	challenges := p.Conf.Challenges
	if len(challenges) == 0 {
		zap.S().Info("No challenges configured, listing the contest's challenges")
		var err error
		challenges, err = p.Leaderboard.ListChallenges(ctx)
		if err != nil {
			return nil, err
		}
		if len(challenges) == 0 {
			return nil, ErrNoChallenges
		}
	}

	for _, challenge := range challenges {
		zap.S().Infof("=== %s", challenge)
		if err := p.RunChallenge(ctx, challenge); err != nil {
			return nil, errors.Wrapf(err, "challenge %s", challenge)
		}
	}

	for i, hacker := range p.Aggregator.Hackers() {
		if i == 10 {
			break
		}
		best := p.Aggregator.Get(hacker)
		zap.S().Debugf("%s: %d%% %s", hacker, best.Percent, best.Link)
	}

	zap.S().Info("Preparing results...")
	top, err := p.Leaderboard.TopHackers(ctx, p.Conf.Cutoff)
	if err != nil {
		return nil, err
	}
	rows := report.Build(top, p.Aggregator)
	if err := report.WriteCSV(p.Conf.ReportPath, rows); err != nil {
		return nil, err
	}
	zap.S().Infof("Wrote %d rows to %s", len(rows), p.Conf.ReportPath)
	return rows, nil
}

// RunChallenge fetches, downloads and compares the submissions of one
// challenge, feeding the results into the aggregator.
func (p *Pipeline) RunChallenge(ctx context.Context, challenge string) error {
	zap.S().Info("Fetching submissions...")
	buckets := make(hackerrank.Buckets)
	seen := make(map[string]bool)
	var entries []*scraper.Entry
	if err := p.Leaderboard.WalkChallenge(ctx, challenge, func(e *hackerrank.Entry) error {
		// The board can shift between pages, repeating a handle
		if seen[e.Hacker] {
			zap.S().Debugf("Skipping repeated leaderboard entry for %s", e.Hacker)
			return nil
		}
		seen[e.Hacker] = true
		bucket := hackerrank.Classify(e.Language)
		buckets.Add(bucket, e.Hacker)
		entries = append(entries, &scraper.Entry{
			Challenge: challenge,
			Hacker:    e.Hacker,
			Language:  e.Language,
			Bucket:    bucket,
			Score:     e.Score,
		})
		metrics.RecordEntry()
		return nil
	}); err != nil {
		return err
	}
	zap.S().Infof("%d scoring submissions in %d languages", buckets.Len(), len(buckets))

	if p.Ledger != nil {
		n, err := p.Ledger.InsertEntries(ctx, entries)
		if err != nil {
			zap.S().Warn(err)
		} else {
			zap.S().Debugf("Ledger: %d new entries", n)
		}
	}

	failed := p.Downloader.Download(ctx, challenge, buckets)
	for _, jerr := range failed {
		zap.S().Warnf("Download failed: %v", jerr)
	}
	zap.S().Infof("Download of submissions complete (%d failed)", len(failed))
	if len(failed) > 0 && p.Conf.DownloadPolicy == config.FailFast {
		return errors.Wrapf(ErrDownloadsFailed, "%d of %d", len(failed), buckets.Len())
	}

	failedJobs := make(map[string]bool, len(failed))
	for _, jerr := range failed {
		failedJobs[jerr.Job] = true
	}

	zap.S().Info("Running moss check...")
	refs, err := p.submit(ctx, challenge, buckets, failedJobs)
	if err != nil {
		return err
	}

	fetchErrs := similarity.Collect(ctx, p.Similarity, refs, p.Aggregator, p.Conf.PoolSize,
		func(ref similarity.Reference, o similarity.Observation, updated bool) {
			metrics.RecordObservation(updated)
			if p.Ledger == nil {
				return
			}
			if err := p.Ledger.InsertMatch(ctx, &scraper.Match{
				Challenge: challenge,
				Bucket:    ref.Bucket,
				Hacker:    o.Hacker,
				Percent:   o.Percent,
				URL:       o.Link,
			}); err != nil {
				zap.S().Warn(err)
			}
		})
	for _, jerr := range fetchErrs {
		zap.S().Warnf("Could not read moss results: %v", jerr)
	}
	zap.S().Infof("Moss check complete, %d contestants with matches so far", p.Aggregator.Len())
	return nil
}

// submit compares the files this run downloaded, bucket by bucket. Files
// left in a bucket directory by earlier runs are ignored.
func (p *Pipeline) submit(ctx context.Context, challenge string, buckets hackerrank.Buckets, failedJobs map[string]bool) ([]similarity.Reference, error) {
	var refs []similarity.Reference
	for _, bucket := range buckets.Keys() {
		dir := hackerrank.BucketDir(p.Downloader.Dir, challenge, bucket)
		fresh := make(map[string]bool, len(buckets[bucket]))
		for _, hacker := range buckets[bucket] {
			if !failedJobs[hackerrank.JobName(bucket, hacker)] {
				fresh[filepath.Join(dir, hacker)] = true
			}
		}
		onDisk, err := hackerrank.ListFiles(dir)
		if err != nil {
			return nil, err
		}
		var files []string
		for _, f := range onDisk {
			if fresh[f] {
				files = append(files, f)
			}
		}
		if len(files) == 0 {
			zap.S().Infof("No %s submissions downloaded, skipping", bucket)
			continue
		}

		ref, err := p.Similarity.Submit(ctx, bucket, files)
		metrics.RecordSubmission(err)
		if err != nil {
			if p.Conf.SimilarityPolicy == config.FailFast {
				return nil, err
			}
			zap.S().Warn(err)
			continue
		}
		zap.S().Infof("%s: %s", bucket, ref.URL)
		refs = append(refs, ref)
	}
	return refs, nil
}
