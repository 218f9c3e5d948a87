package hackerrank

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"vasiluta.ro/plism/scraper"
)

var ErrBadHandle = errors.New("handle is not a valid file name")

// Downloader stores submissions under Dir/<challenge>/<bucket>/<hacker>.
type Downloader struct {
	Client *Client
	Dir    string

	// PoolSize bounds the downloads in flight across all buckets.
	PoolSize int

	// OnResult, if set, is called once per finished download.
	OnResult func(challenge, bucket, hacker string, err error)
}

// BucketDir is the directory holding the submissions of one bucket.
func BucketDir(dir, challenge, bucket string) string {
	return filepath.Join(dir, challenge, bucket)
}

// JobName names the download job of hacker in bucket, as reported in the
// errors returned by Download.
func JobName(bucket, hacker string) string {
	return bucket + "/" + hacker
}

// Download fetches every submission of every bucket and waits for all of
// them. Failed downloads are returned and never leave a partial file.
func (d *Downloader) Download(ctx context.Context, challenge string, buckets Buckets) []*scraper.JobError {
	var jobs []scraper.Job
	var setupErrs []*scraper.JobError
	for _, bucket := range buckets.Keys() {
		bucket := bucket
		dir := BucketDir(d.Dir, challenge, bucket)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			for _, hacker := range buckets[bucket] {
				setupErrs = append(setupErrs, &scraper.JobError{Job: JobName(bucket, hacker), Err: err})
			}
			continue
		}
		for _, hacker := range buckets[bucket] {
			hacker := hacker
			jobs = append(jobs, scraper.Job{
				Name: JobName(bucket, hacker),
				Run: func(ctx context.Context) error {
					err := d.fetch(ctx, challenge, dir, hacker)
					if d.OnResult != nil {
						d.OnResult(challenge, bucket, hacker, err)
					}
					return err
				},
			})
		}
	}
	zap.S().Infof("Downloading %d submissions for %s", len(jobs), challenge)
	return append(setupErrs, scraper.RunBatch(ctx, d.PoolSize, jobs)...)
}

func (d *Downloader) fetch(ctx context.Context, challenge, dir, hacker string) (err error) {
	if hacker == "" || hacker == "." || hacker == ".." || strings.ContainsAny(hacker, `/\`) {
		return errors.Wrapf(ErrBadHandle, "%q", hacker)
	}
	resp, err := d.Client.HTTP.Get(ctx, d.Client.SubmissionURL(challenge, hacker))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	name := filepath.Join(dir, hacker)
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "create submission file")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "close submission file")
		}
		if err != nil {
			os.Remove(name)
		}
	}()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return errors.Wrap(err, "write submission file")
	}
	return nil
}

// ListFiles returns the regular files in a bucket directory, sorted. A
// missing directory yields no files.
func ListFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, ent := range ents {
		if ent.Type().IsRegular() {
			files = append(files, filepath.Join(dir, ent.Name()))
		}
	}
	return files, nil
}
