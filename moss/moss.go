// Package moss drives the MOSS submission script and reads its hosted
// result pages.
package moss

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"vasiluta.ro/plism/scraper"
	"vasiluta.ro/plism/similarity"
)

var (
	ErrToolFailed  = errors.New("moss reported an error")
	ErrNoReference = errors.New("moss printed no result url")
)

var (
	// The submission script prints progress and ends with the result URL.
	lastLine = regexp.MustCompile(`(?m)^[ \t]*(\S.*?)\s*\z`)

	resultURL = regexp.MustCompile(`^https?://moss\.stanford\.edu/results/\d+/\d+`)
)

var _ similarity.Service = &Service{}

type Service struct {
	// Command is the submission script followed by any fixed arguments.
	Command []string

	HTTP *scraper.Client
}

// Submit runs the script over files, comparing them as bucket sources.
func (s *Service) Submit(ctx context.Context, bucket string, files []string) (similarity.Reference, error) {
	ref := similarity.Reference{Bucket: bucket}
	if len(s.Command) == 0 {
		return ref, errors.New("no moss command configured")
	}
	args := append([]string{}, s.Command[1:]...)
	args = append(args, "-l", bucket)
	args = append(args, files...)
	cmd := exec.CommandContext(ctx, s.Command[0], args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	zap.S().Debugf("Running %s over %d %s files", s.Command[0], len(files), bucket)
	runErr := cmd.Run()
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return ref, errors.Wrapf(ErrToolFailed, "%s: %s", bucket, msg)
	}
	if runErr != nil {
		return ref, errors.Wrapf(runErr, "run moss for %s", bucket)
	}

	url, ok := ParseReference(stdout.String())
	if !ok {
		return ref, errors.Wrapf(ErrNoReference, "%s", bucket)
	}
	ref.URL = url
	return ref, nil
}

// ParseReference extracts the last non-empty line of the script output.
func ParseReference(out string) (string, bool) {
	m := lastLine.FindStringSubmatch(out)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsResultURL reports whether url looks like a hosted MOSS result.
func IsResultURL(url string) bool {
	return resultURL.MatchString(url)
}

// FetchScores reads the comparison table behind ref. References that are not
// MOSS result URLs produce nothing.
func (s *Service) FetchScores(ctx context.Context, ref similarity.Reference) ([]similarity.Observation, error) {
	if !IsResultURL(ref.URL) {
		zap.S().Debugf("Ignoring non-result url %q", ref.URL)
		return nil, nil
	}
	resp, err := s.HTTP.Get(ctx, ref.URL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	obs, err := ParseResultPage(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", ref.URL)
	}
	return obs, nil
}
