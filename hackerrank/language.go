package hackerrank

import (
	"regexp"
	"sort"
	"strings"
)

var versionSuffix = regexp.MustCompile(`\d+$`)

// Classify collapses a raw language label into the bucket its submissions
// are compared in: version suffixes are dropped, C and C++ share "cc" and
// every Python flavour becomes "python".
func Classify(label string) string {
	key := versionSuffix.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), "")
	switch {
	case key == "":
		return "unknown"
	case key == "c" || key == "cpp":
		return "cc"
	case strings.HasPrefix(key, "py"):
		return "python"
	}
	return key
}

// Buckets maps a language bucket to its contestants in leaderboard order.
type Buckets map[string][]string

func (b Buckets) Add(bucket, hacker string) {
	b[bucket] = append(b[bucket], hacker)
}

// Keys returns the buckets in sorted order.
func (b Buckets) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b Buckets) Len() int {
	var n int
	for _, hackers := range b {
		n += len(hackers)
	}
	return n
}
