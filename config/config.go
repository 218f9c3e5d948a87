// Package config holds the settings of a screening run.
package config

import (
	"time"

	"github.com/pkg/errors"
)

var ErrInvalidConfig = errors.New("invalid config")

// Failure policies for downloads and similarity submissions.
const (
	BestEffort = "best_effort"
	FailFast   = "fail_fast"
)

type Config struct {
	// Contest is the slug from the contest URL.
	Contest string `koanf:"contest"`
	// Challenges are slugs from the challenge URLs. Empty means every
	// challenge of the contest.
	Challenges []string `koanf:"challenges"`
	// Cutoff is how many contest leaderboard ranks the report covers.
	Cutoff int `koanf:"cutoff"`

	BaseURL        string        `koanf:"base_url"`
	PageSize       int           `koanf:"page_size"`
	PoolSize       int           `koanf:"pool_size"`
	Retries        int           `koanf:"retries"`
	Backoff        time.Duration `koanf:"backoff"`
	RequestTimeout time.Duration `koanf:"request_timeout"`

	OutputDir  string `koanf:"output_dir"`
	ReportPath string `koanf:"report_path"`

	MossCommand []string `koanf:"moss_command"`

	DownloadPolicy   string `koanf:"download_policy"`
	SimilarityPolicy string `koanf:"similarity_policy"`

	DBPath      string `koanf:"db_path"`
	PGDSN       string `koanf:"pg_dsn"`
	MetricsPath string `koanf:"metrics_path"`

	Debug bool `koanf:"debug"`
}

func New() *Config {
	return &Config{
		Contest:    "turing-cup-2k23-round-1",
		Challenges: []string{"chain-beads"},
		Cutoff:     100,

		BaseURL:        "https://www.hackerrank.com",
		PageSize:       1000,
		PoolSize:       500,
		Retries:        3,
		Backoff:        500 * time.Millisecond,
		RequestTimeout: 2 * time.Minute,

		OutputDir:  ".",
		ReportPath: "plism_results.csv",

		MossCommand: []string{"moss"},

		DownloadPolicy:   BestEffort,
		SimilarityPolicy: FailFast,

		DBPath: "plism.db",
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Contest == "":
		return errors.Wrap(ErrInvalidConfig, "contest must not be empty")
	case c.Cutoff <= 0:
		return errors.Wrap(ErrInvalidConfig, "cutoff must be positive")
	case c.PageSize <= 0:
		return errors.Wrap(ErrInvalidConfig, "page_size must be positive")
	case c.PoolSize <= 0:
		return errors.Wrap(ErrInvalidConfig, "pool_size must be positive")
	case c.Retries < 0:
		return errors.Wrap(ErrInvalidConfig, "retries must not be negative")
	case len(c.MossCommand) == 0 || c.MossCommand[0] == "":
		return errors.Wrap(ErrInvalidConfig, "moss_command must not be empty")
	}
	if !validPolicy(c.DownloadPolicy) {
		return errors.Wrapf(ErrInvalidConfig, "unknown download_policy %q", c.DownloadPolicy)
	}
	if !validPolicy(c.SimilarityPolicy) {
		return errors.Wrapf(ErrInvalidConfig, "unknown similarity_policy %q", c.SimilarityPolicy)
	}
	return nil
}

func validPolicy(p string) bool {
	return p == BestEffort || p == FailFast
}
