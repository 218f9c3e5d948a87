package scraper

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Entry is one leaderboard record as stored in the run ledger.
type Entry struct {
	RunID     string `db:"run_id"`
	Challenge string `db:"challenge"`

	Hacker   string  `db:"hacker"`
	Language string  `db:"language"`
	Bucket   string  `db:"bucket"`
	Score    float64 `db:"score"`

	Downloaded bool    `db:"downloaded"`
	Error      *string `db:"error"`
}

// Match is one similarity observation kept in the ledger.
type Match struct {
	RunID     string `db:"run_id"`
	Challenge string `db:"challenge"`
	Bucket    string `db:"bucket"`

	Hacker  string `db:"hacker"`
	Percent int    `db:"percent"`
	URL     string `db:"url"`
}

// InsertEntry stores e, returning false when the (run, challenge, hacker)
// triple was already present. The existing row is replaced in that case.
func InsertEntry(ctx context.Context, execer sqlx.ExecerContext, e *Entry) (bool, error) {
	_, err := execer.ExecContext(ctx,
		`INSERT INTO entries (run_id, challenge, hacker, language, bucket, score, downloaded, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Challenge, e.Hacker, e.Language, e.Bucket, e.Score, e.Downloaded, e.Error,
	)
	if err != nil {
		var err2 sqlite3.Error
		if errors.As(err, &err2) {
			if err2.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
				// Keep the latest leaderboard data but report it as already seen
				if _, err := execer.ExecContext(ctx,
					`INSERT OR REPLACE INTO entries (run_id, challenge, hacker, language, bucket, score, downloaded, error)
						VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
					e.RunID, e.Challenge, e.Hacker, e.Language, e.Bucket, e.Score, e.Downloaded, e.Error,
				); err != nil {
					return false, err
				}
				return false, nil
			}
		}
		return false, err
	}
	return true, nil
}

type DB struct {
	db *sqlx.DB

	RunID string
}

// StartRun registers a new run for contest and makes it the current one.
func (s *DB) StartRun(ctx context.Context, contest string) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx, "INSERT INTO runs (id, contest, started_at) VALUES (?, ?, ?)", id, contest, time.Now().UTC()); err != nil {
		return "", errors.Wrap(err, "start run")
	}
	s.RunID = id
	return id, nil
}

// InsertEntries stores a whole challenge leaderboard in one transaction and
// returns how many rows were new.
func (s *DB) InsertEntries(ctx context.Context, entries []*Entry) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	var numInserted int
	for _, e := range entries {
		if e.RunID == "" {
			e.RunID = s.RunID
		}
		ok, err := InsertEntry(ctx, tx, e)
		if err != nil {
			zap.S().Warn(err)
			continue
		}
		if ok {
			numInserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return numInserted, nil
}

// MarkDownload records the outcome of a single download. A nil err marks the
// file as present.
func (s *DB) MarkDownload(ctx context.Context, challenge, hacker string, dlErr error) error {
	var msg *string
	if dlErr != nil {
		m := dlErr.Error()
		msg = &m
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE entries SET downloaded = ?, error = ? WHERE run_id = ? AND challenge = ? AND hacker = ?",
		dlErr == nil, msg, s.RunID, challenge, hacker)
	return err
}

func (s *DB) InsertMatch(ctx context.Context, m *Match) error {
	if m.RunID == "" {
		m.RunID = s.RunID
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO matches (run_id, challenge, bucket, hacker, percent, url)
			VALUES (:run_id, :challenge, :bucket, :hacker, :percent, :url)`, m)
	return err
}

func (s *DB) CountDownloaded(ctx context.Context, challenge string) (int, error) {
	var cnt int
	err := s.db.GetContext(ctx, &cnt, "SELECT COUNT(*) FROM entries WHERE run_id = ? AND challenge = ? AND downloaded", s.RunID, challenge)
	return cnt, err
}

func (s *DB) Entries(ctx context.Context, challenge string) ([]*Entry, error) {
	var entries []*Entry
	if err := s.db.SelectContext(ctx, &entries, "SELECT * FROM entries WHERE run_id = ? AND challenge = ? ORDER BY rowid", s.RunID, challenge); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *DB) Matches(ctx context.Context, hacker string) ([]*Match, error) {
	var matches []*Match
	if err := s.db.SelectContext(ctx, &matches, "SELECT * FROM matches WHERE run_id = ? AND hacker = ? ORDER BY percent DESC", s.RunID, hacker); err != nil {
		return nil, err
	}
	return matches, nil
}

func (s *DB) Close() error {
	return s.db.Close()
}

func NewDB(dbname string) (*DB, error) {
	d, err := sqlx.Connect("sqlite3", dbname)
	if err != nil {
		return nil, err
	}
	// Downloads report concurrently; sqlite only takes one writer anyway
	d.SetMaxOpenConns(1)
	if _, err := d.Exec(`
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	contest TEXT NOT NULL,
	started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
	run_id TEXT NOT NULL,
	challenge TEXT NOT NULL,

	hacker TEXT NOT NULL,
	language TEXT NOT NULL,
	bucket TEXT NOT NULL,
	score REAL NOT NULL,

	downloaded BOOLEAN NOT NULL DEFAULT FALSE,
	error TEXT,

	PRIMARY KEY (run_id, challenge, hacker)
);

CREATE TABLE IF NOT EXISTS matches (
	run_id TEXT NOT NULL,
	challenge TEXT NOT NULL,
	bucket TEXT NOT NULL,

	hacker TEXT NOT NULL,
	percent INTEGER NOT NULL,
	url TEXT NOT NULL
);
`); err != nil {
		return nil, err
	}

	return &DB{db: d}, nil
}
