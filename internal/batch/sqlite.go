package batch

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	apperrors "github.com/agbru/canonsim/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at DATETIME NOT NULL,
	particles INTEGER NOT NULL,
	levels TEXT NOT NULL,
	workers INTEGER NOT NULL,
	trials INTEGER NOT NULL,
	config_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trials (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES runs(id),
	total_energy INTEGER NOT NULL,
	trial INTEGER NOT NULL,
	seed TEXT NOT NULL,
	mean_energy REAL NOT NULL,
	std_energy REAL NOT NULL,
	beta REAL,
	alpha REAL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trials_run ON trials(run_id);
CREATE INDEX IF NOT EXISTS idx_trials_energy ON trials(total_energy);
`

// SQLiteSink stores runs and trials in a SQLite database. Undefined fit
// parameters are stored as NULL. Seeds are stored as decimal text because
// SQLite integers are signed 64-bit.
type SQLiteSink struct {
	Path string

	db *sql.DB
}

// NewSQLiteSink returns a sink storing into the database file at path.
func NewSQLiteSink(path string) *SQLiteSink { return &SQLiteSink{Path: path} }

// Begin opens the database, creates the schema if needed and records run.
func (s *SQLiteSink) Begin(run Run) error {
	db, err := sql.Open("sqlite", s.Path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return apperrors.WrapError(err, "opening %s", s.Path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return apperrors.WrapError(err, "initialising schema")
	}
	cfgJSON, err := json.Marshal(run.Config)
	if err != nil {
		db.Close()
		return err
	}
	cfg := run.Config
	_, err = db.Exec(
		`INSERT INTO runs (id, started_at, particles, levels, workers, trials, config_json) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.StartedAt.Format(time.RFC3339Nano), cfg.Particles, cfg.Capacity().String(),
		cfg.Workers, cfg.Trials, string(cfgJSON))
	if err != nil {
		db.Close()
		return apperrors.WrapError(err, "recording run")
	}
	s.db = db
	return nil
}

// Write inserts one trial row.
func (s *SQLiteSink) Write(rec Record) error {
	var beta, alpha sql.NullFloat64
	if rec.FitOK {
		beta = sql.NullFloat64{Float64: rec.Fit.Beta(), Valid: true}
		alpha = sql.NullFloat64{Float64: rec.Fit.Alpha(), Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO trials (id, run_id, total_energy, trial, seed, mean_energy, std_energy, beta, alpha, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TrialID.String(), rec.RunID.String(), rec.TotalEnergy, rec.Trial, strconv.FormatUint(rec.Seed, 10),
		rec.Fit.MeanEnergy, rec.Fit.StdEnergy, beta, alpha, rec.Duration.Milliseconds())
	return err
}

// Close closes the database. It is a no-op before Begin.
func (s *SQLiteSink) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
