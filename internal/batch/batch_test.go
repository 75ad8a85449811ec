package batch

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/agbru/canonsim/internal/config"
	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/orchestration"
	"github.com/agbru/canonsim/internal/simulation"
)

// fakeSimulator returns a fixed histogram per total energy and records the
// requests it saw.
type fakeSimulator struct {
	hist     map[int]simulation.Histogram
	err      error
	requests []orchestration.Request
}

func (f *fakeSimulator) Run(_ context.Context, req orchestration.Request) (orchestration.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return orchestration.Result{}, f.err
	}
	return orchestration.Result{Histogram: f.hist[req.TotalEnergy], Seed: req.Seed}, nil
}

// recordingSink keeps every record in memory.
type recordingSink struct {
	begun   bool
	closed  bool
	records []Record
}

func (s *recordingSink) Begin(Run) error {
	s.begun = true
	return nil
}

func (s *recordingSink) Write(rec Record) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func smallConfig(t *testing.T) config.BatchConfig {
	t.Helper()
	cfg := config.DefaultBatchConfig()
	cfg.Particles = 4
	cfg.TotalEnergies = []int{0, 2}
	cfg.Trials = 2
	cfg.Workers = 1
	cfg.Output = filepath.Join(t.TempDir(), "out.csv")
	return cfg
}

func newFake() *fakeSimulator {
	return &fakeSimulator{hist: map[int]simulation.Histogram{
		0: {0: 4},
		2: {0: 2, 1: 2},
	}}
}

func TestHarnessExecute(t *testing.T) {
	t.Parallel()
	cfg := smallConfig(t)
	cfg.Seed = 100
	sim := newFake()
	sink := &recordingSink{}
	var out bytes.Buffer

	n, err := NewHarness(sim, &out, nil, sink).Execute(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if n != 4 || len(sink.records) != 4 {
		t.Fatalf("trials = %d, records = %d, want 4", n, len(sink.records))
	}
	if !sink.begun || !sink.closed {
		t.Error("sink should be begun and closed")
	}

	wantOut := "Total Energy = 0\n\tRepeat 0\n\tRepeat 1\nTotal Energy = 2\n\tRepeat 0\n\tRepeat 1\n"
	if diff := cmp.Diff(wantOut, out.String()); diff != "" {
		t.Errorf("progress output mismatch (-want +got):\n%s", diff)
	}

	var seeds []uint64
	for _, req := range sim.requests {
		seeds = append(seeds, req.Seed)
	}
	if diff := cmp.Diff([]uint64{100, 101, 102, 103}, seeds); diff != "" {
		t.Errorf("trial seeds mismatch (-want +got):\n%s", diff)
	}

	if sink.records[0].FitOK {
		t.Error("single-level trial should have no fit")
	}
	if !sink.records[2].FitOK {
		t.Error("two-level trial should have a fit")
	}
	if sink.records[0].RunID != sink.records[3].RunID {
		t.Error("records of one sweep share a run id")
	}
	if sink.records[0].TrialID == sink.records[1].TrialID {
		t.Error("trial ids must be unique")
	}
}

func TestHarnessStopsOnError(t *testing.T) {
	t.Parallel()
	sim := newFake()
	sim.err = apperrors.SaturationError{Placed: 1, Total: 2, MaxLevel: 0, Particles: 4}
	sink := &recordingSink{}

	n, err := NewHarness(sim, nil, nil, sink).Execute(context.Background(), smallConfig(t))
	if n != 0 {
		t.Errorf("n = %d, want 0", n)
	}
	var sat apperrors.SaturationError
	if !errors.As(err, &sat) {
		t.Fatalf("error = %v, want SaturationError", err)
	}
	if !sink.closed {
		t.Error("sink must be closed after a failed sweep")
	}
}

func TestHarnessRejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	cfg := smallConfig(t)
	cfg.Trials = 0
	_, err := NewHarness(newFake(), nil, nil).Execute(context.Background(), cfg)
	var ce apperrors.ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("error = %v, want ConfigError", err)
	}
}

func TestCSVSink(t *testing.T) {
	t.Parallel()
	cfg := smallConfig(t)
	sink := NewCSVSink(cfg.Output)

	if _, err := NewHarness(newFake(), nil, nil, sink).Execute(context.Background(), cfg); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	f, err := os.Open(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want header + 4", len(rows))
	}
	if diff := cmp.Diff(CSVHeader, rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"4", "0", "0", "0", "NA", "NA"}, rows[1]); diff != "" {
		t.Errorf("single-level row mismatch (-want +got):\n%s", diff)
	}
	// {0:2, 1:2}: flat profile, so beta = 0 and alpha = ln 2.
	want := []string{"4", "2", "0.5", "0.5", "0", "0.6931471805599453"}
	got := append([]string(nil), rows[3]...)
	if strings.HasPrefix(got[4], "-0") {
		got[4] = got[4][1:]
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fitted row mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteSink(t *testing.T) {
	t.Parallel()
	cfg := smallConfig(t)
	dbPath := filepath.Join(t.TempDir(), "sweep.db")

	if _, err := NewHarness(newFake(), nil, nil, NewSQLiteSink(dbPath)).Execute(context.Background(), cfg); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var runs, trials, nullBeta int
	if err := db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM trials`).Scan(&trials); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM trials WHERE beta IS NULL`).Scan(&nullBeta); err != nil {
		t.Fatal(err)
	}
	if runs != 1 || trials != 4 || nullBeta != 2 {
		t.Errorf("runs=%d trials=%d null beta=%d, want 1, 4, 2", runs, trials, nullBeta)
	}

	var levels string
	if err := db.QueryRow(`SELECT levels FROM runs`).Scan(&levels); err != nil {
		t.Fatal(err)
	}
	if levels != "inf" {
		t.Errorf("levels = %q, want inf", levels)
	}
}

func TestSQLiteSinkKeepsLargeSeeds(t *testing.T) {
	t.Parallel()
	cfg := smallConfig(t)
	cfg.Seed = math.MaxUint64 - 10
	dbPath := filepath.Join(t.TempDir(), "seeds.db")

	if _, err := NewHarness(newFake(), nil, nil, NewSQLiteSink(dbPath)).Execute(context.Background(), cfg); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT seed FROM trials`)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	var got []uint64
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			t.Fatal(err)
		}
		seed, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			t.Fatalf("seed %q is not an unsigned decimal: %v", text, err)
		}
		got = append(got, seed)
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	slices.Sort(got)
	want := []uint64{cfg.Seed, cfg.Seed + 1, cfg.Seed + 2, cfg.Seed + 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stored seeds mismatch (-want +got):\n%s", diff)
	}
}

func TestHarnessWithRunner(t *testing.T) {
	t.Parallel()
	cfg := smallConfig(t)
	cfg.Particles = 100
	cfg.TotalEnergies = []int{50, 300}
	cfg.Workers = 4
	cfg.Seed = 9
	sink := &recordingSink{}

	if _, err := NewHarness(orchestration.NewRunner(), nil, nil, sink).Execute(context.Background(), cfg); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, rec := range sink.records {
		want := float64(rec.TotalEnergy) / float64(rec.Particles)
		if diff := rec.Fit.MeanEnergy - want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("mean energy = %v, want %v", rec.Fit.MeanEnergy, want)
		}
	}
}
