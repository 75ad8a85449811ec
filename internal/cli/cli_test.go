package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/canonsim/internal/analysis"
	"github.com/agbru/canonsim/internal/config"
	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/orchestration"
	"github.com/agbru/canonsim/internal/progress"
	"github.com/agbru/canonsim/internal/simulation"
	"github.com/agbru/canonsim/internal/ui"
)

type mockSpinner struct {
	mu      sync.Mutex
	started bool
	stopped bool
	suffix  string
}

func (m *mockSpinner) Start() {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
}

func (m *mockSpinner) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

func (m *mockSpinner) UpdateSuffix(suffix string) {
	m.mu.Lock()
	m.suffix = suffix
	m.mu.Unlock()
}

func noColor(t *testing.T) {
	t.Helper()
	saved := ui.GetCurrentTheme()
	ui.SetCurrentTheme(ui.NoColorTheme)
	t.Cleanup(func() { ui.SetCurrentTheme(saved) })
}

func sampleRun() (config.AppConfig, orchestration.Result) {
	cfg := config.Default()
	cfg.Particles = 1750
	cfg.TotalEnergy = 1000
	cfg.Workers = 1
	h := simulation.Histogram{0: 1000, 1: 500, 2: 250}
	res := orchestration.Result{
		Histogram: h,
		Shards: []orchestration.ShardResult{{
			ShardSpec: orchestration.ShardSpec{Index: 0, Params: cfg.Params()},
			Histogram: h,
			Duration:  3 * time.Millisecond,
		}},
		Seed:     42,
		Duration: 5 * time.Millisecond,
	}
	return cfg, res
}

func TestRealSpinner(t *testing.T) {
	t.Parallel()
	rs := &realSpinner{spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(io.Discard))}
	rs.Start()
	rs.UpdateSuffix(" test")
	rs.Stop()
}

// DisplayProgress tests swap the package-level spinner factory.
func TestDisplayProgress(t *testing.T) {
	original := newSpinner
	t.Cleanup(func() { newSpinner = original })
	mock := &mockSpinner{}
	newSpinner = func(...spinner.Option) Spinner { return mock }

	var wg sync.WaitGroup
	wg.Add(1)
	ch := make(chan progress.ProgressUpdate)
	var out bytes.Buffer

	go func() {
		ch <- progress.ProgressUpdate{ShardIndex: 0, Value: 0.5}
		ch <- progress.ProgressUpdate{ShardIndex: 1, Value: 1.0}
		time.Sleep(2 * ProgressRefreshRate)
		ch <- progress.ProgressUpdate{ShardIndex: 0, Value: 1.0}
		close(ch)
	}()

	DisplayProgress(&wg, ch, 2, &out)
	wg.Wait()

	mock.mu.Lock()
	defer mock.mu.Unlock()
	if !mock.started || !mock.stopped {
		t.Errorf("spinner started=%v stopped=%v", mock.started, mock.stopped)
	}
	if !strings.Contains(mock.suffix, "2 shards") {
		t.Errorf("suffix %q should mention the shard count", mock.suffix)
	}
	if !strings.Contains(out.String(), "100.0%") {
		t.Errorf("final line missing: %q", out.String())
	}
}

func TestDisplayProgressZeroShards(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	ch := make(chan progress.ProgressUpdate, 1)
	ch <- progress.ProgressUpdate{}
	close(ch)
	DisplayProgress(&wg, ch, 0, io.Discard)
	wg.Wait()
}

func TestCLIColorProvider(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	code := apperrors.HandleError(apperrors.SaturationError{Placed: 1, Total: 5, Particles: 1, MaxLevel: 1}, time.Second, &buf, CLIColorProvider{})
	if code != apperrors.ExitErrorSaturation {
		t.Errorf("exit code %d, want %d", code, apperrors.ExitErrorSaturation)
	}
	if strings.Contains(buf.String(), "\033[") {
		t.Error("no-colour output contains escape sequences")
	}
}

func TestPrintExecutionConfig(t *testing.T) {
	noColor(t)
	cfg, _ := sampleRun()
	cfg.Levels = 3
	var buf bytes.Buffer
	PrintExecutionConfig(cfg, &buf)
	for _, want := range []string{"1,000 quanta", "1,750 particles", "levels: 3", "Workers: 1"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestPrintExecutionConfigSaturationWarning(t *testing.T) {
	noColor(t)
	tests := []struct {
		name        string
		levels      int
		wantWarning bool
	}{
		{"fits under the cap", 3, false},
		{"exceeds the cap", 2, true},
		{"unbounded", 0, false},
	}
	for _, tt := range tests {
		cfg, _ := sampleRun()
		cfg.Particles = 100
		cfg.TotalEnergy = 150
		cfg.Levels = tt.levels
		var buf bytes.Buffer
		PrintExecutionConfig(cfg, &buf)
		if got := strings.Contains(buf.String(), "will saturate"); got != tt.wantWarning {
			t.Errorf("%s: warning shown = %v, want %v\n%s", tt.name, got, tt.wantWarning, buf.String())
		}
	}
}

func TestDisplayHistogram(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	DisplayHistogram(simulation.Histogram{2: 1, 0: 220, 1: 22}, &buf)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header plus 3 rows:\n%s", len(lines), buf.String())
	}
	for i, want := range []string{"0", "1", "2"} {
		fields := strings.Fields(lines[i+1])
		if fields[0] != want {
			t.Errorf("row %d starts with %q, want %q", i, fields[0], want)
		}
	}
}

func TestFormatFitSummary(t *testing.T) {
	t.Parallel()
	fit, err := analysis.Analyze(simulation.Histogram{0: 1000, 1: 500, 2: 250})
	if err != nil {
		t.Fatal(err)
	}
	if got := FormatFitSummary(fit); !strings.Contains(got, "beta = 0.6931") || !strings.Contains(got, "alpha = 6.9078") {
		t.Errorf("FormatFitSummary = %q", got)
	}

	single, _ := analysis.Analyze(simulation.Histogram{5: 1})
	if got := FormatFitSummary(single); !strings.Contains(got, "beta = n/a") || !strings.Contains(got, "mean = 5.0000") {
		t.Errorf("FormatFitSummary = %q", got)
	}
}

func TestDisplayReport(t *testing.T) {
	noColor(t)
	cfg, res := sampleRun()
	fit, fitErr := analysis.Analyze(res.Histogram)

	tests := []struct {
		name    string
		quiet   bool
		verbose bool
		want    []string
		absent  []string
	}{
		{"default", false, false, []string{"Degeneracy", "Exponential Fit", "seed 42"}, []string{"Shards"}},
		{"verbose", false, true, []string{"--- Shards ---", "3ms"}, nil},
		{"quiet", true, false, []string{"beta = 0.6931"}, []string{"Degeneracy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			c.Quiet, c.Verbose = tt.quiet, tt.verbose
			var buf bytes.Buffer
			DisplayReport(c, res, fit, fitErr, &buf)
			for _, s := range tt.want {
				if !strings.Contains(buf.String(), s) {
					t.Errorf("missing %q in:\n%s", s, buf.String())
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(buf.String(), s) {
					t.Errorf("unexpected %q in:\n%s", s, buf.String())
				}
			}
		})
	}
}

func TestDisplayFitUnderdetermined(t *testing.T) {
	noColor(t)
	fit, err := analysis.Analyze(simulation.Histogram{0: 4})
	var buf bytes.Buffer
	DisplayFit(fit, err, &buf)
	if !strings.Contains(buf.String(), "Warning:") {
		t.Errorf("expected warning, got:\n%s", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()
	cfg, res := sampleRun()
	fit, _ := analysis.Analyze(res.Histogram)
	var buf bytes.Buffer
	if err := WriteJSON(cfg, res, fit, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["levels"] != "inf" || got["seed"] != float64(42) {
		t.Errorf("unexpected header fields: %v", got)
	}
	if rows, ok := got["histogram"].([]any); !ok || len(rows) != 3 {
		t.Errorf("histogram = %v", got["histogram"])
	}
	if _, ok := got["beta"]; !ok {
		t.Error("beta missing")
	}
}

func TestPromptLines(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		check   func(config.AppConfig) bool
		wantErr bool
	}{
		{"all answers", "200\n4\n300\n2\n", func(c config.AppConfig) bool {
			return c.Particles == 200 && c.Levels == 4 && c.TotalEnergy == 300 && c.Workers == 2
		}, false},
		{"inf and defaults", "50\ninf\n\n\n", func(c config.AppConfig) bool {
			return c.Particles == 50 && c.Levels == 0 && c.TotalEnergy == config.DefaultTotalEnergy
		}, false},
		{"early EOF", "10\n", func(c config.AppConfig) bool {
			return c.Particles == 10 && c.Levels == 0
		}, false},
		{"bad number", "ten\n", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			cfg, err := PromptLines(strings.NewReader(tt.input), &out, config.Default())
			if (err != nil) != tt.wantErr {
				t.Fatalf("PromptLines error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var verr apperrors.ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				return
			}
			if !tt.check(cfg) {
				t.Errorf("unexpected config %+v", cfg)
			}
			if !strings.Contains(out.String(), "Number of particles:") {
				t.Errorf("prompt not shown: %q", out.String())
			}
		})
	}
}
