package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agbru/canonsim/internal/cli"
	apperrors "github.com/agbru/canonsim/internal/errors"
)

func execute(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := New(WithStreams(strings.NewReader(stdin), &out, &errOut))
	code = a.Execute(context.Background(), args)
	return code, out.String(), errOut.String()
}

func TestRunCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{
			name:     "quiet fit summary",
			args:     []string{"run", "-n", "500", "-e", "1000", "--seed", "3", "-q", "--no-color"},
			wantCode: apperrors.ExitSuccess,
			wantOut:  "alpha = ",
		},
		{
			name:     "full report",
			args:     []string{"run", "-n", "200", "-e", "300", "-w", "2", "--seed", "3", "--no-color", "--log-level", "disabled"},
			wantCode: apperrors.ExitSuccess,
			wantOut:  "Completed in",
		},
		{
			name:     "single level warns but succeeds",
			args:     []string{"run", "-n", "4", "-e", "0", "-q", "--no-color"},
			wantCode: apperrors.ExitSuccess,
			wantOut:  "n/a",
		},
		{
			name:     "saturation",
			args:     []string{"run", "-n", "5", "-e", "50", "-r", "2", "-q", "--no-color"},
			wantCode: apperrors.ExitErrorSaturation,
			wantErr:  "Infeasible request",
		},
		{
			name:     "invalid particles",
			args:     []string{"run", "-n", "0", "-q", "--no-color"},
			wantCode: apperrors.ExitErrorConfig,
			wantErr:  "particle count",
		},
		{
			name:     "unknown flag",
			args:     []string{"run", "--frobnicate"},
			wantCode: apperrors.ExitErrorConfig,
			wantErr:  "frobnicate",
		},
		{
			name:     "quiet and verbose conflict",
			args:     []string{"run", "-q", "-v"},
			wantCode: apperrors.ExitErrorConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := execute(t, "", tt.args...)
			if code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d\nstdout: %s\nstderr: %s", code, tt.wantCode, out, errOut)
			}
			if tt.wantOut != "" && !strings.Contains(out, tt.wantOut) {
				t.Errorf("stdout missing %q:\n%s", tt.wantOut, out)
			}
			if tt.wantErr != "" && !strings.Contains(errOut, tt.wantErr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantErr, errOut)
			}
		})
	}
}

func TestRunCommandJSON(t *testing.T) {
	code, out, errOut := execute(t, "", "run", "-n", "300", "-e", "600", "--seed", "11", "--json", "--log-level", "disabled")
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	var report cli.JSONReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("stdout is not a JSON report: %v\n%s", err, out)
	}
	if report.Particles != 300 || report.TotalEnergy != 600 || report.Seed != 11 {
		t.Errorf("report header = %+v", report)
	}
	var n, e int
	for _, row := range report.Histogram {
		n += row.Degeneracy
		e += row.Level * row.Degeneracy
	}
	if n != 300 || e != 600 {
		t.Errorf("histogram sums to N=%d E=%d", n, e)
	}
}

func TestRunCommandEnv(t *testing.T) {
	t.Setenv("CANONSIM_PARTICLES", "0")
	code, _, _ := execute(t, "", "run", "-q", "--no-color")
	if code != apperrors.ExitErrorConfig {
		t.Errorf("exit code = %d, want config error from env", code)
	}
	code, _, errOut := execute(t, "", "run", "-n", "10", "-e", "5", "-q", "--no-color")
	if code != apperrors.ExitSuccess {
		t.Errorf("flag should override env; exit code = %d, stderr: %s", code, errOut)
	}
}

func TestPromptCommandLines(t *testing.T) {
	code, out, errOut := execute(t, "50\n\n100\n1\n", "prompt", "--seed", "5", "--no-color", "--log-level", "disabled")
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d\nstdout: %s\nstderr: %s", code, out, errOut)
	}
	for _, want := range []string{"Number of particles", "Distributing", "Completed in"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
}

func TestPromptCommandBadAnswer(t *testing.T) {
	code, _, _ := execute(t, "many\n", "prompt", "--no-color")
	if code != apperrors.ExitErrorConfig {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorConfig)
	}
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "sweep.csv")
	yamlPath := filepath.Join(dir, "sweep.yaml")
	yaml := "particles: 50\ntotal_energies: [10, 40]\ntrials: 3\nworkers: 2\nseed: 1\n"
	if err := os.WriteFile(yamlPath, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	code, out, errOut := execute(t, "", "batch", "-c", yamlPath, "-o", csvPath, "--db", filepath.Join(dir, "sweep.db"),
		"--no-color", "--log-level", "disabled")
	if code != apperrors.ExitSuccess {
		t.Fatalf("exit code = %d\nstderr: %s", code, errOut)
	}
	if !strings.Contains(out, "Total Energy = 40") || !strings.Contains(out, "Wrote 6 trials") {
		t.Errorf("unexpected output:\n%s", out)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 7 || lines[0] != "N,total_energy,mean_energy,std_energy,beta,alpha" {
		t.Errorf("csv = %q", lines)
	}
}

func TestBatchCommandBadConfig(t *testing.T) {
	code, _, _ := execute(t, "", "batch", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	if code != apperrors.ExitErrorConfig {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorConfig)
	}
}

func TestVersion(t *testing.T) {
	for _, args := range [][]string{{"version"}, {"--version"}} {
		code, out, _ := execute(t, "", args...)
		if code != apperrors.ExitSuccess || !strings.HasPrefix(out, "canonsim ") {
			t.Errorf("%v: code %d, output %q", args, code, out)
		}
	}
}
