package e2e

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// TestCLI_E2E builds the binary and checks output and exit codes of
// representative invocations.
func TestCLI_E2E(t *testing.T) {
	tmpDir := t.TempDir()
	binName := "canonsim"
	if runtime.GOOS == "windows" {
		binName = "canonsim.exe"
	}
	binPath := filepath.Join(tmpDir, binName)

	// go test runs in test/e2e; build from the module root.
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/canonsim")
	cmd.Dir = "../.."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Failed to build canonsim: %v", err)
	}

	tests := []struct {
		name     string
		args     []string
		stdin    string
		wantOut  string // case-insensitive substring
		wantCode int
	}{
		{
			name:     "Basic Run",
			args:     []string{"run", "-n", "1000", "-e", "2000", "--seed", "1"},
			wantOut:  "Exponential Fit",
			wantCode: 0,
		},
		{
			name:     "Help",
			args:     []string{"--help"},
			wantOut:  "usage",
			wantCode: 0,
		},
		{
			name:     "Parallel Shards",
			args:     []string{"run", "-n", "10000", "-e", "5000", "-w", "4", "-v"},
			wantOut:  "shard",
			wantCode: 0,
		},
		{
			name:     "Quiet Mode",
			args:     []string{"run", "-n", "100", "-e", "200", "--quiet"},
			wantOut:  "beta =",
			wantCode: 0,
		},
		{
			name:     "JSON Output",
			args:     []string{"run", "-n", "100", "-e", "200", "--json"},
			wantOut:  `"histogram"`,
			wantCode: 0,
		},
		{
			name:     "Very Short Timeout",
			args:     []string{"run", "-n", "1000", "-e", "2000000000", "--timeout", "1ms"},
			wantCode: 2,
		},
		{
			name:     "Saturated Levels",
			args:     []string{"run", "-n", "5", "-e", "50", "-r", "2"},
			wantOut:  "infeasible",
			wantCode: 5,
		},
		{
			name:     "Invalid Particles",
			args:     []string{"run", "-n", "0"},
			wantOut:  "invalid parameters",
			wantCode: 4,
		},
		{
			name:     "Line Prompt",
			args:     []string{"prompt", "--seed", "2"},
			stdin:    "20\ninf\n30\n1\n",
			wantOut:  "Level",
			wantCode: 0,
		},
		{
			name:     "Version",
			args:     []string{"--version"},
			wantOut:  "canonsim",
			wantCode: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(binPath, tt.args...)
			cmd.Env = append(os.Environ(), "NO_COLOR=1")
			cmd.Stdin = strings.NewReader(tt.stdin)
			output, err := cmd.CombinedOutput()
			outStr := string(output)

			code := 0
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			} else if err != nil {
				t.Fatalf("running canonsim: %v", err)
			}
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d\nOutput: %s", code, tt.wantCode, outStr)
			}
			if tt.wantOut != "" && !strings.Contains(strings.ToLower(outStr), strings.ToLower(tt.wantOut)) {
				t.Errorf("Output missing expected string.\nExpected: %q\nGot:\n%s", tt.wantOut, outStr)
			}
		})
	}
}
