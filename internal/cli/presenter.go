package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/agbru/canonsim/internal/analysis"
	"github.com/agbru/canonsim/internal/config"
	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/format"
	"github.com/agbru/canonsim/internal/metrics"
	"github.com/agbru/canonsim/internal/orchestration"
	"github.com/agbru/canonsim/internal/simulation"
	"github.com/agbru/canonsim/internal/ui"
)

// CLIColorProvider supplies theme colours to apperrors.HandleError.
type CLIColorProvider struct{}

func (CLIColorProvider) Red() string    { return ui.ColorRed() }
func (CLIColorProvider) Yellow() string { return ui.ColorYellow() }
func (CLIColorProvider) Reset() string  { return ui.ColorReset() }

// PrintExecutionConfig displays the simulation parameters and environment.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Distributing %s%s%s quanta over %s%s%s particles (levels: %s%s%s).\n",
		ui.ColorMagenta(), format.FormatCount(cfg.TotalEnergy), ui.ColorReset(),
		ui.ColorMagenta(), format.FormatCount(cfg.Particles), ui.ColorReset(),
		ui.ColorCyan(), cfg.Capacity(), ui.ColorReset())
	fmt.Fprintf(out, "Workers: %s%d%s, timeout: %s%s%s.\n",
		ui.ColorCyan(), cfg.Workers, ui.ColorReset(), ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(), ui.ColorCyan(), runtime.Version(), ui.ColorReset())
	fmt.Fprintf(out, "Estimated working memory: %s%s%s.\n",
		ui.ColorCyan(), format.FormatBytes(metrics.EstimateRunMemory(cfg.Params())), ui.ColorReset())
	if !cfg.Params().Feasible() {
		fmt.Fprintf(out, "%sWarning: the energy exceeds what %s levels can hold; the run will saturate.%s\n",
			ui.ColorYellow(), cfg.Capacity(), ui.ColorReset())
	}
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}

// DisplayHistogram prints the level/degeneracy table in ascending level order.
func DisplayHistogram(h simulation.Histogram, out io.Writer) {
	fmt.Fprintf(out, "\n%sLevel%s\t%sDegeneracy%s\n", ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, level := range h.Levels() {
		fmt.Fprintf(tw, "%d\t%s\t\n", level, format.FormatCount(h[level]))
	}
	tw.Flush()
}

// FormatFitSummary renders the fit on one line. Undefined parameters print
// as "n/a".
func FormatFitSummary(fit analysis.FitResult) string {
	if !fit.HasFit() {
		return fmt.Sprintf("alpha = n/a, beta = n/a, mean = %.4f, std = %.4f", fit.MeanEnergy, fit.StdEnergy)
	}
	return fmt.Sprintf("alpha = %.4f, beta = %.4f, mean = %.4f, std = %.4f",
		fit.Alpha(), fit.Beta(), fit.MeanEnergy, fit.StdEnergy)
}

// DisplayFit prints the fit summary. fitErr is the error returned by
// analysis.Analyze; an underdetermined fit is shown as a warning.
func DisplayFit(fit analysis.FitResult, fitErr error, out io.Writer) {
	fmt.Fprintf(out, "\n--- Exponential Fit ---\n")
	if apperrors.IsFitUnderdetermined(fitErr) {
		fmt.Fprintf(out, "%sWarning: %v%s\n", ui.ColorYellow(), fitErr, ui.ColorReset())
	}
	fmt.Fprintf(out, "%s%s%s\n", ui.ColorGreen(), FormatFitSummary(fit), ui.ColorReset())
}

// DisplayShards lists the share and duration of every shard.
func DisplayShards(shards []orchestration.ShardResult, out io.Writer) {
	fmt.Fprintf(out, "\n--- Shards ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Shard\tParticles\tQuanta\tLevels\tDuration")
	for _, s := range shards {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", s.Index,
			format.FormatCount(s.Particles), format.FormatCount(s.TotalEnergy),
			len(s.Histogram), format.FormatExecutionDuration(s.Duration))
	}
	tw.Flush()
}

// DisplayReport prints a complete run: histogram, fit and timing. Quiet mode
// prints only the fit summary line.
func DisplayReport(cfg config.AppConfig, res orchestration.Result, fit analysis.FitResult, fitErr error, out io.Writer) {
	if cfg.Quiet {
		fmt.Fprintln(out, FormatFitSummary(fit))
		return
	}
	DisplayHistogram(res.Histogram, out)
	DisplayFit(fit, fitErr, out)
	if cfg.Verbose {
		DisplayShards(res.Shards, out)
	}
	fmt.Fprintf(out, "\nCompleted in %s%s%s (seed %d).\n",
		ui.ColorYellow(), format.FormatExecutionDuration(res.Duration), ui.ColorReset(), res.Seed)
}

// JSONReport is the document written by --json.
type JSONReport struct {
	Particles   int     `json:"particles"`
	TotalEnergy int     `json:"total_energy"`
	Levels      string  `json:"levels"`
	Workers     int     `json:"workers"`
	Seed        uint64  `json:"seed"`
	DurationMS  float64 `json:"duration_ms"`
	analysis.Summary
}

// WriteJSON writes the run as an indented JSON document.
func WriteJSON(cfg config.AppConfig, res orchestration.Result, fit analysis.FitResult, out io.Writer) error {
	report := JSONReport{
		Particles:   cfg.Particles,
		TotalEnergy: cfg.TotalEnergy,
		Levels:      cfg.Capacity().String(),
		Workers:     cfg.Workers,
		Seed:        res.Seed,
		DurationMS:  float64(res.Duration) / float64(time.Millisecond),
		Summary:     analysis.Summarize(res.Histogram, fit),
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
