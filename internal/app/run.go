package app

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/agbru/canonsim/internal/analysis"
	"github.com/agbru/canonsim/internal/cli"
	"github.com/agbru/canonsim/internal/config"
	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/orchestration"
	"github.com/agbru/canonsim/internal/tui"
)

func (a *Application) newRunCommand() *cobra.Command {
	cfg := config.Default()
	var dashboard bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation and print the histogram and fit",
		Example: `  canonsim run -n 10000 -e 20000
  canonsim run -n 1000000 -e 500000 -w 8 --seed 42 --json
  canonsim run -n 100 -e 150 -r 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := loadConfig(cfg, cmd.Flags())
			if err != nil {
				return err
			}
			a.setupOutput(resolved)
			if dashboard {
				return exitWith(tui.Run(cmd.Context(), resolved))
			}
			return exitWith(a.simulate(cmd.Context(), resolved))
		},
	}
	config.BindFlags(cmd.Flags(), &cfg)
	cmd.Flags().BoolVar(&dashboard, "tui", false, "show an interactive dashboard")
	return cmd
}

// simulate runs cfg through the parallel runner and prints the outcome. It
// returns the process exit code; errors are printed on ErrOut.
func (a *Application) simulate(ctx context.Context, cfg config.AppConfig) int {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	textual := !cfg.Quiet && !cfg.JSON
	if textual {
		cli.PrintExecutionConfig(cfg, a.Out)
	}

	opts := []orchestration.Option{orchestration.WithLogger(a.logger)}
	if textual {
		opts = append(opts, orchestration.WithProgress(cli.CLIProgressReporter{}, a.Out))
	}
	runner := orchestration.NewRunner(opts...)

	res, err := runner.Run(ctx, orchestration.Request{
		Params:       cfg.Params(),
		Workers:      cfg.Workers,
		Seed:         cfg.Seed,
		ShardTimeout: cfg.ShardTimeout,
	})
	if err != nil {
		return apperrors.HandleError(err, time.Since(start), a.ErrOut, cli.CLIColorProvider{})
	}

	fit, fitErr := analysis.Analyze(res.Histogram)
	if fitErr != nil && !apperrors.IsFitUnderdetermined(fitErr) {
		return apperrors.HandleError(fitErr, time.Since(start), a.ErrOut, cli.CLIColorProvider{})
	}

	if cfg.JSON {
		if err := cli.WriteJSON(cfg, res, fit, a.Out); err != nil {
			return apperrors.HandleError(err, time.Since(start), a.ErrOut, cli.CLIColorProvider{})
		}
		return apperrors.ExitSuccess
	}
	cli.DisplayReport(cfg, res, fit, fitErr, a.Out)
	return apperrors.ExitSuccess
}
