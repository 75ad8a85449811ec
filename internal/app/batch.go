package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agbru/canonsim/internal/batch"
	"github.com/agbru/canonsim/internal/cli"
	"github.com/agbru/canonsim/internal/config"
	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/orchestration"
	"github.com/agbru/canonsim/internal/ui"
)

func (a *Application) newBatchCommand() *cobra.Command {
	flagCfg := config.DefaultBatchConfig()
	var (
		file     string
		logLevel string
		noColor  bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Sweep total energies with repeated trials and record the fits",
		Long: `batch runs every configured total energy a number of times and writes one
row per trial to a CSV file with the columns
N,total_energy,mean_energy,std_energy,beta,alpha. With --db the runs and
trials are also stored in a SQLite database.`,
		Example: `  canonsim batch --config sweep.yaml
  canonsim batch -n 100000 --energies 100,1000,10000 --trials 5 --db sweep.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := flagCfg
			if file != "" {
				loaded, err := config.LoadBatchConfig(file)
				if err != nil {
					return err
				}
				cfg = overrideBatch(loaded, flagCfg, cmd)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.setupOutput(config.AppConfig{NoColor: noColor, LogLevel: logLevel})

			sinks := []batch.Sink{batch.NewCSVSink(cfg.Output)}
			if cfg.Database != "" {
				sinks = append(sinks, batch.NewSQLiteSink(cfg.Database))
			}
			runner := orchestration.NewRunner(orchestration.WithLogger(a.logger))
			harness := batch.NewHarness(runner, a.Out, a.logger, sinks...)

			start := time.Now()
			n, err := harness.Execute(cmd.Context(), cfg)
			if err != nil {
				return exitWith(apperrors.HandleError(err, time.Since(start), a.ErrOut, cli.CLIColorProvider{}))
			}
			fmt.Fprintf(a.Out, "%sWrote %d trials to %s%s\n", ui.ColorGreen(), n, cfg.Output, ui.ColorReset())
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&file, "config", "c", "", "YAML sweep file")
	fs.IntVarP(&flagCfg.Particles, "particles", "n", flagCfg.Particles, "number of particles")
	fs.IntSliceVar(&flagCfg.TotalEnergies, "energies", flagCfg.TotalEnergies, "total energies to sweep")
	fs.IntVar(&flagCfg.Trials, "trials", flagCfg.Trials, "repetitions per total energy")
	fs.IntVarP(&flagCfg.Workers, "workers", "w", flagCfg.Workers, "number of parallel shards")
	fs.IntVarP(&flagCfg.Levels, "levels", "r", flagCfg.Levels, "number of energy levels (0 = unbounded)")
	fs.StringVarP(&flagCfg.Output, "output", "o", flagCfg.Output, "CSV output path")
	fs.StringVar(&flagCfg.Database, "db", flagCfg.Database, "SQLite database path (optional)")
	fs.Uint64Var(&flagCfg.Seed, "seed", flagCfg.Seed, "base random seed (0 = random)")
	fs.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error, disabled)")
	fs.BoolVar(&noColor, "no-color", false, "disable coloured output")
	return cmd
}

// overrideBatch lets flags given on the command line win over the file.
func overrideBatch(file, flags config.BatchConfig, cmd *cobra.Command) config.BatchConfig {
	changed := cmd.Flags().Changed
	if changed("particles") {
		file.Particles = flags.Particles
	}
	if changed("energies") {
		file.TotalEnergies = flags.TotalEnergies
	}
	if changed("trials") {
		file.Trials = flags.Trials
	}
	if changed("workers") {
		file.Workers = flags.Workers
	}
	if changed("levels") {
		file.Levels = flags.Levels
	}
	if changed("output") {
		file.Output = flags.Output
	}
	if changed("db") {
		file.Database = flags.Database
	}
	if changed("seed") {
		file.Seed = flags.Seed
	}
	return file
}
