// Package app wires configuration, the simulator and the presentation
// layers into the canonsim command tree.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/agbru/canonsim/internal/cli"
	"github.com/agbru/canonsim/internal/config"
	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/logging"
	"github.com/agbru/canonsim/internal/ui"
)

// Application holds the streams the commands read from and write to.
type Application struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	logger logging.Logger
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithStreams replaces the standard streams.
func WithStreams(in io.Reader, out, errOut io.Writer) AppOption {
	return func(a *Application) {
		a.In, a.Out, a.ErrOut = in, out, errOut
	}
}

// New returns an Application bound to the process streams unless
// overridden.
func New(opts ...AppOption) *Application {
	a := &Application{In: os.Stdin, Out: os.Stdout, ErrOut: os.Stderr}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.NewConsoleLogger(a.ErrOut, "canonsim")
	return a
}

// exitError carries an exit code whose message has already been printed.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// exitWith returns nil for success so cobra treats the command as done.
func exitWith(code int) error {
	if code == apperrors.ExitSuccess {
		return nil
	}
	return exitError{code: code}
}

// Execute runs the command line args (without the program name) and
// returns the process exit code. SIGINT and SIGTERM cancel the context.
func (a *Application) Execute(ctx context.Context, args []string) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := a.newRootCommand()
	root.SetArgs(args)
	root.SetIn(a.In)
	root.SetOut(a.Out)
	root.SetErr(a.ErrOut)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return apperrors.ExitSuccess
	}
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return apperrors.HandleError(err, 0, a.ErrOut, cli.CLIColorProvider{})
}

func (a *Application) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "canonsim",
		Short: "Monte-Carlo simulation of a canonical-ensemble toy model",
		Long: `canonsim distributes energy quanta one at a time over distinguishable
particles, optionally capped at a number of levels, and fits an exponential
(Boltzmann) profile to the resulting occupancy histogram.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(VersionString() + "\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperrors.NewConfigError("%v", err)
	})
	root.AddCommand(
		a.newRunCommand(),
		a.newPromptCommand(),
		a.newBatchCommand(),
		a.newServeCommand(),
		a.newVersionCommand(),
	)
	return root
}

// loadConfig applies environment overrides for flags not set on the
// command line, resolves the worker count and validates the result.
func loadConfig(cfg config.AppConfig, fs *pflag.FlagSet) (config.AppConfig, error) {
	config.ApplyEnv(&cfg, fs)
	cfg = config.ResolveWorkers(cfg)
	return cfg, cfg.Validate()
}

// setupOutput applies the colour and logging preferences of cfg.
func (a *Application) setupOutput(cfg config.AppConfig) {
	ui.InitTheme(cfg.NoColor)
	level := cfg.LogLevel
	if cfg.Quiet && level == config.DefaultLogLevel {
		level = "warn"
	}
	if err := logging.SetLevel(level); err != nil {
		a.logger.Error("invalid log level", err)
	}
}
