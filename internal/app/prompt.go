package app

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/agbru/canonsim/internal/cli"
	"github.com/agbru/canonsim/internal/config"
	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/tui"
)

func (a *Application) newPromptCommand() *cobra.Command {
	cfg := config.Default()
	var plain bool
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Ask for the simulation parameters interactively, then run",
		Long: `prompt asks for the particle count, the number of levels (empty or "inf"
for unbounded), the total energy and the worker count. Flags and
CANONSIM_* variables provide the defaults offered at each question.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config.ApplyEnv(&cfg, cmd.Flags())
			a.setupOutput(cfg)

			var (
				answered config.AppConfig
				err      error
			)
			if !plain && a.interactive() {
				answered, err = tui.Prompt(cfg, a.In, a.Out)
			} else {
				answered, err = cli.PromptLines(a.In, a.Out, cfg)
			}
			if err != nil {
				return exitWith(apperrors.HandleError(err, 0, a.ErrOut, cli.CLIColorProvider{}))
			}

			resolved := config.ResolveWorkers(answered)
			if err := resolved.Validate(); err != nil {
				return err
			}
			return exitWith(a.simulate(cmd.Context(), resolved))
		},
	}
	config.BindFlags(cmd.Flags(), &cfg)
	cmd.Flags().BoolVar(&plain, "plain", false, "use line prompts even on a terminal")
	return cmd
}

// interactive reports whether both ends of the session are a terminal.
func (a *Application) interactive() bool {
	in, ok := a.In.(*os.File)
	if !ok || !term.IsTerminal(int(in.Fd())) {
		return false
	}
	out, ok := a.Out.(*os.File)
	return ok && term.IsTerminal(int(out.Fd()))
}
