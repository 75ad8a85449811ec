package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/agbru/canonsim/internal/config"
)

// Question is one prompt shown to the user.
type Question struct {
	Label  string
	Target *string
}

// Questions returns the prompt sequence bound to the fields of in, in the
// order they are asked.
func Questions(in *config.PromptInput) []Question {
	return []Question{
		{"Number of particles", &in.Particles},
		{"Number of energy levels (empty or inf for unbounded)", &in.Levels},
		{"Total energy (quanta)", &in.TotalEnergy},
		{"Number of workers", &in.Workers},
	}
}

// PromptLines asks for the simulation parameters one line at a time. An
// empty answer keeps the value already in cfg; end of input answers every
// remaining question with an empty line.
func PromptLines(r io.Reader, out io.Writer, cfg config.AppConfig) (config.AppConfig, error) {
	var input config.PromptInput
	scanner := bufio.NewScanner(r)
	for _, q := range Questions(&input) {
		fmt.Fprintf(out, "%s: ", q.Label)
		if !scanner.Scan() {
			break
		}
		*q.Target = strings.TrimSpace(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("reading answers: %w", err)
	}
	fmt.Fprintln(out)
	return input.Apply(cfg)
}
