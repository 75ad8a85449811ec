package config

import (
	"strconv"
	"strings"

	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/simulation"
)

// PromptInput holds the raw answers of the interactive prompt.
type PromptInput struct {
	Particles   string
	Levels      string
	TotalEnergy string
	Workers     string
}

// Apply parses the answers into cfg. Empty answers keep the current value,
// except Levels where an empty answer or "inf" means unbounded.
func (in PromptInput) Apply(cfg AppConfig) (AppConfig, error) {
	var err error
	if cfg.Particles, err = parseAnswer("particles", in.Particles, cfg.Particles); err != nil {
		return cfg, err
	}
	if cfg.TotalEnergy, err = parseAnswer("total_energy", in.TotalEnergy, cfg.TotalEnergy); err != nil {
		return cfg, err
	}
	if cfg.Workers, err = parseAnswer("workers", in.Workers, cfg.Workers); err != nil {
		return cfg, err
	}
	capacity, err := simulation.ParseCapacity(in.Levels)
	if err != nil {
		return cfg, err
	}
	cfg.Levels = capacity.LevelCount()
	return cfg, nil
}

func parseAnswer(field, answer string, current int) (int, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return current, nil
	}
	v, err := strconv.Atoi(answer)
	if err != nil {
		return current, apperrors.NewValidationError(field, "not an integer: %q", answer)
	}
	return v, nil
}
