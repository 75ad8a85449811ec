package analysis

import "github.com/agbru/canonsim/internal/simulation"

// LevelCount is one row of a histogram table.
type LevelCount struct {
	Level      int `json:"level"`
	Degeneracy int `json:"degeneracy"`
}

// Summary is the serialisable view of an analysed histogram. Fit parameters
// that are undefined are omitted rather than encoded as NaN, which JSON
// cannot represent.
type Summary struct {
	Histogram  []LevelCount `json:"histogram"`
	MeanEnergy float64      `json:"mean_energy"`
	StdEnergy  float64      `json:"std_energy"`
	Slope      *float64     `json:"slope,omitempty"`
	Intercept  *float64     `json:"intercept,omitempty"`
	Beta       *float64     `json:"beta,omitempty"`
	Alpha      *float64     `json:"alpha,omitempty"`
}

// Summarize pairs a histogram with its fit, listing levels in ascending order.
func Summarize(h simulation.Histogram, fit FitResult) Summary {
	levels := h.Levels()
	rows := make([]LevelCount, len(levels))
	for i, level := range levels {
		rows[i] = LevelCount{Level: level, Degeneracy: h[level]}
	}
	s := Summary{
		Histogram:  rows,
		MeanEnergy: fit.MeanEnergy,
		StdEnergy:  fit.StdEnergy,
	}
	if fit.HasFit() {
		slope, intercept, beta, alpha := fit.Slope, fit.Intercept, fit.Beta(), fit.Alpha()
		s.Slope, s.Intercept, s.Beta, s.Alpha = &slope, &intercept, &beta, &alpha
	}
	return s
}
