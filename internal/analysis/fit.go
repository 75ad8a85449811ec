package analysis

import (
	"math"

	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/simulation"
)

// FitResult holds the regression of ln(degeneracy) on level together with
// the energy moments of the histogram. The moments are computed from the
// histogram itself, not from the fitted line.
type FitResult struct {
	// Slope of the log-linear fit (approximately -beta).
	Slope float64 `json:"slope"`
	// Intercept of the log-linear fit (approximately alpha).
	Intercept float64 `json:"intercept"`
	// MeanEnergy is the mean particle level.
	MeanEnergy float64 `json:"mean_energy"`
	// StdEnergy is the population standard deviation of the particle level.
	StdEnergy float64 `json:"std_energy"`
	// Levels is the number of occupied levels that entered the fit.
	Levels int `json:"levels"`
}

// Beta returns the negated slope, the inverse temperature estimate.
func (r FitResult) Beta() float64 { return -r.Slope }

// Alpha returns the intercept.
func (r FitResult) Alpha() float64 { return r.Intercept }

// HasFit reports whether slope and intercept are defined.
func (r FitResult) HasFit() bool {
	return !math.IsNaN(r.Slope) && !math.IsNaN(r.Intercept)
}

// Analyze fits ln(degeneracy) against level by ordinary least squares and
// computes the mean and standard deviation of the energy per particle.
//
// With fewer than two occupied levels it returns a FitUnderdeterminedError
// along with a result whose moments are valid and whose slope and intercept
// are NaN. An empty histogram is a ValidationError. Analyze does not modify h.
func Analyze(h simulation.Histogram) (FitResult, error) {
	mean, std, err := Moments(h)
	if err != nil {
		return FitResult{}, err
	}

	levels := occupiedLevels(h)
	result := FitResult{
		Slope:      math.NaN(),
		Intercept:  math.NaN(),
		MeanEnergy: mean,
		StdEnergy:  std,
		Levels:     len(levels),
	}
	if len(levels) < 2 {
		return result, apperrors.FitUnderdeterminedError{Levels: len(levels)}
	}

	xs := make([]float64, len(levels))
	ys := make([]float64, len(levels))
	for i, level := range levels {
		xs[i] = float64(level)
		ys[i] = math.Log(float64(h[level]))
	}
	slope, intercept, err := LinearFit(xs, ys)
	if err != nil {
		return result, err
	}
	result.Slope = slope
	result.Intercept = intercept
	return result, nil
}

// Moments returns the mean level and the population standard deviation of
// the level, weighting each level by its degeneracy.
func Moments(h simulation.Histogram) (mean, std float64, err error) {
	var total, weighted float64
	for level, count := range h {
		if count < 0 {
			return 0, 0, apperrors.NewValidationError("histogram", "level %d has negative count %d", level, count)
		}
		total += float64(count)
		weighted += float64(level) * float64(count)
	}
	if total == 0 {
		return 0, 0, apperrors.NewValidationError("histogram", "contains no particles")
	}
	mean = weighted / total

	var sumSq float64
	for level, count := range h {
		d := float64(level) - mean
		sumSq += float64(count) * d * d
	}
	return mean, math.Sqrt(sumSq / total), nil
}

// LinearFit returns the ordinary-least-squares line y = slope*x + intercept.
// It fails with a FitUnderdeterminedError when fewer than two distinct x
// values are given.
func LinearFit(xs, ys []float64) (slope, intercept float64, err error) {
	if len(xs) != len(ys) {
		return 0, 0, apperrors.NewValidationError("points", "%d x values but %d y values", len(xs), len(ys))
	}
	n := float64(len(xs))
	if len(xs) < 2 {
		return 0, 0, apperrors.FitUnderdeterminedError{Levels: len(xs)}
	}

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	// Centred sums keep the denominator well conditioned for large levels.
	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	if sxx == 0 {
		return 0, 0, apperrors.FitUnderdeterminedError{Levels: 1}
	}
	slope = sxy / sxx
	return slope, meanY - slope*meanX, nil
}

// occupiedLevels returns the ascending levels with a positive count. Zero
// counts carry no information and would enter the fit as ln(0).
func occupiedLevels(h simulation.Histogram) []int {
	levels := h.Levels()
	occupied := levels[:0]
	for _, level := range levels {
		if h[level] > 0 {
			occupied = append(occupied, level)
		}
	}
	return occupied
}
