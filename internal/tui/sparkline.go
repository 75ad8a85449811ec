package tui

import "math"

// sparklineChars maps values 0..7 to Unicode block elements ▁▂▃▄▅▆▇█.
var sparklineChars = [8]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// SampleWindow keeps the most recent samples of a metric, up to a limit
// that follows the terminal width.
type SampleWindow struct {
	samples []float64
	limit   int
}

// NewSampleWindow returns an empty window holding at most limit samples.
func NewSampleWindow(limit int) *SampleWindow {
	return &SampleWindow{limit: max(limit, 1)}
}

// Push appends v, dropping the oldest sample when the window is full.
func (w *SampleWindow) Push(v float64) {
	w.samples = append(w.samples, v)
	w.trim()
}

// Values returns the samples oldest first. The slice is shared.
func (w *SampleWindow) Values() []float64 { return w.samples }

// Limit is the maximum number of samples kept.
func (w *SampleWindow) Limit() int { return w.limit }

// Last returns the newest sample, or 0 when empty.
func (w *SampleWindow) Last() float64 {
	if len(w.samples) == 0 {
		return 0
	}
	return w.samples[len(w.samples)-1]
}

// Resize changes the limit; shrinking drops the oldest samples.
func (w *SampleWindow) Resize(limit int) {
	w.limit = max(limit, 1)
	w.trim()
}

func (w *SampleWindow) trim() {
	if extra := len(w.samples) - w.limit; extra > 0 {
		w.samples = append(w.samples[:0:0], w.samples[extra:]...)
	}
}

// RenderSparkline maps values in [0, 100] onto the eight block heights.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	runes := make([]rune, len(values))
	for i, v := range values {
		v = min(max(v, 0), 100)
		runes[i] = sparklineChars[min(int(v/100*7), 7)]
	}
	return string(runes)
}

// NormalizeLog rescales ln(v) of positive values onto [0, 100], so that a
// geometric decay renders as a straight ramp. Non-positive values map to 0.
func NormalizeLog(values []float64) []float64 {
	out := make([]float64, len(values))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if v > 0 {
			lo = min(lo, math.Log(v))
			hi = max(hi, math.Log(v))
		}
	}
	if math.IsInf(lo, 1) {
		return out
	}
	for i, v := range values {
		switch {
		case v <= 0:
			out[i] = 0
		case hi == lo:
			out[i] = 100
		default:
			out[i] = (math.Log(v) - lo) / (hi - lo) * 100
		}
	}
	return out
}
