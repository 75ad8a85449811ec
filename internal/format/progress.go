package format

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// maxETA caps displayed estimates; anything longer is noise early in a run.
const maxETA = 24 * time.Hour

// ProgressState tracks the progress of each shard and their average.
type ProgressState struct {
	progresses []float64
	numShards  int
}

// NewProgressState creates a state tracking numShards shards.
func NewProgressState(numShards int) *ProgressState {
	if numShards < 0 {
		numShards = 0
	}
	return &ProgressState{
		progresses: make([]float64, numShards),
		numShards:  numShards,
	}
}

// Update records the progress of one shard. Out-of-range indices are ignored.
func (ps *ProgressState) Update(index int, value float64) {
	if index >= 0 && index < len(ps.progresses) {
		ps.progresses[index] = value
	}
}

// CalculateAverage returns the mean progress across all shards.
func (ps *ProgressState) CalculateAverage() float64 {
	if ps.numShards == 0 {
		return 0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(ps.numShards)
}

// ProgressWithETA extends ProgressState with a smoothed completion rate used
// to estimate the remaining time.
type ProgressWithETA struct {
	*ProgressState
	mu           sync.Mutex
	startTime    time.Time
	lastUpdate   time.Time
	lastProgress float64
	progressRate float64 // fraction per second, exponentially smoothed
}

// NewProgressWithETA creates an ETA-aware progress tracker.
func NewProgressWithETA(numShards int) *ProgressWithETA {
	now := time.Now()
	return &ProgressWithETA{
		ProgressState: NewProgressState(numShards),
		startTime:     now,
		lastUpdate:    now,
	}
}

// UpdateWithETA records a shard update and returns the new average progress
// and remaining-time estimate.
func (p *ProgressWithETA) UpdateWithETA(index int, value float64) (float64, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Update(index, value)
	avg := p.CalculateAverage()

	now := time.Now()
	if elapsed := now.Sub(p.lastUpdate).Seconds(); elapsed > 0 && avg > p.lastProgress {
		rate := (avg - p.lastProgress) / elapsed
		if p.progressRate == 0 {
			p.progressRate = rate
		} else {
			p.progressRate = 0.3*rate + 0.7*p.progressRate
		}
		p.lastUpdate = now
		p.lastProgress = avg
	}
	return avg, p.etaLocked(avg)
}

// GetETA returns the current estimate without recording an update.
func (p *ProgressWithETA) GetETA() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.etaLocked(p.CalculateAverage())
}

func (p *ProgressWithETA) etaLocked(avg float64) time.Duration {
	if p.progressRate <= 0 || avg >= 1 {
		return 0
	}
	eta := time.Duration((1 - avg) / p.progressRate * float64(time.Second))
	return min(eta, maxETA)
}

// ProgressBar renders a bar of the given width for a fraction in [0, 1].
func ProgressBar(progress float64, width int) string {
	progress = min(max(progress, 0), 1)
	filled := int(progress * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// FormatProgressBarWithETA renders "bar  42.0% (ETA 1m5s)".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("%s %5.1f%% (ETA %s)", ProgressBar(progress, width), min(max(progress, 0), 1)*100, FormatETA(eta))
}
