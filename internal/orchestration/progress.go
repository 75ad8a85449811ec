package orchestration

import (
	"time"

	"github.com/agbru/canonsim/internal/format"
	"github.com/agbru/canonsim/internal/progress"
)

// ProgressAggregator folds per-shard progress updates into an overall
// fraction and a remaining-time estimate. The CLI spinner and the TUI
// progress bridge share it.
type ProgressAggregator struct {
	state     *format.ProgressWithETA
	numShards int
}

// NewProgressAggregator returns nil when numShards <= 0.
func NewProgressAggregator(numShards int) *ProgressAggregator {
	if numShards <= 0 {
		return nil
	}
	return &ProgressAggregator{
		state:     format.NewProgressWithETA(numShards),
		numShards: numShards,
	}
}

// AggregatedProgress holds the result of processing a single progress update.
type AggregatedProgress struct {
	ShardIndex      int
	Value           float64
	AverageProgress float64
	ETA             time.Duration
}

// Update processes a single progress update and returns the aggregated result.
func (a *ProgressAggregator) Update(update progress.ProgressUpdate) AggregatedProgress {
	avgProgress, eta := a.state.UpdateWithETA(update.ShardIndex, update.Value)
	return AggregatedProgress{
		ShardIndex:      update.ShardIndex,
		Value:           update.Value,
		AverageProgress: avgProgress,
		ETA:             eta,
	}
}

// CalculateAverage returns the current average without recording an update.
func (a *ProgressAggregator) CalculateAverage() float64 {
	return a.state.CalculateAverage()
}

// GetETA returns the current estimate without recording an update.
func (a *ProgressAggregator) GetETA() time.Duration {
	return a.state.GetETA()
}

// NumShards returns the number of shards being tracked.
func (a *ProgressAggregator) NumShards() int {
	return a.numShards
}

// IsMultiShard reports whether more than one shard is tracked.
func (a *ProgressAggregator) IsMultiShard() bool {
	return a.numShards > 1
}

// DrainChannel discards updates until the channel is closed.
func DrainChannel(progressChan <-chan progress.ProgressUpdate) {
	for range progressChan {
	}
}
