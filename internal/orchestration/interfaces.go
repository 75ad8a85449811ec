package orchestration

import (
	"io"
	"sync"

	"github.com/agbru/canonsim/internal/progress"
)

//go:generate mockgen -destination=mocks/mock_interfaces.go -package=mocks . ProgressReporter

// ProgressReporter displays shard progress. It keeps the runner unaware of
// spinners, bars and other presentation concerns.
type ProgressReporter interface {
	// DisplayProgress consumes progressChan until it is closed, then calls
	// wg.Done. numShards is the number of shards sending updates.
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, numShards int, out io.Writer)
}

// ProgressReporterFunc adapts a function to ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, numShards int, out io.Writer)

// DisplayProgress calls f.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, numShards int, out io.Writer) {
	f(wg, progressChan, numShards, out)
}

// NullProgressReporter drains the channel without displaying anything.
type NullProgressReporter struct{}

// DisplayProgress drains the channel silently.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}
