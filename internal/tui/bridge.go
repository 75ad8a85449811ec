package tui

import (
	"io"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agbru/canonsim/internal/orchestration"
	"github.com/agbru/canonsim/internal/progress"
)

// programRef lets goroutines started by commands reach the tea.Program.
// Bubbletea copies the model on every Update, so the pointer is shared.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

func (r *programRef) SetProgram(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Send delivers msg to the program; it is a no-op before SetProgram.
func (r *programRef) Send(msg tea.Msg) {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// ProgressMsg carries aggregated shard progress to the dashboard.
type ProgressMsg struct {
	Average    float64
	ETA        time.Duration
	Generation uint64
}

// TUIProgressReporter forwards runner progress as ProgressMsg.
type TUIProgressReporter struct {
	ref        *programRef
	generation uint64
}

var _ orchestration.ProgressReporter = (*TUIProgressReporter)(nil)

// DisplayProgress implements orchestration.ProgressReporter.
func (t *TUIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan progress.ProgressUpdate, numShards int, _ io.Writer) {
	defer wg.Done()

	agg := orchestration.NewProgressAggregator(numShards)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}
	for update := range progressChan {
		ap := agg.Update(update)
		t.ref.Send(ProgressMsg{Average: ap.AverageProgress, ETA: ap.ETA, Generation: t.generation})
	}
}
