package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/canonsim/internal/analysis"
	"github.com/agbru/canonsim/internal/cli"
	"github.com/agbru/canonsim/internal/config"
	apperrors "github.com/agbru/canonsim/internal/errors"
	"github.com/agbru/canonsim/internal/format"
	"github.com/agbru/canonsim/internal/metrics"
	"github.com/agbru/canonsim/internal/orchestration"
	"github.com/agbru/canonsim/internal/simulation"
)

const (
	tickInterval   = 500 * time.Millisecond
	historyLen     = 60
	maxBarRows     = 12
	minPanelWidth  = 40
	barLabelWidth  = 18
	defaultColumns = 80
	sparkOverhead  = 30
)

// TickMsg drives host sampling.
type TickMsg time.Time

// SysStatsMsg carries a host sample.
type SysStatsMsg struct {
	System metrics.SystemStats
	Memory metrics.MemorySnapshot
}

// RunCompleteMsg carries the outcome of a run.
type RunCompleteMsg struct {
	Result     orchestration.Result
	Fit        analysis.FitResult
	FitErr     error
	Err        error
	Generation uint64
}

// ContextCancelledMsg reports that the parent context ended.
type ContextCancelledMsg struct {
	Err        error
	Generation uint64
}

// DashboardModel runs one simulation and displays its progress and result.
type DashboardModel struct {
	cfg       config.AppConfig
	keymap    KeyMap
	ref       *programRef
	parentCtx context.Context
	ctx       context.Context
	cancel    context.CancelFunc

	generation uint64
	start      time.Time
	elapsed    time.Duration
	progress   float64
	eta        time.Duration
	cpu        *SampleWindow
	mem        *SampleWindow
	heap       uint64

	done     bool
	result   RunCompleteMsg
	exitCode int
	width    int
}

// NewDashboardModel prepares a dashboard for cfg; the run starts in Init.
func NewDashboardModel(parentCtx context.Context, cfg config.AppConfig) DashboardModel {
	ctx, cancel := context.WithCancel(parentCtx)
	return DashboardModel{
		cfg:       cfg,
		keymap:    DefaultKeyMap(),
		ref:       &programRef{},
		parentCtx: parentCtx,
		ctx:       ctx,
		cancel:    cancel,
		start:     time.Now(),
		cpu:       NewSampleWindow(historyLen),
		mem:       NewSampleWindow(historyLen),
		width:     defaultColumns,
	}
}

// Init starts the run, the sampling ticker and the context watcher.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		startRunCmd(m.ctx, m.ref, m.cfg, m.generation),
		watchContextCmd(m.ctx, m.generation),
	)
}

// Update handles keys, progress, samples and completion.
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = max(msg.Width, minPanelWidth)
		m.cpu.Resize(sparkWidth(m.width))
		m.mem.Resize(sparkWidth(m.width))
		return m, nil

	case ProgressMsg:
		if msg.Generation == m.generation && !m.done {
			m.progress = msg.Average
			m.eta = msg.ETA
		}
		return m, nil

	case TickMsg:
		if !m.done {
			m.elapsed = time.Since(m.start)
		}
		return m, tea.Batch(sampleCmd(), tickCmd())

	case SysStatsMsg:
		m.cpu.Push(msg.System.CPUPercent)
		m.mem.Push(msg.System.MemPercent)
		m.heap = msg.Memory.HeapAlloc
		return m, nil

	case RunCompleteMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.done = true
		m.result = msg
		m.elapsed = time.Since(m.start)
		m.exitCode = apperrors.ExitCode(msg.Err)
		if msg.Err == nil {
			m.progress = 1
		}
		return m, nil

	case ContextCancelledMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.done = true
		m.exitCode = apperrors.ExitCode(msg.Err)
		return m, tea.Quit
	}
	return m, nil
}

func (m DashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Rerun):
		m.cancel()
		m.generation++
		m.ctx, m.cancel = context.WithCancel(m.parentCtx)
		m.start = time.Now()
		m.elapsed = 0
		m.progress, m.eta = 0, 0
		m.done = false
		m.result = RunCompleteMsg{}
		m.exitCode = apperrors.ExitSuccess
		return m, tea.Batch(
			startRunCmd(m.ctx, m.ref, m.cfg, m.generation),
			watchContextCmd(m.ctx, m.generation),
		)
	}
	return m, nil
}

// sparkWidth is the number of samples that fit beside the CPU and MEM
// labels and readings.
func sparkWidth(columns int) int {
	return min(max(columns-sparkOverhead, 10), historyLen*2)
}

// View renders the dashboard.
func (m DashboardModel) View() string {
	inner := m.width - 4
	var b strings.Builder

	status := dimStyle.Render("running")
	switch {
	case m.done && m.result.Err != nil:
		status = errorStyle.Render("failed")
	case m.done:
		status = successStyle.Render("done")
	}
	fmt.Fprintf(&b, "%s  %s  %s\n", titleStyle.Render("canonsim"), labelStyle.Render(m.cfg.String()), status)
	fmt.Fprintf(&b, "Elapsed %s\n\n", format.FormatExecutionDuration(m.elapsed))

	barWidth := max(inner-30, 10)
	fmt.Fprintf(&b, "%s\n", format.FormatProgressBarWithETA(m.progress, m.eta, barWidth))
	fmt.Fprintf(&b, "CPU %s %5.1f%%\n", RenderSparkline(m.cpu.Values()), m.cpu.Last())
	fmt.Fprintf(&b, "MEM %s %5.1f%%  heap %s\n", RenderSparkline(m.mem.Values()), m.mem.Last(), format.FormatBytes(m.heap))

	if m.done {
		b.WriteString("\n")
		if m.result.Err != nil {
			b.WriteString(errorStyle.Render(m.result.Err.Error()) + "\n")
		} else {
			b.WriteString(renderHistogram(m.result.Result.Histogram, inner))
			if apperrors.IsFitUnderdetermined(m.result.FitErr) {
				b.WriteString(errorStyle.Render(m.result.FitErr.Error()) + "\n")
			}
			b.WriteString(successStyle.Render(cli.FormatFitSummary(m.result.Fit)) + "\n")
		}
	}

	b.WriteString("\n" + helpLine(m.keymap.Rerun, m.keymap.Quit))
	return panelStyle.Width(inner).Render(b.String())
}

// renderHistogram draws one bar per level, longest for the most populated
// level, followed by the log-scaled decay profile.
func renderHistogram(h simulation.Histogram, width int) string {
	levels := h.Levels()
	if len(levels) == 0 {
		return ""
	}
	peak := 0
	counts := make([]float64, len(levels))
	for i, level := range levels {
		peak = max(peak, h[level])
		counts[i] = float64(h[level])
	}

	barMax := max(width-barLabelWidth, 1)
	var b strings.Builder
	for i, level := range levels {
		if i == maxBarRows {
			fmt.Fprintf(&b, "%s\n", dimStyle.Render(fmt.Sprintf("… %d more levels", len(levels)-maxBarRows)))
			break
		}
		n := max(h[level]*barMax/peak, 1)
		fmt.Fprintf(&b, "%4d %11s %s\n", level, format.FormatCount(h[level]), barStyle.Render(strings.Repeat("█", n)))
	}
	profile := RenderSparkline(NormalizeLog(counts))
	if lipgloss.Width(profile) > width {
		profile = string([]rune(profile)[:width])
	}
	fmt.Fprintf(&b, "ln g(E) %s\n", profile)
	return b.String()
}

// ExitCode returns the status of the last run.
func (m DashboardModel) ExitCode() int { return m.exitCode }

// startRunCmd runs cfg under its timeout and reports the outcome tagged
// with gen.
func startRunCmd(ctx context.Context, ref *programRef, cfg config.AppConfig, gen uint64) tea.Cmd {
	return func() tea.Msg {
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
		runner := orchestration.NewRunner(
			orchestration.WithProgress(&TUIProgressReporter{ref: ref, generation: gen}, io.Discard),
		)
		res, err := runner.Run(ctx, orchestration.Request{
			Params:       cfg.Params(),
			Workers:      cfg.Workers,
			Seed:         cfg.Seed,
			ShardTimeout: cfg.ShardTimeout,
		})
		if err != nil {
			return RunCompleteMsg{Err: err, Generation: gen}
		}
		fit, fitErr := analysis.Analyze(res.Histogram)
		return RunCompleteMsg{Result: res, Fit: fit, FitErr: fitErr, Generation: gen}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func sampleCmd() tea.Cmd {
	return func() tea.Msg {
		return SysStatsMsg{System: metrics.SampleSystem(), Memory: metrics.ReadMemory()}
	}
}

func watchContextCmd(ctx context.Context, gen uint64) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ContextCancelledMsg{Err: ctx.Err(), Generation: gen}
	}
}

// Run shows the dashboard on the alternate screen until the user quits and
// returns the exit code of the last run.
func Run(ctx context.Context, cfg config.AppConfig) int {
	initStyles()

	model := NewDashboardModel(ctx, cfg)
	defer model.cancel()

	p := tea.NewProgram(model, tea.WithAltScreen())
	model.ref.SetProgram(p)

	final, err := p.Run()
	if err != nil {
		return apperrors.ExitErrorGeneric
	}
	if m, ok := final.(DashboardModel); ok {
		m.cancel()
		return m.ExitCode()
	}
	return apperrors.ExitSuccess
}
