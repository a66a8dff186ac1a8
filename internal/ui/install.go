// Package ui provides the install progress view.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/aayushdutt/mcinstall/internal/download"
	"github.com/aayushdutt/mcinstall/internal/install"
)

type stepStatus int

const (
	stepPending stepStatus = iota
	stepRunning
	stepDone
	stepFailed
)

var stepIcons = map[stepStatus]string{
	stepPending: "○",
	stepRunning: "◐",
	stepDone:    "✓",
	stepFailed:  "✗",
}

type installKeyMap struct {
	Stop key.Binding
	Quit key.Binding
}

func defaultInstallKeyMap() installKeyMap {
	return installKeyMap{
		Stop: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc", "stop"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "stop"),
		),
	}
}

// helpItems renders bindings as "[key] desc" hints
func helpItems(bindings ...key.Binding) []string {
	items := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		items = append(items, fmt.Sprintf("[%s] %s", h.Key, h.Desc))
	}
	return items
}

type stepInfo struct {
	stage  install.Stage
	name   string
	status stepStatus
}

// InstallModel shows the progress of one install task
type InstallModel struct {
	task  *install.Task
	ctx   context.Context
	stats func() download.Stats

	updates chan install.Progress
	done    chan InstallDone
	keys    installKeyMap

	width    int
	progress progress.Model
	spinner  spinner.Model
	steps    []stepInfo
	current  install.Progress
	started  time.Time
	stopping bool

	finished bool
	result   *install.Result
	err      error
}

// NewInstallModel creates a view that starts and follows task. stats may
// be nil; when set it feeds the transfer line.
func NewInstallModel(ctx context.Context, task *install.Task, stats func() download.Stats) *InstallModel {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
	)
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	m := &InstallModel{
		task:     task,
		ctx:      ctx,
		stats:    stats,
		updates:  make(chan install.Progress, 64),
		done:     make(chan InstallDone, 1),
		keys:     defaultInstallKeyMap(),
		progress: p,
		spinner:  s,
	}

	labels := []struct {
		stage install.Stage
		name  string
	}{
		{install.StageResolve, "Resolving version"},
		{install.StagePersist, "Saving version document"},
		{install.StageClient, "Client jar"},
		{install.StageLibraries, "Libraries"},
		{install.StageAssetIndex, "Asset index"},
		{install.StageAssets, "Assets"},
	}
	for _, l := range labels {
		if l.stage == install.StagePersist && task.Request().VerifyOnly {
			continue
		}
		m.steps = append(m.steps, stepInfo{stage: l.stage, name: l.name})
	}

	task.OnProgress(func(p install.Progress) {
		// Advisory: drop updates rather than stall the workers.
		select {
		case m.updates <- p:
		default:
		}
	})
	task.OnFinished(func(r *install.Result) {
		m.done <- InstallDone{Result: r}
	})
	task.OnError(func(err error) {
		m.done <- InstallDone{Result: task.Result(), Error: err}
	})
	return m
}

// Result returns the task result once the view is finished
func (m *InstallModel) Result() (*install.Result, error) {
	return m.result, m.err
}

// SetSize updates dimensions
func (m *InstallModel) SetSize(width, height int) {
	m.width = width
	m.progress.Width = max(width-10, 10)
}

// Init implements tea.Model
func (m *InstallModel) Init() tea.Cmd {
	m.started = time.Now()
	return tea.Batch(
		m.spinner.Tick,
		m.start(),
		m.waitForProgress(),
	)
}

func (m *InstallModel) start() tea.Cmd {
	return func() tea.Msg {
		return taskStarted{Error: m.task.Start(m.ctx)}
	}
}

// waitForProgress waits for the next notification or the end of the task
func (m *InstallModel) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-m.updates:
			return ProgressUpdate{Progress: p}
		case d := <-m.done:
			return d
		}
	}
}

// Update implements tea.Model
func (m *InstallModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case taskStarted:
		if msg.Error != nil {
			return m.finish(InstallDone{Error: msg.Error})
		}
		return m, nil

	case ProgressUpdate:
		m.current = msg.Progress
		m.updateSteps(msg.Progress.Stage)
		cmd := m.progress.SetPercent(msg.Progress.Fraction())
		return m, tea.Batch(cmd, m.waitForProgress())

	case InstallDone:
		return m.finish(msg)

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Stop, m.keys.Quit) {
			if m.finished {
				return m, tea.Quit
			}
			if !m.stopping {
				m.stopping = true
				m.task.Stop()
			}
			return m, nil
		}
	}

	return m, nil
}

func (m *InstallModel) finish(d InstallDone) (tea.Model, tea.Cmd) {
	m.finished = true
	m.result = d.Result
	m.err = d.Error

	for i := range m.steps {
		if m.steps[i].status == stepRunning {
			if d.Error != nil && !errors.Is(d.Error, install.ErrStopped) {
				m.steps[i].status = stepFailed
			} else if d.Error == nil {
				m.steps[i].status = stepDone
			}
		}
	}
	if d.Error == nil {
		return m, tea.Sequence(m.progress.SetPercent(1), tea.Quit)
	}
	return m, tea.Quit
}

func (m *InstallModel) updateSteps(stage install.Stage) {
	seen := false
	for i := range m.steps {
		switch {
		case m.steps[i].stage == stage:
			m.steps[i].status = stepRunning
			seen = true
		case !seen:
			m.steps[i].status = stepDone
		}
	}
}

// View implements tea.Model
func (m *InstallModel) View() string {
	verb := "Installing"
	if m.task.Request().VerifyOnly {
		verb = "Verifying"
	}
	header := TitleStyle.Render(fmt.Sprintf("%s %s", verb, m.task.Request().VersionID))

	var stepsView strings.Builder
	for _, step := range m.steps {
		icon := stepIcons[step.status]
		if step.status == stepRunning && !m.finished {
			icon = m.spinner.View()
		}
		line := fmt.Sprintf("%s %s", icon, step.name)
		if step.status == stepRunning && m.current.Stage == step.stage && m.current.Total > 0 {
			line += fmt.Sprintf(" (%s/%s)", humanize.Comma(int64(m.current.Done)), humanize.Comma(int64(m.current.Total)))
		}
		stepsView.WriteString(stepStyles[step.status].Render(line))
		stepsView.WriteString("\n")
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"",
		m.progress.View(),
		"",
		stepsView.String(),
		m.statusLine(),
		m.footer(),
	)
}

func (m *InstallModel) statusLine() string {
	var parts []string
	if item := m.current.Item; item != "" && !m.finished {
		parts = append(parts, item)
	}
	if m.stats != nil {
		s := m.stats()
		elapsed := time.Since(m.started).Seconds()
		speed := 0.0
		if elapsed > 0 {
			speed = float64(s.Bytes) / elapsed
		}
		parts = append(parts, fmt.Sprintf("%s • %s", humanize.Bytes(uint64(s.Bytes)), download.FormatSpeed(speed)))
	}
	line := strings.Join(parts, "  ")
	if m.width > 0 {
		line = ansi.Truncate(line, m.width, "…")
	}
	return SubtleStyle.Render(line)
}

func (m *InstallModel) footer() string {
	switch {
	case m.finished && m.err == nil:
		summary := ""
		if m.result != nil {
			summary = m.result.Summary()
		}
		return SuccessStyle.Render("\n✓ Done") + "\n" + SubtleStyle.Render(summary)
	case m.finished && errors.Is(m.err, install.ErrStopped):
		return WarningStyle.Render("\n■ Stopped")
	case m.finished:
		return ErrorStyle.Render(fmt.Sprintf("\n✗ Failed: %v", m.err))
	case m.stopping:
		return WarningStyle.Render("\nStopping after the current downloads...")
	}
	return HelpStyle.Render("\n" + buildHelpText(helpItems(m.keys.Stop, m.keys.Quit), m.width))
}
