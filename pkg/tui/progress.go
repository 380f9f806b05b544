package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/allstar-tools/asl-addons/pkg/addons"
	"github.com/allstar-tools/asl-addons/pkg/installer"
)

// installProgressMsg wraps an installer.ProgressEvent for Bubble Tea.
type installProgressMsg installer.ProgressEvent

// installCompleteMsg is sent when the run finishes.
type installCompleteMsg struct {
	result *installer.Result
	err    error
}

// installModel is a Bubble Tea model for install progress.
type installModel struct {
	ctx      context.Context
	cancel   context.CancelFunc
	runner   *installer.Runner
	selected []addons.Addon

	spinner      spinner.Model
	progressBar  progress.Model
	events       []installer.ProgressEvent
	progressChan chan installer.ProgressEvent
	result       *installer.Result
	err          error
	done         bool
	quitting     bool

	width  int
	height int
}

func newInstallModel(ctx context.Context, runner *installer.Runner, selected []addons.Addon) installModel {
	runCtx, cancel := context.WithCancel(ctx)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
		progress.WithoutPercentage(),
	)

	return installModel{
		ctx:          runCtx,
		cancel:       cancel,
		runner:       runner,
		selected:     selected,
		spinner:      s,
		progressBar:  p,
		events:       make([]installer.ProgressEvent, 0),
		progressChan: make(chan installer.ProgressEvent, 100),
	}
}

func (m installModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.startInstall(),
		m.waitForProgress(),
	)
}

func (m installModel) startInstall() tea.Cmd {
	return func() tea.Msg {
		cb := func(e installer.ProgressEvent) {
			m.progressChan <- e
		}

		result, err := m.runner.Run(m.ctx, m.selected, cb)
		close(m.progressChan)

		return installCompleteMsg{result: result, err: err}
	}
}

func (m installModel) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.progressChan
		if !ok {
			return nil
		}
		return installProgressMsg(event)
	}
}

func (m installModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = min(msg.Width-10, 60)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			if m.done {
				return m, tea.Quit
			}
			// Let the run wind down and deliver installCompleteMsg.
			return m, nil
		case "enter":
			if m.done {
				return m, tea.Quit
			}
		}

	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd

	case installProgressMsg:
		m.recordEvent(installer.ProgressEvent(msg))
		return m, tea.Batch(
			m.waitForProgress(),
			m.progressBar.SetPercent(float64(msg.Percent)/100.0),
		)

	case installCompleteMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	}

	return m, nil
}

// recordEvent appends the event, or replaces the last one when it is the
// same step reporting fresh detail, so installer output does not flood
// the log.
func (m *installModel) recordEvent(e installer.ProgressEvent) {
	if n := len(m.events); n > 0 {
		last := m.events[n-1]
		if last.Stage == e.Stage && last.Addon == e.Addon && last.Message == e.Message {
			m.events[n-1] = e
			return
		}
	}
	m.events = append(m.events, e)
}

func (m installModel) View() string {
	if m.quitting && !m.done {
		return "\n  Cancelling...\n"
	}

	var s strings.Builder

	header := TitleStyle.Render(" Installing AllStarLink add-ons ")
	s.WriteString("\n")
	s.WriteString(header)
	s.WriteString("\n\n")

	if len(m.events) > 0 {
		lastEvent := m.events[len(m.events)-1]
		percent := lastEvent.Percent
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}

		barView := m.progressBar.ViewAs(float64(percent) / 100.0)
		s.WriteString(progressBarStyle.Render(barView))
		s.WriteString(fmt.Sprintf(" %d%%", percent))
		s.WriteString("\n\n")
	}

	for i, event := range m.events {
		isLast := i == len(m.events)-1 && !m.done

		icon := "  "
		msgStyle := DimStyle

		if event.IsError {
			icon = ErrorStyle.Render("✗ ")
			msgStyle = ErrorStyle
		} else if event.Stage == installer.StageComplete {
			icon = SuccessStyle.Render("✓ ")
			msgStyle = SuccessStyle
		} else if isLast {
			icon = activeStyle.Render("▸ ")
			msgStyle = lipgloss.NewStyle()
		} else {
			icon = SuccessStyle.Render("✓ ")
		}

		s.WriteString("  ")
		s.WriteString(icon)
		s.WriteString(msgStyle.Render(event.Message))
		s.WriteString("\n")

		if event.Command != "" && (isLast || event.IsError) {
			s.WriteString("     ")
			s.WriteString(commandStyle.Render(" " + event.Command))
			s.WriteString("\n")
		}

		if event.Detail != "" && (isLast || event.IsError) {
			s.WriteString("     ")
			s.WriteString(DimStyle.Render(event.Detail))
			s.WriteString("\n")
		}
	}

	if !m.done && len(m.events) > 0 {
		s.WriteString("\n")
		s.WriteString("  ")
		s.WriteString(m.spinner.View())
		s.WriteString(" Working...")
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if m.done {
		s.WriteString(DimStyle.Render("  Press Enter to exit"))
	} else {
		s.WriteString(DimStyle.Render("  Press Ctrl+C to cancel"))
	}
	s.WriteString("\n")

	return s.String()
}

// RunInstall drives an install run inside the progress TUI and returns
// the runner's result once the user exits the view.
func RunInstall(ctx context.Context, runner *installer.Runner, selected []addons.Addon) (*installer.Result, error) {
	m := newInstallModel(ctx, runner, selected)
	defer m.cancel()

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return nil, fmt.Errorf("progress display failed: %w", err)
	}

	fm, ok := final.(installModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}
	if fm.err != nil {
		return nil, fm.err
	}
	if fm.quitting && !fm.done {
		return nil, fmt.Errorf("install cancelled")
	}
	return fm.result, nil
}
