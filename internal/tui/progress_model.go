package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/synthsales/internal/engine/batch"
)

// ProgressMsg carries a new batch progress snapshot.
type ProgressMsg batch.ProgressSnapshot

// DoneMsg ends the progress view.
type DoneMsg struct {
	Err error
}

// ProgressModel is the Bubble Tea model for a batched run's progress bar.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type ProgressModel struct {
	title    string
	bar      progress.Model
	snapshot batch.ProgressSnapshot
	width    int
	done     bool
	err      error
	printer  *message.Printer
}

// NewProgressModel creates a progress model with the given title.
func NewProgressModel(title string) ProgressModel {
	m := ProgressModel{
		title:   title,
		bar:     progress.New(progress.WithDefaultGradient()),
		width:   defaultWidth,
		printer: message.NewPrinter(language.English),
	}
	m.bar.Width = barWidth(m.width)
	return m
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = barWidth(msg.Width)
		return m, nil

	case ProgressMsg:
		m.snapshot = batch.ProgressSnapshot(msg)
		return m, m.bar.SetPercent(m.snapshot.Ratio())

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		if b, ok := bar.(progress.Model); ok {
			m.bar = b
		}
		return m, cmd

	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m ProgressModel) View() string {
	s := m.snapshot
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(m.title))
	b.WriteString("\n")
	if m.done {
		b.WriteString(m.bar.ViewAs(s.Ratio()))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")

	b.WriteString(LabelStyle.Render("batches "))
	b.WriteString(ValueStyle.Render(fmt.Sprintf("%d/%d", s.CompletedBatches, s.TotalBatches)))
	if s.FailedBatches > 0 {
		b.WriteString("  ")
		b.WriteString(WarningStyle.Render(fmt.Sprintf("%d failed", s.FailedBatches)))
	}
	b.WriteString(LabelStyle.Render("  rows "))
	b.WriteString(ValueStyle.Render(m.printer.Sprintf("%d", s.ProcessedRows)))
	b.WriteString(LabelStyle.Render("  rate "))
	b.WriteString(ValueStyle.Render(m.printer.Sprintf("%.0f/s", s.RowsPerSecond)))
	if eta := remaining(s); eta > 0 && !m.done {
		b.WriteString(LabelStyle.Render("  eta "))
		b.WriteString(ValueStyle.Render(eta.Round(time.Second).String()))
	}
	b.WriteString("\n")

	if m.done {
		if m.err != nil {
			b.WriteString(ErrorStyle.Render("failed: " + m.err.Error()))
		} else {
			b.WriteString(OKStyle.Render(fmt.Sprintf("done in %s", s.ElapsedTime.Round(time.Millisecond))))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Err returns the error the run finished with, if any.
func (m ProgressModel) Err() error {
	return m.err
}

func remaining(s batch.ProgressSnapshot) time.Duration {
	if s.RowsPerSecond <= 0 || s.ProcessedRows >= s.TotalRows {
		return 0
	}
	secs := float64(s.TotalRows-s.ProcessedRows) / s.RowsPerSecond
	return time.Duration(secs * float64(time.Second))
}

func barWidth(termWidth int) int {
	return max(minBarWidth, min(maxBarWidth, termWidth-barPadding))
}

// ShouldRender reports whether a progress bar should be drawn on f.
func ShouldRender(f *os.File, disabled bool) bool {
	return !disabled && f != nil && term.IsTerminal(int(f.Fd()))
}

// WorkFunc runs the tracked job, calling report after every finished batch.
type WorkFunc func(ctx context.Context, report func(batch.ProgressSnapshot)) error

// RunWithProgress runs work while rendering a progress bar to out and returns
// work's error. Signals are left to the caller's context.
func RunWithProgress(ctx context.Context, out io.Writer, title string, work WorkFunc) error {
	p := tea.NewProgram(
		NewProgressModel(title),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithContext(ctx),
		tea.WithoutSignalHandler(),
	)

	workErr := make(chan error, 1)
	go func() {
		err := work(ctx, func(s batch.ProgressSnapshot) { p.Send(ProgressMsg(s)) })
		p.Send(DoneMsg{Err: err})
		workErr <- err
	}()

	_, runErr := p.Run()
	err := <-workErr
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) && err == nil {
		return fmt.Errorf("rendering progress: %w", runErr)
	}
	return err
}
