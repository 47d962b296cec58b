package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rshade/synthsales/internal/config"
	"github.com/rshade/synthsales/internal/ledger"
)

// runsListParams holds the flags of the runs list command.
type runsListParams struct {
	limit  int
	output string
}

// runJSON is the JSON form of a ledger run.
type runJSON struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Status     string    `json:"status"`
	Detail     string    `json:"detail,omitempty"`
}

// NewRunsListCmd creates the runs list command, which prints recent runs from the
// run ledger, newest first.
func NewRunsListCmd() *cobra.Command {
	var params runsListParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Example: `  # Last 20 runs
  synthsales runs list

  # Last 5 runs as JSON
  synthsales runs list --limit 5 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return executeRunsList(cmd, params)
		},
	}

	cmd.Flags().IntVar(&params.limit, "limit", ledger.DefaultListLimit, "maximum number of runs to show")
	cmd.Flags().StringVar(&params.output, "output", outputTable, "output format: table or json")

	return cmd
}

func executeRunsList(cmd *cobra.Command, params runsListParams) error {
	if err := validateOutputFormat(params.output); err != nil {
		return err
	}
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)

	l, err := ledger.Open(ctx, cfg.Ledger.Path, logger)
	if err != nil {
		return fmt.Errorf("opening run ledger: %w", err)
	}
	defer l.Close()

	runs, err := l.List(ctx, params.limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if params.output == outputJSON {
		return renderRunsJSON(out, runs)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded")
		return nil
	}
	return renderRunsTable(out, runs, styledOutput(out))
}

func renderRunsJSON(w io.Writer, runs []ledger.Run) error {
	rows := make([]runJSON, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, runJSON{
			ID:         r.ID,
			Command:    r.Command,
			StartedAt:  r.StartedAt.UTC(),
			DurationMS: r.Duration.Milliseconds(),
			Status:     r.Status,
			Detail:     r.Detail,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// Column widths of the runs table.
const (
	runsIDWidth      = 28
	runsCommandWidth = 11
	runsStartWidth   = 21
	runsDurWidth     = 10
	runsStatusWidth  = 11
)

func renderRunsTable(w io.Writer, runs []ledger.Run, styled bool) error {
	header := lipgloss.NewStyle()
	failed := lipgloss.NewStyle()
	if styled {
		header = header.Bold(true).Foreground(lipgloss.Color("39"))
		failed = failed.Foreground(lipgloss.Color("196"))
	}
	col := func(width int) lipgloss.Style { return lipgloss.NewStyle().Width(width) }

	var b strings.Builder
	line := func(style lipgloss.Style, id, command, started, dur, status, detail string) {
		b.WriteString(style.Render(lipgloss.JoinHorizontal(lipgloss.Top,
			col(runsIDWidth).Render(id),
			col(runsCommandWidth).Render(command),
			col(runsStartWidth).Render(started),
			col(runsDurWidth).Render(dur),
			col(runsStatusWidth).Render(status),
			detail,
		)))
		b.WriteString("\n")
	}

	line(header, "ID", "COMMAND", "STARTED", "DURATION", "STATUS", "DETAIL")
	for _, r := range runs {
		style := lipgloss.NewStyle()
		if r.Status != ledger.StatusSucceeded {
			style = failed
		}
		line(style, r.ID, r.Command,
			r.StartedAt.Local().Format(time.DateTime),
			r.Duration.Round(time.Millisecond).String(),
			r.Status, r.Detail)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
