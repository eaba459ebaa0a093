package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/alanmeadows/ciplumber/internal/console"
	"github.com/alanmeadows/ciplumber/internal/plumber"
)

var prsCmd = &cobra.Command{
	Use:   "prs",
	Short: "List candidate PRs and their merge decision",
	Long: `List the open PRs a run would process, with the CI failure tags detected
on each and the current merge decision. Nothing is modified.`,
	Example: `  ciplumber prs`,
	Annotations: map[string]string{needsConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		host, err := newHost(appConfig)
		if err != nil {
			return err
		}
		runner, err := plumber.New(appConfig, host, plumber.Options{DryRun: true, Out: io.Discard})
		if err != nil {
			return err
		}
		results, err := runner.Inspect(cmd.Context())
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No open PRs labelled %q from allowed authors.\n", appConfig.Labels.Trigger)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderPRTable(results))
		return nil
	},
}

func renderPRTable(results []plumber.PRResult) *table.Table {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		decision := console.Fail + " " + r.Decision.Summary()
		if r.Decision.Allowed {
			decision = console.OK + " " + r.Decision.Summary()
		}
		failures := strings.Join(r.Tags, ", ")
		if failures == "" {
			failures = "-"
		}
		rows = append(rows, []string{
			"#" + strconv.Itoa(r.Number),
			r.Author,
			truncate(r.Title, 50),
			failures,
			decision,
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PR", "AUTHOR", "TITLE", "CI FAILURES", "DECISION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
