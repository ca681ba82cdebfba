package console

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"go-batch-generator/internal/model"
	"go-batch-generator/internal/store"
	"go-batch-generator/pkg/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")).
			Width(18)
	warnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

// RenderSummary formats a finished run for the terminal
func RenderSummary(rs model.RunSummary) string {
	requested := rs.Requested.Positive + rs.Requested.Negative
	lines := []string{
		titleStyle.Render("Generation complete"),
		"",
		row("Run", rs.RunID),
		row("Corpus", strings.ToUpper(rs.Corpus)),
		row("Seed", fmt.Sprint(rs.Seed)),
		row("Workers", fmt.Sprint(rs.WorkerCount)),
		row("Output", rs.OutputDir),
		row("Generated", fmt.Sprintf("%d / %d (%.1f%%)", rs.TotalGenerated, requested, utils.Percent(rs.TotalGenerated, requested))),
		row("Positive", fmt.Sprintf("%d / %d", rs.PhaseCounts.Positive, rs.Requested.Positive)),
		row("Negative", fmt.Sprintf("%d / %d", rs.PhaseCounts.Negative, rs.Requested.Negative)),
		row("Errors", fmt.Sprint(rs.Errors)),
		row("Duration", rs.Duration.Round(time.Millisecond).String()),
		row("Rate", fmt.Sprintf("%.1f docs/s", rs.DocsPerSecond)),
	}

	if len(rs.ByFormat) > 0 {
		lines = append(lines, row("Formats", renderCounts(rs.ByFormat)))
	}
	if len(rs.ByCategory) > 0 {
		lines = append(lines, row("Categories", renderCounts(rs.ByCategory)))
	}

	if rs.Degraded() {
		lines = append(lines, "", warnStyle.Render(fmt.Sprintf("%d worker(s) lost, %d item(s) unaccounted", len(rs.LostWorkers), rs.LostItems)))
		for _, lw := range rs.LostWorkers {
			lines = append(lines, fmt.Sprintf("  %s worker %d [%d,%d): %d completed, %d failed, %d lost",
				lw.Phase, lw.WorkerID, lw.Start, lw.End, lw.Completed, lw.Failed, lw.Lost))
		}
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// RenderPrevious formats the persisted totals of an earlier run
func RenderPrevious(rs *model.RunSummary) string {
	if rs == nil {
		return labelStyle.Width(0).Render("No previous generation found")
	}
	lines := []string{
		titleStyle.Render("Found previous generation"),
		row("Run", rs.RunID),
		row("Finished", rs.EndTime.Local().Format(time.DateTime)),
		row("Generated", fmt.Sprint(rs.TotalGenerated)),
		row(strings.ToUpper(rs.Corpus)+" positive", fmt.Sprint(rs.PhaseCounts.Positive)),
		row(strings.ToUpper(rs.Corpus)+" negative", fmt.Sprint(rs.PhaseCounts.Negative)),
		row("Errors", fmt.Sprint(rs.Errors)),
	}
	if rs.LostItems > 0 {
		lines = append(lines, row("Lost items", warnStyle.Render(fmt.Sprint(rs.LostItems))))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// RenderHistory lists recorded runs, newest first
func RenderHistory(runs []store.RunRecord) string {
	if len(runs) == 0 {
		return labelStyle.Width(0).Render("No runs recorded")
	}
	t := newTable("RUN", "CORPUS", "STATUS", "GENERATED", "ERRORS", "LOST", "STARTED")
	for _, r := range runs {
		status := r.Status
		if status == store.StatusDegraded || status == store.StatusFailed {
			status = warnStyle.Render(status)
		}
		t.Row(r.ID, strings.ToUpper(r.Corpus), status,
			fmt.Sprint(r.TotalGenerated), fmt.Sprint(r.Errors), fmt.Sprint(r.LostItems),
			r.CreatedAt.Local().Format(time.DateTime))
	}
	return t.Render()
}

func renderCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}
