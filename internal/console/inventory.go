package console

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"

	"go-batch-generator/internal/inventory"
	"go-batch-generator/pkg/utils"
)

// maxTreeFilesPerDir bounds the leaves shown under one directory
const maxTreeFilesPerDir = 10

var (
	dirStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
	fileStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#98C379"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))).
		Headers(headers...)
}

func megabytes(n int64) string {
	return fmt.Sprintf("%.2f MB", float64(n)/1024/1024)
}

// RenderInventory formats a directory scan; withTree appends the directory tree
func RenderInventory(r *inventory.Report, withTree bool) string {
	overview := []string{
		titleStyle.Render("Document statistics"),
		"",
		row("Path", r.Root),
		row("Total files", fmt.Sprint(r.TotalFiles)),
		row("Total size", megabytes(r.TotalSize)),
		row("Positive", fmt.Sprint(r.Positive)),
		row("Negative", fmt.Sprint(r.Negative)),
	}
	if r.TotalFiles > 0 {
		overview = append(overview, row("Average size", fmt.Sprintf("%.2f KB", r.AverageSize()/1024)))
	}
	sections := []string{boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, overview...))}

	if len(r.ByFormat) > 0 {
		t := newTable("FORMAT", "COUNT", "SIZE", "PERCENT")
		for _, f := range r.Formats() {
			s := r.ByFormat[f]
			t.Row(f, fmt.Sprint(s.Count), megabytes(s.Size), fmt.Sprintf("%.1f%%", utils.Percent(s.Count, r.TotalFiles)))
		}
		sections = append(sections, titleStyle.Render("Format distribution"), t.Render())
	}

	if len(r.ByCategory) > 0 {
		t := newTable("TYPE", "COUNT", "PERCENT")
		for _, c := range r.Categories() {
			n := r.ByCategory[c]
			t.Row(c, fmt.Sprint(n), fmt.Sprintf("%.1f%%", utils.Percent(n, r.TotalFiles)))
		}
		sections = append(sections, titleStyle.Render("Document types"), t.Render())
	}

	if withTree {
		sections = append(sections, titleStyle.Render("Directory structure"), renderTree(r))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTree groups the sampled files by parent directory
func renderTree(r *inventory.Report) string {
	byDir := map[string][]string{}
	for _, rel := range r.Sample {
		dir := filepath.Dir(rel)
		byDir[dir] = append(byDir[dir], filepath.Base(rel))
	}
	dirs := make([]string, 0, len(byDir))
	for d := range byDir {
		dirs = append(dirs, d)
	}
	slices.Sort(dirs)

	root := tree.Root(dirStyle.Render(filepath.Base(r.Root)))
	for _, d := range dirs {
		names := byDir[d]
		slices.Sort(names)
		if len(names) > maxTreeFilesPerDir {
			names = names[:maxTreeFilesPerDir]
		}
		leaves := make([]any, 0, len(names))
		for _, n := range names {
			leaves = append(leaves, fileStyle.Render(n))
		}
		if d == "." {
			root.Child(leaves...)
			continue
		}
		root.Child(tree.Root(dirStyle.Render(d)).Child(leaves...))
	}
	return boxStyle.Render(root.String())
}

// Check is one line of the environment check
type Check struct {
	Setting string
	OK      bool
	Detail  string
}

// RenderChecks formats the environment check as a table
func RenderChecks(checks []Check) string {
	t := newTable("SETTING", "STATUS", "DETAIL")
	for _, c := range checks {
		status := "ok"
		if !c.OK {
			status = warnStyle.Render("missing")
		}
		t.Row(c.Setting, status, c.Detail)
	}
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Configuration check"), t.Render())
}
