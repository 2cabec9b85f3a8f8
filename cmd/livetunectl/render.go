package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss/v2"

	"github.com/evan-idocoding/livetune/ops"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("86")).
			Padding(0, 1)
)

var columns = []string{"KEY", "KIND", "CURRENT", "DEFAULT", "MIN", "MAX"}

func renderTable(items []ops.TuningItem) string {
	if len(items) == 0 {
		return dimStyle.Render("no variables")
	}

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			it.Category + "/" + it.Name,
			it.Kind.String(),
			formatValue(it.Current),
			formatValue(it.Default),
			formatValue(it.Min),
			formatValue(it.Max),
		})
	}

	widths := make([]int, len(columns))
	for i, h := range columns {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	cols := make([]string, len(columns))
	for i, h := range columns {
		w := widths[i] + 2
		lines := make([]string, 0, len(rows)+1)
		lines = append(lines, headerStyle.Width(w).Render(h))
		for _, row := range rows {
			st := lipgloss.NewStyle()
			switch {
			case row[i] == "-":
				st = dimStyle
			case i == 0:
				st = keyStyle
			}
			lines = append(lines, st.Width(w).Render(row[i]))
		}
		cols[i] = lipgloss.JoinVertical(lipgloss.Left, lines...)
	}
	return boxStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
}

// formatValue renders floats in their shortest round-tripping form; an
// absent bound renders as "-".
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
