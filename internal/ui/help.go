package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const defaultHelpWidth = 80

// buildHelpText joins key hints with " • ", wrapping to width without
// splitting a hint across lines. Width is measured in terminal cells.
func buildHelpText(items []string, width int) string {
	if len(items) == 0 {
		return ""
	}
	if width <= 0 {
		width = defaultHelpWidth
	}

	const sep = " • "
	sepWidth := ansi.StringWidth(sep)

	var lines []string
	var line strings.Builder
	lineWidth := 0
	for _, item := range items {
		itemWidth := ansi.StringWidth(item)
		if lineWidth > 0 && lineWidth+sepWidth+itemWidth > width {
			lines = append(lines, line.String())
			line.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			line.WriteString(sep)
			lineWidth += sepWidth
		}
		line.WriteString(item)
		lineWidth += itemWidth
	}
	lines = append(lines, line.String())
	return strings.Join(lines, "\n")
}
