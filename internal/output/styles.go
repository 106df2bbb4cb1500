package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Colors
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	ColorBorder  = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"}
)

// Styles
var (
	TitleStyle       = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	SubtitleStyle    = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	WarningStyle     = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle       = lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
	SuccessStyle     = lipgloss.NewStyle().Foreground(ColorSuccess)
	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).Padding(0, 1)
	TableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	NumericCellStyle = TableCellStyle.Align(lipgloss.Right)
)

// newTable builds a bordered table; columns listed in numeric are right aligned
func newTable(headers []string, rows [][]string, numeric ...int) string {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case right[col]:
				return NumericCellStyle
			default:
				return TableCellStyle
			}
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}
