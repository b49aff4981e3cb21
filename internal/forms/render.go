package forms

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#6BCB77")).
			MarginBottom(1)
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")).
			Width(12)
	focusedLabelStyle = labelStyle.
				Foreground(lipgloss.Color("#FFD93D")).
				Bold(true)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Italic(true)
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorBlockStyle  = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF6B6B")).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#FF6B6B")).
				Padding(0, 1)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD93D"))
	buttonStyle  = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#444444"))
	focusButton  = buttonStyle.Background(lipgloss.Color("#6BCB77")).Foreground(lipgloss.Color("#000000")).Bold(true)
	pickerStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#6BCB77")).Padding(0, 1)
	requiredMark = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Render("*")
)

// Heading renders a form title.
func Heading(text string) string {
	return titleStyle.Render(text)
}

// Row renders one labelled field. An empty value shows placeholder instead.
func Row(label string, required, focused bool, value, placeholder string) string {
	if required {
		label += requiredMark
	}
	ls := labelStyle
	marker := "  "
	if focused {
		ls = focusedLabelStyle
		marker = "▸ "
	}
	body := valueStyle.Render(value)
	if value == "" {
		body = placeholderStyle.Render(placeholder)
	}
	return marker + ls.Render(label) + " " + body
}

// ErrorBlock renders a boxed error, or nothing when msg is empty.
func ErrorBlock(msg string) string {
	if strings.TrimSpace(msg) == "" {
		return ""
	}
	return errorBlockStyle.Render(msg)
}

// Warning renders an inline warning line.
func Warning(msg string) string {
	return warnStyle.Render(msg)
}

// Muted renders secondary text such as key hints.
func Muted(msg string) string {
	return mutedStyle.Render(msg)
}

// Button renders the submit row.
func Button(label string, focused bool) string {
	if focused {
		return "  " + focusButton.Render(label)
	}
	return "  " + buttonStyle.Render(label)
}

// Stack joins non-empty sections with blank lines between them.
func Stack(sections ...string) string {
	kept := make([]string, 0, len(sections))
	for _, s := range sections {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "\n\n")
}
