package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BgStyle renders segments on one background color. Without it the ANSI
// resets between styled segments leave gaps in the background.
// See: https://github.com/charmbracelet/lipgloss/discussions/78
type BgStyle struct {
	bg    lipgloss.Color
	space string // cached styled space
}

// NewBgStyle creates a background style helper for the given color.
func NewBgStyle(bgColor string) BgStyle {
	bg := lipgloss.Color(bgColor)
	return BgStyle{
		bg:    bg,
		space: lipgloss.NewStyle().Background(bg).Render(" "),
	}
}

// Render renders text with style, including its spaces, on the background.
func (b BgStyle) Render(text string, style lipgloss.Style) string {
	if text == "" {
		return ""
	}
	if !strings.Contains(text, " ") {
		return style.Background(b.bg).Render(text)
	}
	wordStyle := style.Background(b.bg)
	words := strings.Split(text, " ")
	result := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			result = append(result, wordStyle.Render(w))
		} else {
			result = append(result, "")
		}
	}
	return strings.Join(result, b.space)
}

// Space returns a single styled space.
func (b BgStyle) Space() string {
	return b.space
}

// Spaces returns n styled spaces.
func (b BgStyle) Spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Background(b.bg).Render(strings.Repeat(" ", n))
}

// Sep returns a styled separator string.
func (b BgStyle) Sep(sep string) string {
	return lipgloss.NewStyle().Background(b.bg).Render(sep)
}

// Join joins parts with a styled separator.
func (b BgStyle) Join(parts []string, sep string) string {
	return strings.Join(parts, b.Sep(sep))
}

// FillLine pads rendered content to width with the background color.
func (b BgStyle) FillLine(content string, width int) string {
	return lipgloss.NewStyle().Background(b.bg).Width(width).Render(content)
}

// renderBox draws a titled, bordered panel of the given outer size.
func (m Model) renderBox(title, content string, width, height int) string {
	if width < 4 || height < 3 {
		return content
	}
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		BorderBackground(lipgloss.Color(m.theme.Background)).
		Background(lipgloss.Color(m.theme.FocusBg)).
		Width(width - 2).
		Height(height - 2)
	box := border.Render(content)

	if title == "" {
		return box
	}
	// Splice the title into the top border.
	label := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Accent)).
		Background(lipgloss.Color(m.theme.Background)).
		Bold(true).
		Render(" " + title + " ")
	lines := strings.SplitN(box, "\n", 2)
	if len(lines) < 2 || lipgloss.Width(label)+4 > width {
		return box
	}
	top := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.BorderFocus)).
		Background(lipgloss.Color(m.theme.Background))
	rest := width - 3 - lipgloss.Width(label)
	header := top.Render("╭─") + label + top.Render(strings.Repeat("─", rest)+"╮")
	return header + "\n" + lines[1]
}
