package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var helpTitles = []string{
	"Nézetek",
	"Mozgás",
	"Rendelések",
	"Termékek",
	"Nyitvatartás",
	"Napló",
	"Általános",
}

// renderHelp renders the help overlay from the key map.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	groups := m.keys.FullHelp()
	sections := make([]helpSection, 0, len(groups))
	for i, group := range groups {
		s := helpSection{}
		if i < len(helpTitles) {
			s.title = helpTitles[i]
		}
		for _, b := range group {
			h := b.Help()
			s.items = append(s.items, helpItem{h.Key, h.Desc})
		}
		sections = append(sections, s)
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Billentyűk"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)

	// Two columns keep the overlay inside short terminals.
	var left, right strings.Builder
	for i, section := range sections {
		col := &left
		if i >= (len(sections)+1)/2 {
			col = &right
		}
		col.WriteString(styles.AccentText.Bold(true).Render(section.title))
		col.WriteString("\n")
		for _, item := range section.items {
			col.WriteString(keyStyle.Render(item.key))
			col.WriteString(styles.Text.Render(item.desc))
			col.WriteString("\n")
		}
		col.WriteString("\n")
	}
	colStyle := lipgloss.NewStyle().Width(38)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		colStyle.Render(strings.TrimRight(left.String(), "\n")),
		colStyle.Render(strings.TrimRight(right.String(), "\n"))))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("Bármely billentyű: bezár"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}
