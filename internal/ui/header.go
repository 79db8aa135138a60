package ui

import (
	"fmt"
	"strings"

	"github.com/five82/bufeadmin/internal/realtime"
	"github.com/five82/bufeadmin/internal/state"
)

// renderHeader renders the status bar: connection state, order count, the
// last load error and the current toast.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < 100

	parts := []string{
		bg.Render("büfé admin", styles.Logo),
		m.connectionLabel(styles, bg),
		bg.Render(state.CountLabel(len(m.snapshot.Orders)), styles.Text),
	}

	if !compact {
		tabs := make([]string, 0, len(screenOrder))
		for i, s := range screenOrder {
			label := fmt.Sprintf("%d %s", i+1, s.Title())
			if s == m.screen {
				tabs = append(tabs, bg.Render(label, styles.AccentText.Bold(true)))
			} else {
				tabs = append(tabs, bg.Render(label, styles.FaintText))
			}
		}
		parts = append(parts, bg.Join(tabs, " "))
	}

	if err := m.snapshot.LastError; err != nil {
		maxErr := 60
		if compact {
			maxErr = 30
		}
		parts = append(parts,
			bg.Render("HIBA", styles.DangerText)+bg.Space()+
				bg.Render(truncate(err.Error(), maxErr), styles.DangerText))
	}

	if m.toast != "" {
		parts = append(parts, bg.Render("✓ "+m.toast, styles.SuccessText))
	}

	return styles.Header.Width(m.width).MaxHeight(1).Render(bg.Join(parts, "  "))
}

// connectionLabel describes the realtime channel.
func (m Model) connectionLabel(styles Styles, bg BgStyle) string {
	switch m.status {
	case realtime.StatusConnected:
		return bg.Render("● Kapcsolódva", styles.SuccessText)
	case realtime.StatusDisconnected:
		label := bg.Render("● Kapcsolat megszakadt", styles.WarningText)
		if m.reconnect.Attempt > 0 {
			label += bg.Space() + bg.Render(
				fmt.Sprintf("újra %d/%d, %s múlva", m.reconnect.Attempt, realtime.MaxReconnectAttempts, formatDelay(m.reconnect.Delay)),
				styles.MutedText)
		}
		return label
	case realtime.StatusError:
		return bg.Render("● Kapcsolódási hiba", styles.DangerText)
	case realtime.StatusFailed:
		return bg.Render("● Sikertelen kapcsolódás", styles.DangerText) + bg.Space() +
			bg.Render("R: újra", styles.MutedText)
	default:
		return bg.Render("● Kapcsolódás...", styles.WarningText)
	}
}

// renderCommandBar renders the key hints for the current screen.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.screen {
	case ScreenMenu:
		commands = []cmd{
			{"/", "Keresés"},
			{"a", "Új"},
			{"n/p/m", "Név/Ár/Max"},
			{"e", "Elérhető"},
			{"s", "Kisült"},
			{"H", "Hűtve"},
		}
	case ScreenHours:
		closeLabel := "Rendkívüli zárás"
		if m.snapshot.Hours.Bufe.EmergencyClosed {
			closeLabel = "Nyitás"
		}
		commands = []cmd{
			{"o", "Nyitás ideje"},
			{"z", "Zárás ideje"},
			{"E", closeLabel},
		}
	case ScreenLog:
		followLabel := "Megállít"
		if !m.logs.follow {
			followLabel = "Követ"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"L", "Szint"},
			{"g/G", "Eleje/Vége"},
		}
	default:
		commands = []cmd{
			{"f", m.filter.Label()},
			{"enter", "Részletek"},
			{"a", "Tovább"},
			{"c/d/x", "Igazol/Kész/Töröl"},
			{"A", "Archivál"},
			{"X", "Mind archivál"},
		}
	}
	commands = append(commands, cmd{"r", "Frissít"}, cmd{"Tab", "Nézet"}, cmd{"?", "Súgó"})

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	// Add theme indicator
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).MaxHeight(1).Render(strings.Join(segments, sep))
}
