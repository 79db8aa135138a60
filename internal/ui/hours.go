package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bufeadmin/internal/bufe"
)

const hourLayout = "15:04"

type hoursFieldMsg struct {
	id    int64
	field string
	value string
}

type hoursSavedMsg struct {
	id    int64
	field string
	prev  string
	err   error
}

type bufeStatusMsg struct {
	closed bool
	prev   bool
	err    error
}

// validHour accepts HH:MM or an empty value, which clears the period.
func validHour(value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(hourLayout, value); err != nil {
		return errors.New("Az időpont formátuma ÓÓ:PP.")
	}
	return nil
}

func (m Model) selectedHours() (bufe.OpeningHours, bool) {
	hours := m.snapshot.Hours.Hours
	if len(hours) == 0 {
		return bufe.OpeningHours{}, false
	}
	return hours[clamp(m.hoursRow, len(hours))], true
}

// handleHoursKey processes keyboard input for the opening hours screen.
func (m Model) handleHoursKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.snapshot.Hours.Hours)

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.hoursRow > 0 {
			m.hoursRow--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.hoursRow < count-1 {
			m.hoursRow++
		}
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.hoursRow = 0
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.hoursRow = maxInt(count-1, 0)
		return m, nil
	case key.Matches(msg, m.keys.ToggleEmergency):
		if !m.snapshot.HasHours {
			return m, nil
		}
		closed := !m.snapshot.Hours.Bufe.EmergencyClosed
		prev := m.store.SetEmergencyClosed(closed)
		refresh := m.refreshView()
		return m, tea.Batch(refresh, m.saveBufeStatusCmd(closed, prev))
	}

	h, ok := m.selectedHours()
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.EditFrom):
		m.modal = hoursForm(h, bufe.FieldFromHour, "Nyitás", h.From)
		return m, textinput.Blink
	case key.Matches(msg, m.keys.EditTo):
		m.modal = hoursForm(h, bufe.FieldToHour, "Zárás", h.To)
		return m, textinput.Blink
	}
	return m, nil
}

func hoursForm(h bufe.OpeningHours, field, label, value string) *formModal {
	return newFormModal(h.WeekdayName()+" "+strings.ToLower(label), func(v []string) (tea.Msg, error) {
		if err := validHour(v[0]); err != nil {
			return nil, err
		}
		return hoursFieldMsg{id: h.ID, field: field, value: v[0]}, nil
	}, newTextField(label, value, "ÓÓ:PP"))
}

// handleHoursField applies the edit locally and saves it.
func (m Model) handleHoursField(msg hoursFieldMsg) (tea.Model, tea.Cmd) {
	prev, err := m.store.SetOpeningHour(msg.id, msg.field, msg.value)
	if err != nil {
		m.logger.Warn("opening hours edit ignored", "id", msg.id, "error", err)
		return m, nil
	}
	refresh := m.refreshView()
	if m.api == nil || prev == msg.value {
		return m, refresh
	}
	api, ctx := m.api, m.ctx
	save := func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		err := api.UpdateOpeningHours(ctx, msg.id, msg.field, msg.value)
		return hoursSavedMsg{id: msg.id, field: msg.field, prev: prev, err: err}
	}
	return m, tea.Batch(refresh, save)
}

func (m Model) handleHoursSaved(msg hoursSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if _, err := m.store.SetOpeningHour(msg.id, msg.field, msg.prev); err != nil {
			m.logger.Warn("revert opening hours failed", "id", msg.id, "error", err)
		}
		m.alert(bufe.OpUpdateOpeningHours, msg.err)
		return m, m.refreshView()
	}
	return m, m.showToast("Nyitvatartás frissítve")
}

func (m Model) saveBufeStatusCmd(closed, prev bool) tea.Cmd {
	if m.api == nil {
		return nil
	}
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		err := api.UpdateBufeStatus(ctx, closed)
		return bufeStatusMsg{closed: closed, prev: prev, err: err}
	}
}

func (m Model) handleBufeStatus(msg bufeStatusMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.store.SetEmergencyClosed(msg.prev)
		m.alert(bufe.OpUpdateBufeStatus, msg.err)
		return m, m.refreshView()
	}
	if msg.closed {
		return m, m.showToast("Büfé zárva jelölve")
	}
	return m, m.showToast("Büfé nyitva jelölve")
}

// renderHours renders the emergency flag and the weekly schedule.
func (m Model) renderHours() string {
	height := m.contentHeight()
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)

	if !m.snapshot.HasHours {
		return m.renderBox(m.screen.Title(), bg.Render("Betöltés...", styles.MutedText), m.width, height)
	}

	var b strings.Builder
	status := m.snapshot.Hours.Bufe
	name := status.Name
	if name == "" {
		name = "Büfé"
	}
	b.WriteString(bg.Render(name, styles.AccentText.Bold(true)))
	b.WriteString(bg.Spaces(2))
	if status.EmergencyClosed {
		b.WriteString(bg.Render("● Rendkívüli zárva", styles.DangerText))
	} else {
		b.WriteString(bg.Render("● Nyitva", styles.SuccessText))
	}
	b.WriteString("\n\n")

	b.WriteString(bg.Render(fit("Nap", 12)+" "+fit("Nyitás", 8)+" "+fit("Zárás", 8), styles.FaintText))
	b.WriteString("\n")

	selected := clamp(m.hoursRow, len(m.snapshot.Hours.Hours))
	for i, h := range m.snapshot.Hours.Hours {
		from, to := h.From, h.To
		if from == "" {
			from = "-"
		}
		if to == "" {
			to = "-"
		}
		line := fit(h.WeekdayName(), 12) + " " + fit(from, 8) + " " + fit(to, 8)
		if h.Closed() {
			line += " zárva"
		}
		style := styles.Text
		switch {
		case i == selected:
			style = styles.Selected
		case h.Closed():
			style = styles.MutedText
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	if len(m.snapshot.Hours.Hours) == 0 {
		b.WriteString(bg.Render("Nincs nyitvatartás megadva", styles.MutedText))
	}
	b.WriteString("\n")
	b.WriteString(bg.Render(fmt.Sprintf("%d időszak", len(m.snapshot.Hours.Hours)), styles.FaintText))
	return m.renderBox(m.screen.Title(), b.String(), m.width, height)
}
