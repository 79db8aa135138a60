package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bufeadmin/internal/bufe"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// updateModal forwards msg to the open modal.
func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd, closed := m.modal.Update(msg, m.keys)
	if closed {
		if f, ok := m.modal.(*formModal); ok && f.keepOpen {
			// A late response to a cancelled add is ignored.
			m.addPending = false
		}
		m.modal = nil
	} else {
		m.modal = next
	}
	return m, cmd
}

// renderModal centers the open modal over the screen.
func (m Model) renderModal() string {
	width := minInt(m.width-4, 72)
	content := m.modal.View(m.theme, width, m.height)
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		content,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

func modalFrame(width int, accent string) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(accent)).
		Padding(1, 2).
		Width(maxInt(width, 20))
}

func modalTitle(theme Theme, title string) string {
	return theme.Styles().AccentText.Bold(true).Render(title)
}

func modalHint(theme Theme, hint string) string {
	return theme.Styles().FaintText.Render(hint)
}

// alertModal shows a message until dismissed.
type alertModal struct {
	title   string
	message string
	danger  bool
}

func (a *alertModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(km, keys.Confirm) || key.Matches(km, keys.Cancel) {
			return a, nil, true
		}
	}
	return a, nil, false
}

func (a *alertModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	accent := theme.Accent
	body := styles.Text.Render(a.message)
	if a.danger {
		accent = theme.Danger
		body = styles.DangerText.Render(a.message)
	}
	content := modalTitle(theme, a.title) + "\n\n" + body + "\n\n" + modalHint(theme, "enter/esc: bezár")
	return modalFrame(width, accent).Render(content)
}

// confirmModal asks before running onConfirm.
type confirmModal struct {
	title     string
	message   string
	onConfirm tea.Cmd
}

func (c *confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Confirm):
			return c, c.onConfirm, true
		case key.Matches(km, keys.Cancel):
			return c, nil, true
		}
	}
	return c, nil, false
}

func (c *confirmModal) View(theme Theme, width, height int) string {
	content := modalTitle(theme, c.title) + "\n\n" +
		theme.Styles().Text.Render(c.message) + "\n\n" +
		modalHint(theme, "enter: igen  esc: mégse")
	return modalFrame(width, theme.Warning).Render(content)
}

// orderDetailModal shows one order with its items.
type orderDetailModal struct {
	order bufe.Order
}

func (d *orderDetailModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(km, keys.Confirm) || key.Matches(km, keys.Cancel) || key.Matches(km, keys.Detail) {
			return d, nil, true
		}
	}
	return d, nil, false
}

func (d *orderDetailModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	o := d.order
	inner := maxInt(width-6, 30)

	var b strings.Builder
	b.WriteString(modalTitle(theme, fmt.Sprintf("Rendelés #%d", o.ID)))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(styles.MutedText.Render(padRight(label, 12)))
		b.WriteString(styles.Text.Render(value))
		b.WriteString("\n")
	}
	row("Vásárló", o.User.FullName)
	row("Email", o.User.Email)
	row("Leadva", bufe.FormatTimestamp(o.PlacedAt))
	if o.ScheduledAt != "" {
		row("Időzítve", bufe.FormatTimestamp(o.ScheduledAt))
	}
	b.WriteString(styles.MutedText.Render(padRight("Állapot", 12)))
	b.WriteString(styles.StatusStyle(o.Status).Render(o.Label()))
	b.WriteString("\n")
	if note := strings.TrimSpace(o.Note); note != "" {
		row("Megjegyzés", note)
	}

	b.WriteString("\n")
	b.WriteString(styles.AccentText.Render("Tételek"))
	b.WriteString("\n")

	qty, unit, total := 8, 10, 10
	name := maxInt(inner-qty-unit-total-3, 8)
	b.WriteString(styles.FaintText.Render(
		fit("Termék", name) + " " + padLeft("Mennyiség", qty) + " " + padLeft("Egységár", unit) + " " + padLeft("Összeg", total)))
	b.WriteString("\n")
	for _, it := range o.Items {
		b.WriteString(styles.Text.Render(
			fit(it.ProductName, name) + " " +
				padLeft(fmt.Sprintf("%d db", it.Quantity), qty) + " " +
				padLeft(formatPrice(it.UnitPrice), unit) + " " +
				padLeft(formatPrice(it.LineTotal), total)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.SuccessText.Render("Végösszeg: " + formatPrice(o.Total)))
	b.WriteString("\n\n")
	b.WriteString(modalHint(theme, "enter/esc: bezár"))

	return modalFrame(width, theme.Accent).Render(b.String())
}

// fieldKind selects how a form field is edited.
type fieldKind int

const (
	fieldText fieldKind = iota
	fieldBool
)

type formField struct {
	label string
	kind  fieldKind
	input textinput.Model
	on    bool
}

func newTextField(label, value, placeholder string) formField {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = 120
	ti.SetValue(value)
	return formField{label: label, kind: fieldText, input: ti}
}

func newBoolField(label string, on bool) formField {
	return formField{label: label, kind: fieldBool, on: on}
}

func (f formField) value() string {
	if f.kind == fieldBool {
		return yesNo(f.on)
	}
	return strings.TrimSpace(f.input.Value())
}

// formModal edits a few fields and turns them into a message on submit.
// submit validates; its error is shown inline and the form stays open.
type formModal struct {
	title  string
	fields []formField
	focus  int
	submit func(values []string) (tea.Msg, error)

	// keepOpen leaves the form up after submit until the owner closes it.
	keepOpen bool
	pending  bool
	err      string
}

func newFormModal(title string, submit func([]string) (tea.Msg, error), fields ...formField) *formModal {
	f := &formModal{title: title, fields: fields, submit: submit}
	f.setFocus(0)
	return f
}

func (f *formModal) setFocus(i int) {
	f.focus = clamp(i, len(f.fields))
	for j := range f.fields {
		if f.fields[j].kind != fieldText {
			continue
		}
		if j == f.focus {
			f.fields[j].input.Focus()
		} else {
			f.fields[j].input.Blur()
		}
	}
}

func (f *formModal) values() []string {
	out := make([]string, len(f.fields))
	for i, field := range f.fields {
		out[i] = field.value()
	}
	return out
}

// fail shows err and re-enables submit.
func (f *formModal) fail(err string) {
	f.pending = false
	f.err = err
}

func (f *formModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		if len(f.fields) > 0 && f.fields[f.focus].kind == fieldText {
			var cmd tea.Cmd
			f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
			return f, cmd, false
		}
		return f, nil, false
	}

	switch {
	case key.Matches(km, keys.Cancel):
		return f, nil, true
	case key.Matches(km, keys.Confirm):
		if f.pending {
			return f, nil, false
		}
		out, err := f.submit(f.values())
		if err != nil {
			f.err = err.Error()
			return f, nil, false
		}
		f.err = ""
		cmd := func() tea.Msg { return out }
		if f.keepOpen {
			f.pending = true
			return f, cmd, false
		}
		return f, cmd, true
	case key.Matches(km, keys.NextField):
		f.setFocus((f.focus + 1) % maxInt(len(f.fields), 1))
		return f, nil, false
	case key.Matches(km, keys.PrevField):
		f.setFocus((f.focus - 1 + len(f.fields)) % maxInt(len(f.fields), 1))
		return f, nil, false
	}

	if len(f.fields) == 0 {
		return f, nil, false
	}
	field := &f.fields[f.focus]
	if field.kind == fieldBool {
		if km.String() == " " {
			field.on = !field.on
		}
		return f, nil, false
	}
	var cmd tea.Cmd
	field.input, cmd = field.input.Update(km)
	return f, cmd, false
}

func (f *formModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(modalTitle(theme, f.title))
	b.WriteString("\n\n")

	for i, field := range f.fields {
		label := styles.MutedText.Render(padRight(field.label, 16))
		marker := "  "
		if i == f.focus {
			marker = styles.AccentText.Render("› ")
		}
		b.WriteString(marker + label)
		if field.kind == fieldBool {
			box := "[ ]"
			if field.on {
				box = "[x]"
			}
			b.WriteString(styles.Text.Render(box))
		} else {
			b.WriteString(field.input.View())
		}
		b.WriteString("\n")
	}

	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(f.err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	hint := "enter: mentés  tab: következő mező  space: kapcsoló  esc: mégse"
	if f.pending {
		hint = "Mentés folyamatban..."
	}
	b.WriteString(modalHint(theme, hint))

	return modalFrame(width, theme.Accent).Render(b.String())
}

// minInt returns the smaller of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
