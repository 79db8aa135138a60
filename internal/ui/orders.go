package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bufeadmin/internal/bufe"
	"github.com/five82/bufeadmin/internal/realtime"
	"github.com/five82/bufeadmin/internal/state"
)

// orderAction is an operator action on one order.
type orderAction int

const (
	actionConfirm orderAction = iota // confirm, undo and restore all target visszaigasolva
	actionDone
	actionDelete
	actionArchive
)

type orderActionDef struct {
	action orderAction
	label  string
	target string // empty for archive
}

// actionsByStatus lists what is offered for an order in each status.
var actionsByStatus = map[string][]orderActionDef{
	bufe.StatusPlaced: {
		{actionConfirm, "Visszaigazol", bufe.StatusConfirmed},
		{actionDelete, "Töröl", bufe.StatusDeleted},
	},
	bufe.StatusConfirmed: {
		{actionDone, "Kész", bufe.StatusHandedOut},
		{actionDelete, "Töröl", bufe.StatusDeleted},
	},
	bufe.StatusHandedOut: {
		{actionConfirm, "Visszavon", bufe.StatusConfirmed},
		{actionArchive, "Archivál", ""},
	},
	bufe.StatusDeleted: {
		{actionConfirm, "Visszaállít", bufe.StatusConfirmed},
		{actionArchive, "Archivál", ""},
	},
	bufe.StatusWithdrawn: {
		{actionConfirm, "Visszaállít", bufe.StatusConfirmed},
		{actionArchive, "Archivál", ""},
	},
}

func findAction(status string, action orderAction) (orderActionDef, bool) {
	for _, def := range actionsByStatus[status] {
		if def.action == action {
			return def, true
		}
	}
	return orderActionDef{}, false
}

type orderActionMsg struct {
	op      string
	orderID int64
	order   bufe.Order
	err     error
}

type archiveAllMsg struct {
	count int
	err   error
}

func (m Model) visibleOrders() []bufe.Order {
	return state.VisibleOrders(m.snapshot.Orders, m.filter)
}

func (m Model) selectedOrder() (bufe.Order, bool) {
	orders := m.visibleOrders()
	if len(orders) == 0 {
		return bufe.Order{}, false
	}
	return orders[clamp(m.orderRow, len(orders))], true
}

// handleOrdersKey processes keyboard input for the orders screen.
func (m Model) handleOrdersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.visibleOrders())

	switch {
	case key.Matches(msg, m.keys.CycleFilter):
		m.filter = m.filter.Next()
		m.orderRow = 0
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.CycleFilterBack):
		m.filter = m.filter.Prev()
		m.orderRow = 0
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.orderRow > 0 {
			m.orderRow--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.orderRow < count-1 {
			m.orderRow++
		}
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.orderRow = 0
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.orderRow = maxInt(count-1, 0)
		return m, nil
	case key.Matches(msg, m.keys.ArchiveAllDone):
		m.modal = &confirmModal{
			title:   "Átadott rendelések archiválása",
			message: "Biztosan archiválod az összes átadott rendelést?",
			onConfirm: m.archiveAllCmd(),
		}
		return m, nil
	}

	order, ok := m.selectedOrder()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Detail):
		m.modal = &orderDetailModal{order: order}
		return m, nil
	case key.Matches(msg, m.keys.Advance):
		next, ok := order.NextStatus()
		if !ok {
			return m, nil
		}
		return m, m.updateOrderCmd(order.ID, next)
	case key.Matches(msg, m.keys.ConfirmOrder):
		return m, m.runOrderAction(order, actionConfirm)
	case key.Matches(msg, m.keys.DoneOrder):
		return m, m.runOrderAction(order, actionDone)
	case key.Matches(msg, m.keys.DeleteOrder):
		return m, m.runOrderAction(order, actionDelete)
	case key.Matches(msg, m.keys.ArchiveOrder):
		return m, m.runOrderAction(order, actionArchive)
	}
	return m, nil
}

// runOrderAction issues action for order when its status offers it.
func (m Model) runOrderAction(order bufe.Order, action orderAction) tea.Cmd {
	def, ok := findAction(order.Status, action)
	if !ok {
		return nil
	}
	if def.action == actionArchive {
		return m.archiveOrderCmd(order.ID)
	}
	return m.updateOrderCmd(order.ID, def.target)
}

func (m Model) updateOrderCmd(id int64, status string) tea.Cmd {
	if m.api == nil {
		return nil
	}
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		order, err := api.UpdateOrderStatus(ctx, id, status)
		return orderActionMsg{op: bufe.OpUpdateOrder, orderID: id, order: order, err: err}
	}
}

func (m Model) archiveOrderCmd(id int64) tea.Cmd {
	if m.api == nil {
		return nil
	}
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		err := api.ArchiveOrder(ctx, id)
		return orderActionMsg{op: bufe.OpArchiveOrder, orderID: id, err: err}
	}
}

func (m Model) archiveAllCmd() tea.Cmd {
	if m.api == nil {
		return nil
	}
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		count, err := api.ArchiveAllDone(ctx)
		return archiveAllMsg{count: count, err: err}
	}
}

// handleOrderAction applies a REST result locally. The channel usually
// delivers the same change; applying it twice is harmless.
func (m Model) handleOrderAction(msg orderActionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.alert(msg.op, msg.err)
		return m, nil
	}
	switch msg.op {
	case bufe.OpUpdateOrder:
		if msg.order.ID != 0 {
			m.store.ApplyOrder(realtime.ActionUpdate, msg.order)
		}
	case bufe.OpArchiveOrder:
		m.store.ApplyOrder(realtime.ActionArchive, bufe.Order{ID: msg.orderID})
	}
	return m, m.refreshView()
}

func (m Model) handleArchiveAll(msg archiveAllMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.alert(bufe.OpArchiveAll, msg.err)
		return m, nil
	}
	m.modal = &alertModal{title: "Archiválás", message: fmt.Sprintf("%d rendelés archiválva.", msg.count)}
	return m, m.reloadOrdersCmd()
}

// renderOrders renders the filter tabs and the order table.
func (m Model) renderOrders() string {
	height := m.contentHeight()
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)
	inner := maxInt(m.width-2, 10)

	var b strings.Builder
	b.WriteString(m.renderFilterTabs(styles, bg))
	b.WriteString("\n")

	orders := m.visibleOrders()
	if len(orders) == 0 {
		b.WriteString("\n")
		b.WriteString(bg.Render("Nincsenek rendelések", styles.MutedText))
		return m.renderBox(m.screen.Title(), b.String(), m.width, height)
	}

	cols := orderColumns(inner)
	b.WriteString(bg.Render(cols.header(), styles.FaintText))
	b.WriteString("\n")

	// Keep the selected row in view.
	rows := maxInt(height-5, 1)
	selected := clamp(m.orderRow, len(orders))
	start := 0
	if selected >= rows {
		start = selected - rows + 1
	}
	end := start + rows
	if end > len(orders) {
		end = len(orders)
	}

	for i := start; i < end; i++ {
		o := orders[i]
		line := cols.row(o)
		style := styles.Text
		switch {
		case i == selected:
			style = styles.Selected
		case m.orderHighlights[o.ID] != 0:
			style = style.Background(lipgloss.Color(m.theme.HighlightBg))
		}
		badge := styles.StatusStyle(o.Status).Render(fit(o.Label(), cols.status))
		b.WriteString(style.Render(line.before) + " " + badge + style.Render(" "+line.after))
		b.WriteString("\n")
	}

	if o, ok := m.selectedOrder(); ok {
		b.WriteString(m.renderActionHints(o, styles, bg))
	}
	return m.renderBox(m.screen.Title(), strings.TrimRight(b.String(), "\n"), m.width, height)
}

func (m Model) renderFilterTabs(styles Styles, bg BgStyle) string {
	counts := make(map[string]int)
	for _, o := range m.snapshot.Orders {
		counts[o.Status]++
	}
	parts := make([]string, 0, len(state.OrderFilters))
	for _, f := range state.OrderFilters {
		n := len(m.snapshot.Orders)
		if f != state.FilterAll {
			n = counts[string(f)]
		}
		label := fmt.Sprintf("%s (%d)", f.Label(), n)
		if f == m.filter {
			parts = append(parts, bg.Render("["+label+"]", styles.AccentText.Bold(true)))
		} else {
			parts = append(parts, bg.Render(label, styles.MutedText))
		}
	}
	return bg.Join(parts, "  ")
}

func (m Model) renderActionHints(o bufe.Order, styles Styles, bg BgStyle) string {
	keys := map[orderAction]string{
		actionConfirm: "c",
		actionDone:    "d",
		actionDelete:  "x",
		actionArchive: "A",
	}
	parts := []string{bg.Render(fmt.Sprintf("#%d", o.ID), styles.AccentText)}
	for _, def := range actionsByStatus[o.Status] {
		parts = append(parts, bg.Render(keys[def.action], styles.WarningText)+bg.Sep(":")+bg.Render(def.label, styles.Text))
	}
	if next, ok := o.NextStatus(); ok {
		parts = append(parts, bg.Render("a", styles.WarningText)+bg.Sep(":")+bg.Render("→ "+bufe.StatusLabel(next), styles.Text))
	}
	return "\n" + bg.Join(parts, "  ")
}

// orderCols lays out the order table for a given width.
type orderCols struct {
	id, status, customer, placed, total, items int
}

type orderLine struct {
	before string // columns left of the status badge
	after  string // columns right of it
}

func orderColumns(width int) orderCols {
	c := orderCols{id: 6, status: 14, customer: 20, placed: 16, total: 10}
	rest := width - (c.id + c.status + c.customer + c.placed + c.total + 6)
	if rest < 10 {
		c.placed = 0
		rest += 17
	}
	c.items = maxInt(rest, 0)
	return c
}

func (c orderCols) header() string {
	s := fit("#", c.id) + " " + fit("Állapot", c.status) + " " + fit("Vásárló", c.customer)
	if c.placed > 0 {
		s += " " + fit("Leadva", c.placed)
	}
	s += " " + padLeft("Összeg", c.total)
	if c.items > 0 {
		s += " " + fit("Tételek", c.items)
	}
	return s
}

func (c orderCols) row(o bufe.Order) orderLine {
	before := fit(fmt.Sprintf("#%d", o.ID), c.id)
	after := fit(o.User.FullName, c.customer)
	if c.placed > 0 {
		after += " " + fit(bufe.FormatTimestamp(o.PlacedAt), c.placed)
	}
	after += " " + padLeft(formatPrice(o.Total), c.total)
	if c.items > 0 {
		preview := itemsPreview(o.Items)
		if strings.TrimSpace(o.Note) != "" {
			preview += " 💬"
		}
		after += " " + fit(preview, c.items)
	}
	return orderLine{before: before, after: after}
}

// itemsPreview lists the first items as "2× Kifli, 1× Kakaó +3".
func itemsPreview(items []bufe.OrderItem) string {
	const shown = 3
	parts := make([]string, 0, shown)
	for i, it := range items {
		if i == shown {
			break
		}
		parts = append(parts, fmt.Sprintf("%d× %s", it.Quantity, it.ProductName))
	}
	s := strings.Join(parts, ", ")
	if extra := len(items) - shown; extra > 0 {
		s += fmt.Sprintf(" +%d", extra)
	}
	return s
}
