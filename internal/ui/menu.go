package ui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/five82/bufeadmin/internal/bufe"
	"github.com/five82/bufeadmin/internal/realtime"
)

// menuState holds the product search box.
type menuState struct {
	search    textinput.Model
	searching bool
	query     string
}

func newMenuState() menuState {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "keresés"
	ti.CharLimit = 64
	return menuState{search: ti}
}

type productFieldMsg struct {
	id    int64
	field string
	value any
}

type productSavedMsg struct {
	id      int64
	prev    bufe.Product
	hadPrev bool
	err     error
}

type addProductSubmitMsg struct {
	product bufe.NewProduct
}

type productAddedMsg struct {
	product bufe.Product
	err     error
}

// visibleProducts returns the products matching the search query, best
// match first. Without a query products are grouped by category.
func (m Model) visibleProducts() []bufe.Product {
	products := m.snapshot.Products
	query := strings.TrimSpace(m.menu.query)
	if query == "" {
		out := append([]bufe.Product(nil), products...)
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].CategoryName != out[j].CategoryName {
				return out[i].CategoryName < out[j].CategoryName
			}
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
		return out
	}

	targets := make([]string, len(products))
	for i, p := range products {
		targets[i] = p.Name + " " + p.CategoryName
	}
	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Stable(ranks)
	out := make([]bufe.Product, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, products[r.OriginalIndex])
	}
	return out
}

func (m Model) selectedProduct() (bufe.Product, bool) {
	products := m.visibleProducts()
	if len(products) == 0 {
		return bufe.Product{}, false
	}
	return products[clamp(m.productRow, len(products))], true
}

// handleMenuSearchKey edits the search query.
func (m Model) handleMenuSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.menu.searching = false
		m.menu.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.menu.searching = false
		m.menu.search.Blur()
		m.menu.search.SetValue("")
		m.menu.query = ""
		m.productRow = 0
		return m, nil
	}
	var cmd tea.Cmd
	m.menu.search, cmd = m.menu.search.Update(msg)
	m.menu.query = m.menu.search.Value()
	m.productRow = 0
	return m, cmd
}

// handleMenuKey processes keyboard input for the product screen.
func (m Model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.visibleProducts())

	switch {
	case key.Matches(msg, m.keys.Search):
		m.menu.searching = true
		return m, m.menu.search.Focus()
	case key.Matches(msg, m.keys.Cancel):
		if m.menu.query != "" {
			m.menu.search.SetValue("")
			m.menu.query = ""
			m.productRow = 0
		}
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.productRow > 0 {
			m.productRow--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.productRow < count-1 {
			m.productRow++
		}
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.productRow = 0
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.productRow = maxInt(count-1, 0)
		return m, nil
	case key.Matches(msg, m.keys.AddProduct):
		m.addPending = false
		m.modal = newAddProductForm()
		return m, textinput.Blink
	}

	p, ok := m.selectedProduct()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.EditName):
		m.modal = newFormModal("Termék neve", func(v []string) (tea.Msg, error) {
			if v[0] == "" {
				return nil, errors.New("A név nem lehet üres.")
			}
			return productFieldMsg{id: p.ID, field: bufe.FieldName, value: v[0]}, nil
		}, newTextField("Név", p.Name, ""))
		return m, textinput.Blink
	case key.Matches(msg, m.keys.EditPrice):
		m.modal = newFormModal("Ár", func(v []string) (tea.Msg, error) {
			n, err := parseAmount(v[0], "Az ár")
			if err != nil {
				return nil, err
			}
			return productFieldMsg{id: p.ID, field: bufe.FieldPrice, value: n}, nil
		}, newTextField("Ár (Ft)", strconv.Itoa(p.Price), ""))
		return m, textinput.Blink
	case key.Matches(msg, m.keys.EditMax):
		m.modal = newFormModal("Maximum rendelésenként", func(v []string) (tea.Msg, error) {
			n, err := parseAmount(v[0], "A maximum")
			if err != nil {
				return nil, err
			}
			return productFieldMsg{id: p.ID, field: bufe.FieldMaxPerOrder, value: n}, nil
		}, newTextField("Max / rendelés", strconv.Itoa(p.MaxPerOrder), ""))
		return m, textinput.Blink
	case key.Matches(msg, m.keys.ToggleChilled):
		return m.handleProductField(productFieldMsg{id: p.ID, field: bufe.FieldChilled, value: !p.Chilled})
	case key.Matches(msg, m.keys.ToggleAvail):
		return m.handleProductField(productFieldMsg{id: p.ID, field: bufe.FieldAvailable, value: !p.Available})
	case key.Matches(msg, m.keys.ToggleSoldOut):
		return m.handleProductField(productFieldMsg{id: p.ID, field: bufe.FieldSoldOut, value: !p.SoldOut})
	}
	return m, nil
}

func newAddProductForm() *formModal {
	f := newFormModal("Új termék", func(v []string) (tea.Msg, error) {
		if v[0] == "" {
			return nil, errors.New("A név nem lehet üres.")
		}
		category, err := strconv.ParseInt(v[1], 10, 64)
		if err != nil || category <= 0 {
			return nil, errors.New("Érvénytelen kategória azonosító.")
		}
		price, err := parseAmount(v[2], "Az ár")
		if err != nil {
			return nil, err
		}
		limit, err := parseAmount(v[3], "A maximum")
		if err != nil {
			return nil, err
		}
		return addProductSubmitMsg{product: bufe.NewProduct{
			Name:        v[0],
			CategoryID:  category,
			Price:       price,
			MaxPerOrder: limit,
			Chilled:     v[4] == yesNo(true),
			Available:   v[5] == yesNo(true),
			SoldOut:     v[6] == yesNo(true),
		}}, nil
	},
		newTextField("Név", "", "pl. Sajtos pogácsa"),
		newTextField("Kategória ID", "", "1"),
		newTextField("Ár (Ft)", "", "350"),
		newTextField("Max / rendelés", "10", ""),
		newBoolField("Hűtve", false),
		newBoolField("Elérhető", true),
		newBoolField("Kisült", false),
	)
	f.keepOpen = true
	return f
}

// parseAmount parses a non-negative whole number typed by the operator.
func parseAmount(value, what string) (int, error) {
	n, err := strconv.Atoi(strings.ReplaceAll(value, " ", ""))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s nem érvényes szám.", what)
	}
	return n, nil
}

// applyProductField returns p with field set to value.
func applyProductField(p bufe.Product, field string, value any) bufe.Product {
	switch field {
	case bufe.FieldName:
		if s, ok := value.(string); ok {
			p.Name = s
		}
	case bufe.FieldPrice:
		if n, ok := value.(int); ok {
			p.Price = n
		}
	case bufe.FieldMaxPerOrder:
		if n, ok := value.(int); ok {
			p.MaxPerOrder = n
		}
	case bufe.FieldChilled:
		if b, ok := value.(bool); ok {
			p.Chilled = b
		}
	case bufe.FieldAvailable:
		if b, ok := value.(bool); ok {
			p.Available = b
		}
	case bufe.FieldSoldOut:
		if b, ok := value.(bool); ok {
			p.SoldOut = b
		}
	}
	return p
}

// handleProductField applies the edit locally and saves it. A failed save
// restores the previous record.
func (m Model) handleProductField(msg productFieldMsg) (tea.Model, tea.Cmd) {
	current, ok := m.store.Product(msg.id)
	if !ok {
		return m, nil
	}
	prev, hadPrev := m.store.PutProduct(applyProductField(current, msg.field, msg.value))
	refresh := m.refreshView()

	if m.api == nil {
		return m, refresh
	}
	api, ctx := m.api, m.ctx
	save := func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		err := api.UpdateProduct(ctx, msg.id, map[string]any{msg.field: msg.value})
		return productSavedMsg{id: msg.id, prev: prev, hadPrev: hadPrev, err: err}
	}
	return m, tea.Batch(refresh, save)
}

func (m Model) handleProductSaved(msg productSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if msg.hadPrev {
			m.store.PutProduct(msg.prev)
		}
		m.alert(bufe.OpUpdateProduct, msg.err)
		return m, m.refreshView()
	}
	return m, m.showToast("Mentve")
}

// handleAddProductSubmit sends the new product over the channel when it is
// open, otherwise through REST.
func (m Model) handleAddProductSubmit(msg addProductSubmitMsg) (tea.Model, tea.Cmd) {
	if m.addPending {
		return m, nil
	}
	m.addPending = true

	if m.conn != nil && m.conn.IsOpen() {
		err := m.conn.Send(realtime.AddProduct{NewProduct: msg.product})
		if err == nil {
			return m, nil
		}
		m.logger.Warn("add product over channel failed, using REST", "error", err)
	}
	if m.api == nil {
		m.addPending = false
		m.failAddProduct(bufe.UserMessage(bufe.OpAddProduct, errors.New("no api")))
		return m, nil
	}
	api, ctx := m.api, m.ctx
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		p, err := api.AddProduct(ctx, msg.product)
		return productAddedMsg{product: p, err: err}
	}
}

func (m Model) handleProductAdded(msg productAddedMsg) (tea.Model, tea.Cmd) {
	m.addPending = false
	if msg.err != nil {
		m.logger.Warn("add product failed", "error", msg.err)
		m.failAddProduct(bufe.UserMessage(bufe.OpAddProduct, msg.err))
		return m, nil
	}
	return m, m.productCreated(msg.product)
}

// handleAddProductResponse settles a pending add sent over the channel.
func (m *Model) handleAddProductResponse(resp realtime.AddProductResponse) tea.Cmd {
	if !m.addPending {
		m.logger.Debug("unsolicited add product response", "success", resp.Success)
		return nil
	}
	m.addPending = false
	if !resp.Success {
		reason := resp.Error
		if reason == "" {
			reason = bufe.UserMessage(bufe.OpAddProduct, errors.New("rejected"))
		} else {
			reason = "Hiba: " + reason
		}
		m.failAddProduct(reason)
		return nil
	}
	if resp.Product == nil {
		m.closeAddProduct()
		return tea.Batch(m.reloadProductsCmd(), m.showToast("Termék hozzáadva"))
	}
	return m.productCreated(*resp.Product)
}

func (m *Model) productCreated(p bufe.Product) tea.Cmd {
	m.closeAddProduct()
	out := m.store.ApplyProduct(realtime.ActionAdd, p)
	return tea.Batch(m.applyOutcome(out), m.showToast("Termék hozzáadva"))
}

func (m *Model) failAddProduct(reason string) {
	if f, ok := m.modal.(*formModal); ok && f.keepOpen {
		f.fail(reason)
		return
	}
	m.modal = &alertModal{title: "Hiba", message: reason, danger: true}
}

// abandonAddProduct gives up on an add sent over a channel that dropped
// before the response arrived.
func (m *Model) abandonAddProduct() {
	if !m.addPending {
		return
	}
	m.addPending = false
	m.failAddProduct("Hiba: a kapcsolat megszakadt, küldd el újra.")
}

func (m *Model) closeAddProduct() {
	if f, ok := m.modal.(*formModal); ok && f.keepOpen {
		m.modal = nil
	}
}

// renderMenu renders the product table.
func (m Model) renderMenu() string {
	height := m.contentHeight()
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)
	inner := maxInt(m.width-4, 20)

	var b strings.Builder
	switch {
	case m.menu.searching:
		b.WriteString(m.menu.search.View())
	case m.menu.query != "":
		b.WriteString(bg.Render("Keresés:", styles.MutedText) + bg.Space() + bg.Render(m.menu.query, styles.AccentText))
	default:
		b.WriteString(bg.Render(fmt.Sprintf("%d termék", len(m.snapshot.Products)), styles.MutedText))
	}
	b.WriteString("\n")

	products := m.visibleProducts()
	if len(products) == 0 {
		b.WriteString("\n")
		b.WriteString(bg.Render("Nincs találat", styles.MutedText))
		return m.renderBox(m.screen.Title(), b.String(), m.width, height)
	}

	nameW := maxInt(inner-58, 12)
	header := fit("Név", nameW) + " " + fit("Kategória", 16) + " " + padLeft("Ár", 10) + " " +
		padLeft("Max", 4) + " " + fit("Hűtve", 6) + " " + fit("Elérhető", 9) + " " + fit("Kisült", 9)
	b.WriteString(bg.Render(header, styles.FaintText))
	b.WriteString("\n")

	rows := maxInt(height-5, 1)
	selected := clamp(m.productRow, len(products))
	start := 0
	if selected >= rows {
		start = selected - rows + 1
	}
	end := start + rows
	if end > len(products) {
		end = len(products)
	}

	for i := start; i < end; i++ {
		p := products[i]
		line := fit(p.Name, nameW) + " " + fit(p.CategoryName, 16) + " " + padLeft(formatPrice(p.Price), 10) + " " +
			padLeft(strconv.Itoa(p.MaxPerOrder), 4) + " " + fit(yesNo(p.Chilled), 6) + " " +
			fit(yesNo(p.Available), 9) + " " + fit(yesNo(p.SoldOut), 9)
		style := styles.Text
		switch {
		case i == selected:
			style = styles.Selected
		case m.productHighlights[p.ID] != 0:
			style = style.Background(lipgloss.Color(m.theme.HighlightBg))
		case !p.Available || p.SoldOut:
			style = styles.MutedText
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return m.renderBox(m.screen.Title(), strings.TrimRight(b.String(), "\n"), m.width, height)
}
