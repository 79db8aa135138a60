package ui

import (
	"errors"
	"testing"

	"github.com/five82/bufeadmin/internal/bufe"
	"github.com/five82/bufeadmin/internal/realtime"
)

func menuModel(t *testing.T, products ...bufe.Product) (Model, *testEnv) {
	t.Helper()
	m, env := newTestModel(t)
	env.store.ReplaceProducts(products)
	m.refreshView()
	m, _ = step(m, keyPress("2"))
	return m, env
}

func TestVisibleProducts_GroupedWithoutQuery(t *testing.T) {
	m, _ := menuModel(t,
		bufe.Product{ID: 1, Name: "Tea", CategoryName: "Italok"},
		bufe.Product{ID: 2, Name: "Kakaós csiga", CategoryName: "Pékáru"},
		bufe.Product{ID: 3, Name: "Limonádé", CategoryName: "Italok"},
	)

	got := m.visibleProducts()
	want := []int64{3, 1, 2}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("visibleProducts()[%d] = %d, want %d (%+v)", i, got[i].ID, id, got)
		}
	}
}

func TestVisibleProducts_FuzzySearch(t *testing.T) {
	m, _ := menuModel(t,
		bufe.Product{ID: 1, Name: "Sajtos pogácsa", CategoryName: "Pékáru"},
		bufe.Product{ID: 2, Name: "Kakaós csiga", CategoryName: "Pékáru"},
		bufe.Product{ID: 3, Name: "Pizza szelet", CategoryName: "Meleg étel"},
	)

	m, _ = step(m, keyPress("/"))
	if !m.menu.searching {
		t.Fatalf("search did not start")
	}
	for _, r := range "csiga" {
		m, _ = step(m, keyPress(string(r)))
	}
	m, _ = step(m, keyPress("enter"))

	got := m.visibleProducts()
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("search csiga = %+v, want Kakaós csiga", got)
	}

	// Accents are ignored.
	m.menu.query = "pogacsa"
	got = m.visibleProducts()
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("search pogacsa = %+v, want Sajtos pogácsa", got)
	}

	m, _ = step(m, keyPress("esc"))
	if m.menu.query != "" || len(m.visibleProducts()) != 3 {
		t.Fatalf("esc did not clear the search")
	}
}

func TestProductToggle_SavesOptimistically(t *testing.T) {
	m, env := menuModel(t, bufe.Product{ID: 5, Name: "Tea", Available: true})

	m, msgs := step(m, keyPress("s"))
	if p, _ := env.store.Product(5); !p.SoldOut {
		t.Fatalf("sold out flag not applied before the save")
	}
	m = deliver(m, msgs)

	if len(env.api.productEdits) != 1 || env.api.productEdits[0][bufe.FieldSoldOut] != true {
		t.Fatalf("edits = %v, want kisult=true", env.api.productEdits)
	}
	if m.toast != "Mentve" {
		t.Fatalf("toast = %q, want Mentve", m.toast)
	}
}

func TestProductToggle_RevertsOnFailure(t *testing.T) {
	m, env := menuModel(t, bufe.Product{ID: 5, Name: "Tea", Available: true})
	env.api.err = errors.New("boom")

	m, msgs := step(m, keyPress("e"))
	m = deliver(m, msgs)

	if p, _ := env.store.Product(5); !p.Available {
		t.Fatalf("available flag not reverted: %+v", p)
	}
	alert, ok := m.modal.(*alertModal)
	if !ok || alert.message != "Hiba történt a termék frissítése során." {
		t.Fatalf("modal = %#v, want product update alert", m.modal)
	}
}

func TestProductPriceEdit_ValidatesInput(t *testing.T) {
	m, env := menuModel(t, bufe.Product{ID: 5, Name: "Tea", Price: 300})

	m, _ = step(m, keyPress("p"))
	form, ok := m.modal.(*formModal)
	if !ok {
		t.Fatalf("modal = %T, want *formModal", m.modal)
	}
	form.fields[0].input.SetValue("sok")
	m, msgs := step(m, keyPress("enter"))
	if m.modal == nil || form.err == "" || len(msgs) != 0 {
		t.Fatalf("invalid price accepted (err=%q)", form.err)
	}

	form.fields[0].input.SetValue("1 200")
	m, msgs = step(m, keyPress("enter"))
	if m.modal != nil {
		t.Fatalf("form still open after a valid price")
	}
	m = deliver(m, msgs)

	if p, _ := env.store.Product(5); p.Price != 1200 {
		t.Fatalf("price = %d, want 1200", p.Price)
	}
	if len(env.api.productEdits) != 1 || env.api.productEdits[0][bufe.FieldPrice] != 1200 {
		t.Fatalf("edits = %v, want ar=1200", env.api.productEdits)
	}
	if m.toast != "Mentve" {
		t.Fatalf("toast = %q, want Mentve", m.toast)
	}
}

func TestAddProduct_SendsOverOpenChannel(t *testing.T) {
	m, env := menuModel(t)
	env.conn.open = true

	m, _ = step(m, keyPress("a"))
	form, ok := m.modal.(*formModal)
	if !ok {
		t.Fatalf("modal = %T, want *formModal", m.modal)
	}
	form.fields[0].input.SetValue("Túrós batyu")
	form.fields[1].input.SetValue("2")
	form.fields[2].input.SetValue("420")
	form.fields[6].on = true

	m, msgs := step(m, keyPress("enter"))
	m = deliver(m, msgs)

	if len(env.conn.sent) != 1 {
		t.Fatalf("sent = %v, want one add_product frame", env.conn.sent)
	}
	sent, ok := env.conn.sent[0].(realtime.AddProduct)
	if !ok || sent.Name != "Túrós batyu" || sent.CategoryID != 2 || sent.Price != 420 || !sent.Available || !sent.SoldOut {
		t.Fatalf("sent = %#v", env.conn.sent[0])
	}
	if !m.addPending || m.modal == nil {
		t.Fatalf("form should stay open while the add is pending")
	}

	// A second submit while pending is ignored.
	m, _ = step(m, keyPress("enter"))
	if len(env.conn.sent) != 1 {
		t.Fatalf("pending submit sent again")
	}

	m, _ = step(m, frame(`{"type":"add_product_response","success":true,"product":{"id":41,"nev":"Túrós batyu","ar":420}}`))
	if m.modal != nil || m.addPending {
		t.Fatalf("form not closed after success (modal=%T pending=%v)", m.modal, m.addPending)
	}
	if _, ok := env.store.Product(41); !ok {
		t.Fatalf("new product not mirrored")
	}
	if m.productHighlights[41] == 0 {
		t.Fatalf("new product not highlighted")
	}
	if m.toast != "Termék hozzáadva" {
		t.Fatalf("toast = %q", m.toast)
	}
}

func TestAddProduct_RejectionKeepsFormOpen(t *testing.T) {
	m, env := menuModel(t)
	env.conn.open = true
	m.modal = newAddProductForm()
	m.addPending = true

	m, _ = step(m, frame(`{"type":"add_product_response","success":false,"error":"Már létezik"}`))

	form, ok := m.modal.(*formModal)
	if !ok {
		t.Fatalf("modal = %T, want the add form", m.modal)
	}
	if form.err != "Hiba: Már létezik" || form.pending || m.addPending {
		t.Fatalf("form err=%q pending=%v addPending=%v", form.err, form.pending, m.addPending)
	}
}

func TestAddProduct_FallsBackToREST(t *testing.T) {
	m, env := menuModel(t)
	m.modal = newAddProductForm()

	m, msgs := step(m, addProductSubmitMsg{product: bufe.NewProduct{Name: "Bagett", CategoryID: 1, Price: 600}})
	m = deliver(m, msgs)

	if len(env.conn.sent) != 0 {
		t.Fatalf("closed channel was used")
	}
	if len(env.api.added) != 1 {
		t.Fatalf("REST add calls = %d, want 1", len(env.api.added))
	}
	if _, ok := env.store.Product(99); !ok {
		t.Fatalf("REST created product not mirrored")
	}
	if m.modal != nil || m.addPending {
		t.Fatalf("form not closed after REST success")
	}
}

func TestAddProduct_ChannelDropReleasesForm(t *testing.T) {
	m, env := menuModel(t)
	env.conn.open = true

	m, _ = step(m, keyPress("a"))
	form := m.modal.(*formModal)
	form.fields[0].input.SetValue("Bagett")
	form.fields[1].input.SetValue("1")
	form.fields[2].input.SetValue("600")
	m, msgs := step(m, keyPress("enter"))
	m = deliver(m, msgs)
	if !m.addPending || len(env.conn.sent) != 1 {
		t.Fatalf("add not sent over the channel (pending=%v sent=%d)", m.addPending, len(env.conn.sent))
	}

	env.conn.open = false
	m, _ = step(m, updateMsg{update: realtime.StatusUpdate{Status: realtime.StatusDisconnected}})
	if m.addPending || form.pending || form.err == "" {
		t.Fatalf("drop did not release the form (addPending=%v pending=%v err=%q)", m.addPending, form.pending, form.err)
	}

	m, msgs = step(m, keyPress("enter"))
	m = deliver(m, msgs)
	if len(env.api.added) != 1 {
		t.Fatalf("REST add calls = %d, want 1 after the drop", len(env.api.added))
	}
	if m.modal != nil || m.addPending {
		t.Fatalf("form not closed after REST success")
	}
}

func TestAddProduct_CancelClearsPending(t *testing.T) {
	m, env := menuModel(t)
	env.conn.open = true

	m, _ = step(m, keyPress("a"))
	m, _ = step(m, addProductSubmitMsg{product: bufe.NewProduct{Name: "Bagett", CategoryID: 1, Price: 600}})
	if !m.addPending {
		t.Fatalf("add not pending after send")
	}
	m, _ = step(m, keyPress("esc"))
	if m.modal != nil || m.addPending {
		t.Fatalf("esc left modal=%T addPending=%v", m.modal, m.addPending)
	}

	env.conn.open = false
	m, _ = step(m, keyPress("a"))
	m, msgs := step(m, addProductSubmitMsg{product: bufe.NewProduct{Name: "Bagett", CategoryID: 1, Price: 600}})
	m = deliver(m, msgs)
	if len(env.api.added) != 1 {
		t.Fatalf("REST add calls = %d, want 1 after cancel", len(env.api.added))
	}

	// The response to the cancelled add is not mistaken for a new one.
	m, _ = step(m, frame(`{"type":"add_product_response","success":false,"error":"késő"}`))
	if m.modal != nil {
		t.Fatalf("late response opened %T", m.modal)
	}
}

func TestAddProduct_UnsolicitedResponseIgnored(t *testing.T) {
	m, env := menuModel(t)

	m, _ = step(m, frame(`{"type":"add_product_response","success":true,"product":{"id":8,"nev":"X"}}`))

	if _, ok := env.store.Product(8); ok {
		t.Fatalf("unsolicited response added a product")
	}
	if m.modal != nil {
		t.Fatalf("unexpected modal %T", m.modal)
	}
}

func TestParseAmount(t *testing.T) {
	if n, err := parseAmount("1 250", "Az ár"); err != nil || n != 1250 {
		t.Fatalf("parseAmount = %d, %v", n, err)
	}
	if _, err := parseAmount("-1", "Az ár"); err == nil {
		t.Fatalf("negative amount accepted")
	}
}
