package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bufeadmin/internal/bufe"
	"github.com/five82/bufeadmin/internal/prefs"
	"github.com/five82/bufeadmin/internal/realtime"
	"github.com/five82/bufeadmin/internal/state"
)

// fakeAPI records calls and answers from canned data.
type fakeAPI struct {
	mu sync.Mutex

	orders   []bufe.Order
	products []bufe.Product
	hours    bufe.OpeningHoursSnapshot
	err      error // returned by every mutation when set
	archived int

	orderLoads   int
	statusCalls  []string
	productEdits []map[string]any
	added        []bufe.NewProduct
	hoursEdits   []string
	bufeClosed   []bool
}

func (f *fakeAPI) FetchOrders(ctx context.Context) ([]bufe.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderLoads++
	return append([]bufe.Order(nil), f.orders...), nil
}

func (f *fakeAPI) UpdateOrderStatus(ctx context.Context, id int64, status string) (bufe.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, status)
	if f.err != nil {
		return bufe.Order{}, f.err
	}
	return bufe.Order{ID: id, Status: status}, nil
}

func (f *fakeAPI) ArchiveOrder(ctx context.Context, id int64) error {
	return f.err
}

func (f *fakeAPI) ArchiveAllDone(ctx context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.archived, nil
}

func (f *fakeAPI) FetchProducts(ctx context.Context) ([]bufe.Product, error) {
	return append([]bufe.Product(nil), f.products...), nil
}

func (f *fakeAPI) UpdateProduct(ctx context.Context, id int64, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productEdits = append(f.productEdits, fields)
	return f.err
}

func (f *fakeAPI) AddProduct(ctx context.Context, p bufe.NewProduct) (bufe.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, p)
	if f.err != nil {
		return bufe.Product{}, f.err
	}
	return bufe.Product{ID: 99, Name: p.Name, Price: p.Price, Available: p.Available}, nil
}

func (f *fakeAPI) FetchOpeningHours(ctx context.Context) (bufe.OpeningHoursSnapshot, error) {
	return f.hours, nil
}

func (f *fakeAPI) UpdateOpeningHours(ctx context.Context, id int64, field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hoursEdits = append(f.hoursEdits, field+"="+value)
	return f.err
}

func (f *fakeAPI) UpdateBufeStatus(ctx context.Context, closed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bufeClosed = append(f.bufeClosed, closed)
	return f.err
}

// fakeConn is a realtime channel that never dials.
type fakeConn struct {
	updates    chan realtime.Update
	open       bool
	sendErr    error
	sent       []realtime.Outbound
	reconnects int
}

func newFakeConn(t *testing.T) *fakeConn {
	c := &fakeConn{updates: make(chan realtime.Update)}
	t.Cleanup(func() { close(c.updates) })
	return c
}

func (c *fakeConn) Updates() <-chan realtime.Update { return c.updates }
func (c *fakeConn) IsOpen() bool                    { return c.open }
func (c *fakeConn) Status() realtime.Status {
	if c.open {
		return realtime.StatusConnected
	}
	return realtime.StatusConnecting
}
func (c *fakeConn) Send(msg realtime.Outbound) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, msg)
	return nil
}
func (c *fakeConn) Reconnect() { c.reconnects++ }

type countingPlayer struct{ plays atomic.Int32 }

func (p *countingPlayer) Play(ctx context.Context) error {
	p.plays.Add(1)
	return nil
}

type testEnv struct {
	api    *fakeAPI
	conn   *fakeConn
	player *countingPlayer
	store  *state.Store
	prefs  string
}

func newTestModel(t *testing.T, orders ...bufe.Order) (Model, *testEnv) {
	t.Helper()
	env := &testEnv{
		api:    &fakeAPI{},
		conn:   newFakeConn(t),
		player: &countingPlayer{},
		store:  &state.Store{},
		prefs:  filepath.Join(t.TempDir(), "prefs.toml"),
	}
	env.store.ReplaceOrders(orders)
	m := New(Options{
		Context:   context.Background(),
		API:       env.api,
		Store:     env.store,
		Conn:      env.conn,
		Player:    env.player,
		PrefsPath: env.prefs,
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return next.(Model), env
}

// drain runs cmd and every command batched inside it, collecting the
// messages that arrive within a short window. Timers and the update wait
// never finish in that window and are dropped.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	out := make(chan tea.Msg, 64)
	var wg sync.WaitGroup
	var run func(tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg := c()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, sub := range batch {
					run(sub)
				}
				return
			}
			if msg != nil {
				out <- msg
			}
		}()
	}
	run(cmd)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(150 * time.Millisecond):
	}

	var msgs []tea.Msg
	for {
		select {
		case msg := <-out:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

// step feeds msg to m and returns the new model with the messages its
// commands produced.
func step(m Model, msg tea.Msg) (Model, []tea.Msg) {
	next, cmd := m.Update(msg)
	return next.(Model), drain(cmd)
}

// deliver feeds the app level messages back into the model, following the
// commands they produce a few levels deep.
func deliver(m Model, msgs []tea.Msg) Model {
	return deliverDepth(m, msgs, 4)
}

func deliverDepth(m Model, msgs []tea.Msg, depth int) Model {
	if depth == 0 {
		return m
	}
	for _, msg := range msgs {
		switch msg.(type) {
		case ordersLoadedMsg, productsLoadedMsg, loadedMsg, orderActionMsg, archiveAllMsg,
			productFieldMsg, productSavedMsg, addProductSubmitMsg, productAddedMsg,
			hoursFieldMsg, hoursSavedMsg, bufeStatusMsg:
			next, cmd := m.Update(msg)
			m = deliverDepth(next.(Model), drain(cmd), depth-1)
		}
	}
	return m
}

func findMsg[T any](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func frame(data string) updateMsg {
	return updateMsg{update: realtime.FrameUpdate{Data: []byte(data)}}
}

func TestUpdate_NewOrderFrameHighlightsAndNotifies(t *testing.T) {
	m, env := newTestModel(t, bufe.Order{ID: 1, Status: bufe.StatusConfirmed})

	m, _ = step(m, frame(`{"type":"order_update","action":"new","order":{"id":2,"allapot":"leadva"}}`))

	if got := len(m.snapshot.Orders); got != 2 {
		t.Fatalf("orders = %d, want 2", got)
	}
	if m.orderHighlights[2] == 0 {
		t.Fatalf("new order 2 is not highlighted")
	}
	if got := env.player.plays.Load(); got != 1 {
		t.Fatalf("plays = %d, want 1", got)
	}
	if m.title != "(2) Büfé Admin - Rendelések" {
		t.Fatalf("title = %q", m.title)
	}
}

func TestUpdate_StatusChangeFrameDoesNotNotify(t *testing.T) {
	m, env := newTestModel(t, bufe.Order{ID: 1, Status: bufe.StatusPlaced})

	m, _ = step(m, frame(`{"type":"order_update","action":"update","order":{"id":1,"allapot":"atadva"}}`))

	o, ok := env.store.Order(1)
	if !ok || o.Status != bufe.StatusHandedOut {
		t.Fatalf("order 1 = %+v (ok=%v), want status atadva", o, ok)
	}
	if env.player.plays.Load() != 0 {
		t.Fatalf("update frame played the notification")
	}
	if m.orderHighlights[1] != 0 {
		t.Fatalf("update frame highlighted the row")
	}
}

func TestUpdate_ArchiveFrameRemovesOrder(t *testing.T) {
	m, _ := newTestModel(t, bufe.Order{ID: 1, Status: bufe.StatusHandedOut}, bufe.Order{ID: 2, Status: bufe.StatusPlaced})

	m, _ = step(m, frame(`{"type":"order_update","action":"archive","order":{"id":1}}`))

	if got := len(m.snapshot.Orders); got != 1 || m.snapshot.Orders[0].ID != 2 {
		t.Fatalf("orders = %+v, want only order 2", m.snapshot.Orders)
	}
	if m.title != "(1) Büfé Admin - Rendelések" {
		t.Fatalf("title = %q", m.title)
	}
}

func TestUpdate_ArchiveAllFrameReloads(t *testing.T) {
	m, env := newTestModel(t, bufe.Order{ID: 1, Status: bufe.StatusHandedOut})
	env.api.orders = []bufe.Order{{ID: 7, Status: bufe.StatusPlaced}}

	m, msgs := step(m, frame(`{"type":"order_update","action":"archive_all","order":{}}`))
	if len(m.snapshot.Orders) != 0 {
		t.Fatalf("orders not cleared: %+v", m.snapshot.Orders)
	}
	m = deliver(m, msgs)

	if len(m.snapshot.Orders) != 1 || m.snapshot.Orders[0].ID != 7 {
		t.Fatalf("orders after reload = %+v, want order 7", m.snapshot.Orders)
	}
}

func TestUpdate_MalformedFrameIsDropped(t *testing.T) {
	m, env := newTestModel(t, bufe.Order{ID: 1, Status: bufe.StatusPlaced})

	m, msgs := step(m, frame(`{"type":"order_update",`))
	m, _ = step(m, frame(`{"type":"mystery"}`))

	if len(m.snapshot.Orders) != 1 {
		t.Fatalf("orders changed on malformed frame: %+v", m.snapshot.Orders)
	}
	if _, ok := findMsg[ordersLoadedMsg](msgs); ok || env.api.orderLoads != 0 {
		t.Fatalf("malformed frame triggered a reload")
	}
}

func TestUpdate_ReloadsOrdersAfterReconnect(t *testing.T) {
	m, env := newTestModel(t, bufe.Order{ID: 1, Status: bufe.StatusPlaced})
	env.api.orders = []bufe.Order{{ID: 1, Status: bufe.StatusPlaced}, {ID: 3, Status: bufe.StatusPlaced}}

	m, msgs := step(m, updateMsg{update: realtime.StatusUpdate{Status: realtime.StatusConnected}})
	if _, ok := findMsg[ordersLoadedMsg](msgs); ok {
		t.Fatalf("first connect should not reload")
	}

	m, _ = step(m, updateMsg{update: realtime.StatusUpdate{Status: realtime.StatusDisconnected}})
	m, _ = step(m, updateMsg{update: realtime.ReconnectScheduled{Attempt: 2, Delay: 3 * time.Second}})
	if !strings.Contains(m.renderHeader(), "Kapcsolat megszakadt") {
		t.Fatalf("header does not show the dropped channel: %q", m.renderHeader())
	}
	if !strings.Contains(m.renderHeader(), "3 mp") {
		t.Fatalf("header does not show the retry delay: %q", m.renderHeader())
	}

	m, msgs = step(m, updateMsg{update: realtime.StatusUpdate{Status: realtime.StatusConnected}})
	m = deliver(m, msgs)

	if env.api.orderLoads != 1 {
		t.Fatalf("order loads = %d, want 1", env.api.orderLoads)
	}
	if len(m.snapshot.Orders) != 2 {
		t.Fatalf("orders after reconnect = %d, want 2", len(m.snapshot.Orders))
	}
	if m.reconnect.Attempt != 0 {
		t.Fatalf("reconnect state not cleared: %+v", m.reconnect)
	}
}

func TestHandleKey_ReconnectAfterFailure(t *testing.T) {
	m, env := newTestModel(t)
	m, _ = step(m, updateMsg{update: realtime.StatusUpdate{Status: realtime.StatusFailed}})
	if !strings.Contains(m.renderHeader(), "Sikertelen kapcsolódás") {
		t.Fatalf("header = %q, want failed label", m.renderHeader())
	}

	m, _ = step(m, keyPress("R"))
	if env.conn.reconnects != 1 {
		t.Fatalf("reconnects = %d, want 1", env.conn.reconnects)
	}
}

func TestHandleKey_CycleFilterPersists(t *testing.T) {
	m, env := newTestModel(t,
		bufe.Order{ID: 1, Status: bufe.StatusPlaced},
		bufe.Order{ID: 2, Status: bufe.StatusConfirmed},
	)

	m, _ = step(m, keyPress("f"))
	if m.filter != state.Filter(bufe.StatusPlaced) {
		t.Fatalf("filter = %q, want leadva", m.filter)
	}
	if got := m.visibleOrders(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("visible = %+v, want order 1", got)
	}
	// The count is the whole mirror, not the filtered view.
	if !strings.Contains(m.renderHeader(), "2 rendelés") {
		t.Fatalf("header = %q, want 2 rendelés", m.renderHeader())
	}

	p, err := prefs.Load(env.prefs)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if p.OrderFilter != bufe.StatusPlaced {
		t.Fatalf("saved filter = %q, want leadva", p.OrderFilter)
	}

	m, _ = step(m, keyPress("F"))
	if m.filter != state.FilterAll {
		t.Fatalf("filter = %q, want all", m.filter)
	}
}

func TestHandleKey_SwitchScreens(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = step(m, keyPress("2"))
	if m.screen != ScreenMenu {
		t.Fatalf("screen = %v, want menu", m.screen)
	}
	m, _ = step(m, keyPress("tab"))
	if m.screen != ScreenHours {
		t.Fatalf("screen = %v, want hours", m.screen)
	}
	m, _ = step(m, keyPress("4"))
	if m.screen != ScreenLog || !m.logs.ticking {
		t.Fatalf("screen = %v ticking=%v, want log screen ticking", m.screen, m.logs.ticking)
	}
}

func TestLoaded_RecordsError(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = step(m, loadedMsg{err: errors.New("load orders: connection refused")})

	if m.snapshot.LastError == nil {
		t.Fatalf("load error not recorded")
	}
	if !strings.Contains(m.renderHeader(), "HIBA") {
		t.Fatalf("header = %q, want error indicator", m.renderHeader())
	}
}

func TestToastExpires(t *testing.T) {
	m, _ := newTestModel(t)
	m.showToast("Mentve")
	seq := m.toastSeq

	m, _ = step(m, toastExpiredMsg{seq: seq - 1})
	if m.toast == "" {
		t.Fatalf("stale expiry cleared the toast")
	}
	m, _ = step(m, toastExpiredMsg{seq: seq})
	if m.toast != "" {
		t.Fatalf("toast = %q, want cleared", m.toast)
	}
}

func TestParseScreen(t *testing.T) {
	cases := map[string]Screen{
		"":         ScreenOrders,
		"orders":   ScreenOrders,
		"Products": ScreenMenu,
		"menu":     ScreenMenu,
		"hours":    ScreenHours,
		" logs ":   ScreenLog,
	}
	for in, want := range cases {
		if got := ParseScreen(in); got != want {
			t.Fatalf("ParseScreen(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestView_BeforeSize(t *testing.T) {
	m := New(Options{PrefsPath: filepath.Join(t.TempDir(), "prefs.toml")})
	if got := m.View(); got != "Betöltés..." {
		t.Fatalf("View() = %q", got)
	}
}
