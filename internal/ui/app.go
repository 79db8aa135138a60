package ui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/bufeadmin/internal/bufe"
	"github.com/five82/bufeadmin/internal/prefs"
	"github.com/five82/bufeadmin/internal/realtime"
	"github.com/five82/bufeadmin/internal/state"
)

// Screen is the active top-level view.
type Screen int

const (
	ScreenOrders Screen = iota
	ScreenMenu
	ScreenHours
	ScreenLog
)

var screenOrder = []Screen{ScreenOrders, ScreenMenu, ScreenHours, ScreenLog}

// Title returns the tab caption.
func (s Screen) Title() string {
	switch s {
	case ScreenMenu:
		return "Termékek"
	case ScreenHours:
		return "Nyitvatartás"
	case ScreenLog:
		return "Napló"
	default:
		return "Rendelések"
	}
}

// ParseScreen maps a -screen flag value to a Screen.
func ParseScreen(value string) Screen {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "menu", "products":
		return ScreenMenu
	case "hours":
		return ScreenHours
	case "log", "logs":
		return ScreenLog
	default:
		return ScreenOrders
	}
}

// Connection is the realtime channel as the UI uses it.
type Connection interface {
	Updates() <-chan realtime.Update
	IsOpen() bool
	Status() realtime.Status
	Send(realtime.Outbound) error
	Reconnect()
}

// Notifier plays the new-order sound.
type Notifier interface {
	Play(ctx context.Context) error
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	API       bufe.API
	Store     *state.Store
	Conn      Connection
	Player    Notifier
	Logger    *slog.Logger
	LogFile   string
	ThemeName string
	Filter    string
	PrefsPath string
	Screen    string
}

// Timing constants.
const (
	toastDuration      = 2 * time.Second
	highlightDuration  = 2 * time.Second
	actionTimeout      = 10 * time.Second
	logRefreshInterval = 2 * time.Second
)

// Model is the root application state for Bubble Tea. Update is the only
// place the store and the filter change; REST results, channel updates and
// timers all arrive as messages.
type Model struct {
	// Dependencies
	ctx        context.Context
	api        bufe.API
	store      *state.Store
	conn       Connection
	player     Notifier
	logger     *slog.Logger
	logFile    string
	prefsPath  string
	keys       keyMap
	applier    *state.Applier
	dispatcher *realtime.Dispatcher

	// UI state
	theme    Theme
	screen   Screen
	width    int
	height   int
	ready    bool
	showHelp bool
	modal    Modal

	// Data state
	snapshot    state.Snapshot
	status      realtime.Status
	reconnect   realtime.ReconnectScheduled
	channelDown bool
	title       string

	// Orders
	filter   state.Filter
	orderRow int

	// Menu
	productRow int
	menu       menuState
	addPending bool

	// Opening hours
	hoursRow int

	// Transient feedback
	toast             string
	toastSeq          int
	orderHighlights   map[int64]int
	productHighlights map[int64]int
	highlightSeq      int

	// Log
	logs logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	applier := state.NewApplier(store)
	m := Model{
		ctx:               ctx,
		api:               opts.API,
		store:             store,
		conn:              opts.Conn,
		player:            opts.Player,
		logger:            logger.With("component", "ui"),
		logFile:           opts.LogFile,
		prefsPath:         prefsPath,
		keys:              DefaultKeyMap(),
		applier:           applier,
		dispatcher:        realtime.NewDispatcher(applier, logger),
		theme:             GetTheme(themeName),
		screen:            ParseScreen(opts.Screen),
		status:            realtime.StatusConnecting,
		filter:            state.ParseFilter(opts.Filter),
		menu:              newMenuState(),
		orderHighlights:   make(map[int64]int),
		productHighlights: make(map[int64]int),
		logs:              newLogState(),
	}
	if m.conn != nil {
		m.status = m.conn.Status()
	}
	m.snapshot = store.Snapshot()
	m.title = state.WindowTitle(len(m.snapshot.Orders))
	m.logs.ticking = m.screen == ScreenLog
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tea.SetWindowTitle(m.title),
		waitForUpdate(m.conn),
	}
	if m.screen == ScreenLog {
		cmds = append(cmds, m.fetchLogs(), logTickCmd())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeLogViewport()
		return m, nil

	case updateMsg:
		cmd := m.handleUpdate(msg.update)
		return m, tea.Batch(waitForUpdate(m.conn), cmd)

	case updatesClosedMsg:
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.store.RecordLoadError(msg.err)
			return m, m.refreshView()
		}
		m.store.Install(msg.loaded)
		return m, m.refreshView()

	case ordersLoadedMsg:
		if msg.err != nil {
			m.store.RecordLoadError(msg.err)
		} else {
			m.store.ReplaceOrders(msg.orders)
		}
		return m, m.refreshView()

	case productsLoadedMsg:
		if msg.err != nil {
			m.store.RecordLoadError(msg.err)
		} else {
			m.store.ReplaceProducts(msg.products)
		}
		return m, m.refreshView()

	case orderActionMsg:
		return m.handleOrderAction(msg)

	case archiveAllMsg:
		return m.handleArchiveAll(msg)

	case productFieldMsg:
		return m.handleProductField(msg)

	case productSavedMsg:
		return m.handleProductSaved(msg)

	case addProductSubmitMsg:
		return m.handleAddProductSubmit(msg)

	case productAddedMsg:
		return m.handleProductAdded(msg)

	case hoursFieldMsg:
		return m.handleHoursField(msg)

	case hoursSavedMsg:
		return m.handleHoursSaved(msg)

	case bufeStatusMsg:
		return m.handleBufeStatus(msg)

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case highlightExpiredMsg:
		highlights := m.orderHighlights
		if msg.product {
			highlights = m.productHighlights
		}
		if highlights[msg.id] == msg.seq {
			delete(highlights, msg.id)
		}
		return m, nil

	case logsMsg:
		m.handleLogs(msg)
		return m, nil

	case logTickMsg:
		if m.screen != ScreenLog {
			m.logs.ticking = false
			return m, nil
		}
		return m, tea.Batch(m.fetchLogs(), logTickCmd())
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Betöltés..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.renderModal()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.modal != nil {
		return m.updateModal(msg)
	}
	if m.screen == ScreenMenu && m.menu.searching {
		return m.handleMenuSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		m.logs.rendered = false
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchScreen(m.nextScreen(1))

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchScreen(m.nextScreen(-1))

	case key.Matches(msg, m.keys.ScreenOrders):
		return m.switchScreen(ScreenOrders)

	case key.Matches(msg, m.keys.ScreenMenu):
		return m.switchScreen(ScreenMenu)

	case key.Matches(msg, m.keys.ScreenHours):
		return m.switchScreen(ScreenHours)

	case key.Matches(msg, m.keys.ScreenLog):
		return m.switchScreen(ScreenLog)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadCmd()

	case key.Matches(msg, m.keys.Reconnect):
		if m.conn != nil {
			m.conn.Reconnect()
		}
		return m, nil
	}

	switch m.screen {
	case ScreenOrders:
		return m.handleOrdersKey(msg)
	case ScreenMenu:
		return m.handleMenuKey(msg)
	case ScreenHours:
		return m.handleHoursKey(msg)
	case ScreenLog:
		return m.handleLogKey(msg)
	}
	return m, nil
}

func (m Model) nextScreen(step int) Screen {
	for i, s := range screenOrder {
		if s == m.screen {
			return screenOrder[(i+step+len(screenOrder))%len(screenOrder)]
		}
	}
	return ScreenOrders
}

func (m Model) switchScreen(s Screen) (tea.Model, tea.Cmd) {
	m.screen = s
	if s == ScreenLog && !m.logs.ticking {
		m.logs.ticking = true
		return m, tea.Batch(m.fetchLogs(), logTickCmd())
	}
	return m, nil
}

// handleUpdate applies one channel update.
func (m *Model) handleUpdate(u realtime.Update) tea.Cmd {
	switch u := u.(type) {
	case realtime.StatusUpdate:
		m.status = u.Status
		switch u.Status {
		case realtime.StatusConnected:
			m.reconnect = realtime.ReconnectScheduled{}
			if m.channelDown {
				// Pushes may have been missed while the channel was down.
				m.channelDown = false
				return m.reloadOrdersCmd()
			}
		case realtime.StatusDisconnected, realtime.StatusFailed:
			m.channelDown = true
			m.abandonAddProduct()
		}
		return nil

	case realtime.ReconnectScheduled:
		m.reconnect = u
		return nil

	case realtime.FrameUpdate:
		if err := m.dispatcher.DispatchFrame(u.Data); err != nil {
			return nil
		}
		outcomes, responses := m.applier.Drain()
		var cmds []tea.Cmd
		for _, resp := range responses {
			cmds = append(cmds, m.handleAddProductResponse(resp))
		}
		for _, out := range outcomes {
			cmds = append(cmds, m.applyOutcome(out))
		}
		return tea.Batch(cmds...)
	}
	return nil
}

// applyOutcome turns a store outcome into UI side effects.
func (m *Model) applyOutcome(out state.Outcome) tea.Cmd {
	if !out.Changed {
		return nil
	}
	var cmds []tea.Cmd
	if out.Highlight != 0 {
		cmds = append(cmds, m.highlight(out.Highlight, out.Product))
	}
	if out.Notify {
		cmds = append(cmds, m.playCmd())
	}
	if out.Reload {
		if out.Product {
			cmds = append(cmds, m.reloadProductsCmd())
		} else {
			cmds = append(cmds, m.reloadOrdersCmd())
		}
	}
	cmds = append(cmds, m.refreshView())
	return tea.Batch(cmds...)
}

// refreshView re-reads the store and retitles the window when the count
// changed.
func (m *Model) refreshView() tea.Cmd {
	m.snapshot = m.store.Snapshot()
	m.orderRow = clamp(m.orderRow, len(m.visibleOrders()))
	m.productRow = clamp(m.productRow, len(m.visibleProducts()))
	m.hoursRow = clamp(m.hoursRow, len(m.snapshot.Hours.Hours))

	title := state.WindowTitle(len(m.snapshot.Orders))
	if title == m.title {
		return nil
	}
	m.title = title
	return tea.SetWindowTitle(title)
}

func (m *Model) highlight(id int64, product bool) tea.Cmd {
	m.highlightSeq++
	seq := m.highlightSeq
	if product {
		m.productHighlights[id] = seq
	} else {
		m.orderHighlights[id] = seq
	}
	return tea.Tick(highlightDuration, func(time.Time) tea.Msg {
		return highlightExpiredMsg{id: id, seq: seq, product: product}
	})
}

func (m *Model) showToast(text string) tea.Cmd {
	m.toastSeq++
	seq := m.toastSeq
	m.toast = text
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

func (m *Model) alert(op string, err error) {
	m.logger.Warn("action failed", "op", op, "error", err)
	m.modal = &alertModal{title: "Hiba", message: bufe.UserMessage(op, err), danger: true}
}

func (m *Model) savePrefs() {
	p := prefs.Prefs{Theme: m.theme.Name, OrderFilter: string(m.filter)}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn("save prefs failed", "error", err)
	}
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

// renderContent renders the main content area based on the current screen.
func (m Model) renderContent() string {
	switch m.screen {
	case ScreenMenu:
		return m.renderMenu()
	case ScreenHours:
		return m.renderHours()
	case ScreenLog:
		return m.renderLogs()
	default:
		return m.renderOrders()
	}
}

// contentHeight is the height left under the header and command bar.
func (m Model) contentHeight() int {
	return maxInt(m.height-2, 3)
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
