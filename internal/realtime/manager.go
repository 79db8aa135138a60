package realtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout     = 5 * time.Second
	handshakeTimeout = 10 * time.Second
	updateBuffer     = 64
)

// Update is emitted by the Manager on its Updates channel.
type Update interface {
	update()
}

// StatusUpdate reports a new connection indicator value.
type StatusUpdate struct {
	Status Status
}

// ReconnectScheduled reports that attempt will be dialed after Delay.
type ReconnectScheduled struct {
	Attempt int
	Delay   time.Duration
}

// FrameUpdate carries one raw inbound frame for the Dispatcher.
type FrameUpdate struct {
	Data []byte
}

func (StatusUpdate) update()       {}
func (ReconnectScheduled) update() {}
func (FrameUpdate) update()        {}

// Options configure a Manager.
type Options struct {
	// URL is the ws:// or wss:// endpoint.
	URL string
	// Origin is sent with the handshake; the backend checks it against its
	// allowed hosts.
	Origin string
	// Jar supplies the session cookies for the handshake.
	Jar    http.CookieJar
	Logger *slog.Logger

	// HeartbeatInterval defaults to HeartbeatInterval.
	HeartbeatInterval time.Duration
	// Delay maps a reconnect attempt to its wait. Defaults to ReconnectDelay.
	Delay func(attempt int) time.Duration
}

// Manager owns the single realtime connection. Run drives the connection
// state machine from one goroutine; dials, reads and timers report back to
// it as events tagged with the connection they belong to, so events from a
// replaced connection are dropped.
type Manager struct {
	url       string
	header    http.Header
	dialer    *websocket.Dialer
	logger    *slog.Logger
	heartbeat time.Duration
	delay     func(int) time.Duration

	events  chan loopEvent
	frames  chan loopEvent
	reset   chan struct{}
	updates chan Update
	done    chan struct{}

	mu     sync.RWMutex
	conn   *websocket.Conn
	open   bool
	status Status

	writeMu sync.Mutex
}

type loopEvent struct {
	ev    Event
	gen   uint64
	timer uint64
	conn  *websocket.Conn
	data  []byte
	err   error
}

// NewManager validates opts and returns an idle Manager. Call Run to connect.
func NewManager(opts Options) (*Manager, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("realtime: url is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	heartbeat := opts.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = HeartbeatInterval
	}
	delay := opts.Delay
	if delay == nil {
		delay = ReconnectDelay
	}
	header := http.Header{}
	if opts.Origin != "" {
		header.Set("Origin", opts.Origin)
	}

	return &Manager{
		url:    opts.URL,
		header: header,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
			Jar:              opts.Jar,
		},
		logger:    logger.With("component", "realtime"),
		heartbeat: heartbeat,
		delay:     delay,
		events:    make(chan loopEvent),
		frames:    make(chan loopEvent),
		reset:     make(chan struct{}, 1),
		updates:   make(chan Update, updateBuffer),
		done:      make(chan struct{}),
		status:    StatusConnecting,
	}, nil
}

// Updates returns the channel of status changes and inbound frames. It is
// closed when Run returns.
func (m *Manager) Updates() <-chan Update {
	return m.updates
}

// IsOpen reports whether the channel is open for sending.
func (m *Manager) IsOpen() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.open
}

// Status returns the last indicator value.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Send writes msg to the open channel. It returns ErrNotOpen when the channel
// is not open; callers fall back to REST in that case.
func (m *Manager) Send(msg Outbound) error {
	m.mu.RLock()
	conn, open := m.conn, m.open
	m.mu.RUnlock()
	if !open || conn == nil {
		return ErrNotOpen
	}

	data, err := Encode(msg)
	if err != nil {
		return err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type(), err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type(), err)
	}
	return nil
}

// Reconnect restores the attempt budget and dials if no connection is live.
// A pending reconnect timer is cancelled. It never blocks; requests made
// before Run picks up the first one are merged.
func (m *Manager) Reconnect() {
	select {
	case m.reset <- struct{}{}:
	default:
	}
}

// Run connects and keeps the channel alive until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	defer close(m.updates)
	defer close(m.done)

	l := &loop{
		Manager: m,
		ctx:     ctx,
		machine: NewMachine(),
	}
	defer l.shutdown()

	ticker := time.NewTicker(m.heartbeat)
	defer ticker.Stop()

	l.handle(loopEvent{ev: EventDial})
	for {
		// Updates wait in l.pending so a slow consumer never stalls the
		// timers. Frames are only accepted while the queue has room, which
		// holds back the reader instead.
		var out chan<- Update
		var next Update
		if len(l.pending) > 0 {
			out, next = m.updates, l.pending[0]
		}
		frames := m.frames
		if len(l.pending) >= updateBuffer {
			frames = nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.handle(loopEvent{ev: EventHeartbeat})
		case <-m.reset:
			l.handle(loopEvent{ev: EventReset})
		case ev := <-m.events:
			l.handle(ev)
		case ev := <-frames:
			l.handle(ev)
		case out <- next:
			l.pending[0] = nil
			l.pending = l.pending[1:]
		}
	}
}

// post hands ev to the Run loop, or drops it once Run has returned.
func (m *Manager) post(ev loopEvent) {
	select {
	case m.events <- ev:
	case <-m.done:
		if ev.conn != nil {
			_ = ev.conn.Close()
		}
	}
}

// postFrame hands an inbound frame to the Run loop. It blocks while the
// update queue is full.
func (m *Manager) postFrame(ev loopEvent) {
	select {
	case m.frames <- ev:
	case <-m.done:
	}
}

// loop holds the state owned by the Run goroutine.
type loop struct {
	*Manager
	ctx     context.Context
	machine *Machine

	gen     uint64
	live    *websocket.Conn
	timer   *time.Timer
	timerID uint64
	pending []Update
}

func (l *loop) emit(u Update) {
	l.pending = append(l.pending, u)
}

func (l *loop) handle(ev loopEvent) {
	if ev.data != nil {
		if ev.gen == l.gen {
			l.emit(FrameUpdate{Data: ev.data})
		}
		return
	}

	switch ev.ev {
	case EventDial, EventHeartbeat, EventReset:
	case EventReconnectDue:
		if ev.timer != l.timerID {
			return
		}
		l.timer = nil
	default:
		if ev.gen != l.gen {
			if ev.conn != nil {
				_ = ev.conn.Close()
			}
			return
		}
	}

	switch ev.ev {
	case EventOpened:
		l.attach(ev.conn)
	case EventErrored:
		l.logger.Warn("realtime connection error", "error", ev.err)
		l.setOpen(false)
	case EventClosed:
		l.detach()
	}

	state, effects := l.machine.Handle(ev.ev)
	l.logger.Debug("realtime event", "event", ev.ev, "state", state, "attempt", l.machine.Attempt())
	for _, effect := range effects {
		l.perform(effect)
	}
}

func (l *loop) perform(effect Effect) {
	switch e := effect.(type) {
	case SetStatus:
		l.mu.Lock()
		l.status = e.Status
		l.mu.Unlock()
		l.logger.Info("realtime status", "status", e.Status)
		l.emit(StatusUpdate{Status: e.Status})
	case ScheduleReconnect:
		l.timerID++
		id := l.timerID
		delay := l.delay(e.Attempt)
		l.logger.Info("realtime reconnect scheduled", "attempt", e.Attempt, "max_attempts", MaxReconnectAttempts, "delay", delay)
		l.timer = time.AfterFunc(delay, func() {
			l.post(loopEvent{ev: EventReconnectDue, timer: id})
		})
		l.emit(ReconnectScheduled{Attempt: e.Attempt, Delay: delay})
	case CancelReconnect:
		l.stopTimer()
	case Dial:
		l.dial()
	case SendPing:
		if err := l.Send(Ping{}); err != nil {
			l.logger.Debug("heartbeat skipped", "error", err)
		}
	}
}

func (l *loop) dial() {
	l.gen++
	gen := l.gen
	l.logger.Debug("realtime dialing", "url", l.url)
	go func() {
		conn, resp, err := l.dialer.DialContext(l.ctx, l.url, l.header)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			if resp != nil {
				err = fmt.Errorf("handshake status %d: %w", resp.StatusCode, err)
			}
			l.post(loopEvent{ev: EventErrored, gen: gen, err: err})
			l.post(loopEvent{ev: EventClosed, gen: gen})
			return
		}
		l.post(loopEvent{ev: EventOpened, gen: gen, conn: conn})
	}()
}

func (l *loop) attach(conn *websocket.Conn) {
	l.live = conn
	l.mu.Lock()
	l.conn = conn
	l.open = true
	l.mu.Unlock()
	go l.read(l.gen, conn)
}

func (l *loop) read(gen uint64, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				l.post(loopEvent{ev: EventErrored, gen: gen, err: err})
			}
			l.post(loopEvent{ev: EventClosed, gen: gen})
			return
		}
		if data == nil {
			data = []byte{}
		}
		l.postFrame(loopEvent{gen: gen, data: data})
	}
}

func (l *loop) setOpen(open bool) {
	l.mu.Lock()
	l.open = open
	l.mu.Unlock()
}

func (l *loop) detach() {
	l.mu.Lock()
	l.open = false
	l.conn = nil
	l.mu.Unlock()
	if l.live != nil {
		_ = l.live.Close()
		l.live = nil
	}
}

func (l *loop) stopTimer() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.timerID++
}

func (l *loop) shutdown() {
	l.stopTimer()
	if l.live != nil {
		l.writeMu.Lock()
		_ = l.live.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		l.writeMu.Unlock()
	}
	l.detach()
}
