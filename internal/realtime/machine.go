package realtime

import (
	"fmt"
	"time"
)

// State is the lifecycle state of the realtime channel.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Status is the connection indicator shown to the operator.
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
	StatusFailed       Status = "failed"
)

// Event is an input to the connection state machine.
type Event int

const (
	// EventDial requests a connection.
	EventDial Event = iota
	// EventOpened reports a completed handshake.
	EventOpened
	// EventErrored reports a transport error. A close always follows.
	EventErrored
	// EventClosed reports that the connection went away.
	EventClosed
	// EventReconnectDue fires when a scheduled reconnect delay elapses.
	EventReconnectDue
	// EventHeartbeat fires on every heartbeat tick.
	EventHeartbeat
	// EventReset is a manual reconnect: the attempt budget is restored.
	EventReset
)

func (e Event) String() string {
	switch e {
	case EventDial:
		return "dial"
	case EventOpened:
		return "opened"
	case EventErrored:
		return "errored"
	case EventClosed:
		return "closed"
	case EventReconnectDue:
		return "reconnect_due"
	case EventHeartbeat:
		return "heartbeat"
	case EventReset:
		return "reset"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Effect is a side effect requested by the state machine. The set of effects
// is closed; see the types below.
type Effect interface {
	effect()
}

// SetStatus updates the connection indicator.
type SetStatus struct {
	Status Status
}

// ScheduleReconnect asks for EventReconnectDue after Delay.
type ScheduleReconnect struct {
	Attempt int
	Delay   time.Duration
}

// CancelReconnect drops a pending reconnect timer.
type CancelReconnect struct{}

// Dial opens a new connection.
type Dial struct{}

// SendPing writes a heartbeat frame.
type SendPing struct{}

func (SetStatus) effect()         {}
func (ScheduleReconnect) effect() {}
func (CancelReconnect) effect()   {}
func (Dial) effect()              {}
func (SendPing) effect()          {}

// Machine is the transport-free reconnect policy. It is not safe for
// concurrent use; the Manager drives it from a single goroutine.
type Machine struct {
	state   State
	attempt int
	pending bool
	failed  bool
}

// NewMachine returns a machine in StateClosed with a full attempt budget.
func NewMachine() *Machine {
	return &Machine{state: StateClosed}
}

// State returns the current lifecycle state.
func (m *Machine) State() State { return m.state }

// Attempt returns the reconnect attempt counter.
func (m *Machine) Attempt() int { return m.attempt }

// Failed reports whether automatic reconnects are exhausted.
func (m *Machine) Failed() bool { return m.failed }

// Handle applies ev and returns the resulting state with the effects the
// caller must perform, in order.
func (m *Machine) Handle(ev Event) (State, []Effect) {
	var effects []Effect
	switch ev {
	case EventDial:
		effects = m.dial()
	case EventOpened:
		if m.state != StateConnecting {
			break
		}
		m.state = StateOpen
		m.attempt = 0
		m.failed = false
		effects = []Effect{SetStatus{Status: StatusConnected}}
	case EventErrored:
		if m.state == StateOpen {
			m.state = StateClosing
		}
		effects = []Effect{SetStatus{Status: StatusError}}
	case EventClosed:
		if m.state == StateClosed {
			break
		}
		m.state = StateClosed
		effects = append([]Effect{SetStatus{Status: StatusDisconnected}}, m.scheduleReconnect()...)
	case EventReconnectDue:
		m.pending = false
		if m.failed {
			break
		}
		effects = m.dial()
	case EventHeartbeat:
		if m.state == StateOpen {
			effects = []Effect{SendPing{}}
		}
	case EventReset:
		m.attempt = 0
		m.failed = false
		if m.pending {
			m.pending = false
			effects = append(effects, CancelReconnect{})
		}
		effects = append(effects, m.dial()...)
	}
	return m.state, effects
}

func (m *Machine) dial() []Effect {
	if m.state != StateClosed {
		return nil
	}
	m.state = StateConnecting
	return []Effect{Dial{}}
}

func (m *Machine) scheduleReconnect() []Effect {
	if m.attempt >= MaxReconnectAttempts {
		m.failed = true
		return []Effect{SetStatus{Status: StatusFailed}}
	}
	m.attempt++
	m.pending = true
	return []Effect{ScheduleReconnect{Attempt: m.attempt, Delay: ReconnectDelay(m.attempt)}}
}
