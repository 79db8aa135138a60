package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduled(effects []Effect) (ScheduleReconnect, bool) {
	for _, e := range effects {
		if s, ok := e.(ScheduleReconnect); ok {
			return s, true
		}
	}
	return ScheduleReconnect{}, false
}

func statuses(effects []Effect) []Status {
	var out []Status
	for _, e := range effects {
		if s, ok := e.(SetStatus); ok {
			out = append(out, s.Status)
		}
	}
	return out
}

// failDial drives one dial that never opens: error followed by close.
func failDial(t *testing.T, m *Machine) []Effect {
	t.Helper()
	_, effects := m.Handle(EventErrored)
	assert.Equal(t, []Status{StatusError}, statuses(effects))
	_, effects = m.Handle(EventClosed)
	return effects
}

func TestMachine_DialOnlyOnceWhileLive(t *testing.T) {
	m := NewMachine()

	state, effects := m.Handle(EventDial)
	assert.Equal(t, StateConnecting, state)
	assert.Equal(t, []Effect{Dial{}}, effects)

	_, effects = m.Handle(EventDial)
	assert.Empty(t, effects, "a second dial must not overlap the first")

	state, effects = m.Handle(EventOpened)
	assert.Equal(t, StateOpen, state)
	assert.Equal(t, []Status{StatusConnected}, statuses(effects))

	_, effects = m.Handle(EventDial)
	assert.Empty(t, effects)
}

func TestMachine_BackoffSequenceStopsAfterFive(t *testing.T) {
	m := NewMachine()
	m.Handle(EventDial)

	for attempt := 1; attempt <= MaxReconnectAttempts; attempt++ {
		effects := failDial(t, m)
		assert.Equal(t, StatusDisconnected, statuses(effects)[0])
		s, ok := scheduled(effects)
		require.True(t, ok, "attempt %d should be scheduled", attempt)
		assert.Equal(t, attempt, s.Attempt)
		assert.Equal(t, ReconnectDelay(attempt), s.Delay)

		state, effects := m.Handle(EventReconnectDue)
		assert.Equal(t, StateConnecting, state)
		assert.Equal(t, []Effect{Dial{}}, effects)
	}

	effects := failDial(t, m)
	_, ok := scheduled(effects)
	assert.False(t, ok, "no sixth attempt may be scheduled")
	assert.Equal(t, []Status{StatusDisconnected, StatusFailed}, statuses(effects))
	assert.True(t, m.Failed())

	state, effects := m.Handle(EventReconnectDue)
	assert.Equal(t, StateClosed, state)
	assert.Empty(t, effects)
}

func TestMachine_OpenResetsAttemptCounter(t *testing.T) {
	m := NewMachine()
	m.Handle(EventDial)

	failDial(t, m)
	m.Handle(EventReconnectDue)
	effects := failDial(t, m)
	s, _ := scheduled(effects)
	require.Equal(t, 2, s.Attempt)
	m.Handle(EventReconnectDue)

	m.Handle(EventOpened)
	assert.Equal(t, 0, m.Attempt())

	_, effects = m.Handle(EventClosed)
	s, ok := scheduled(effects)
	require.True(t, ok)
	assert.Equal(t, 1, s.Attempt)
	assert.Equal(t, ReconnectDelay(1), s.Delay)
}

func TestMachine_ErrorDoesNotScheduleReconnect(t *testing.T) {
	m := NewMachine()
	m.Handle(EventDial)
	m.Handle(EventOpened)

	state, effects := m.Handle(EventErrored)
	assert.Equal(t, StateClosing, state)
	_, ok := scheduled(effects)
	assert.False(t, ok)

	state, effects = m.Handle(EventClosed)
	assert.Equal(t, StateClosed, state)
	_, ok = scheduled(effects)
	assert.True(t, ok)

	_, effects = m.Handle(EventClosed)
	assert.Empty(t, effects, "duplicate close must not schedule twice")
}

func TestMachine_HeartbeatOnlyWhenOpen(t *testing.T) {
	m := NewMachine()

	_, effects := m.Handle(EventHeartbeat)
	assert.Empty(t, effects, "closed")

	m.Handle(EventDial)
	_, effects = m.Handle(EventHeartbeat)
	assert.Empty(t, effects, "connecting")

	m.Handle(EventOpened)
	_, effects = m.Handle(EventHeartbeat)
	assert.Equal(t, []Effect{SendPing{}}, effects)

	m.Handle(EventErrored)
	_, effects = m.Handle(EventHeartbeat)
	assert.Empty(t, effects, "closing")
}

func TestMachine_ResetCancelsPendingReconnect(t *testing.T) {
	m := NewMachine()
	m.Handle(EventDial)
	failDial(t, m)

	state, effects := m.Handle(EventReset)
	assert.Equal(t, StateConnecting, state)
	assert.Equal(t, []Effect{CancelReconnect{}, Dial{}}, effects)
	assert.Equal(t, 0, m.Attempt())
}

func TestMachine_ResetRecoversFromFailed(t *testing.T) {
	m := NewMachine()
	m.Handle(EventDial)
	for i := 0; i < MaxReconnectAttempts; i++ {
		failDial(t, m)
		m.Handle(EventReconnectDue)
	}
	failDial(t, m)
	require.True(t, m.Failed())

	state, effects := m.Handle(EventReset)
	assert.Equal(t, StateConnecting, state)
	assert.Equal(t, []Effect{Dial{}}, effects)
	assert.False(t, m.Failed())
}

func TestStateAndEventStrings(t *testing.T) {
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(42).String())
	assert.Equal(t, "reconnect_due", EventReconnectDue.String())
	assert.Equal(t, "event(99)", Event(99).String())
}
