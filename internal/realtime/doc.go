// Package realtime keeps the admin console subscribed to the büfé order
// channel.
//
// # Overview
//
// The backend pushes order and product changes over a WebSocket at
// /ws/bufe/orders/. The package is split into:
//
//   - machine.go: the transport-free reconnect policy (Machine.Handle)
//   - backoff.go: reconnect delays, min(1s·2^attempt, 30s)
//   - messages.go: the closed set of inbound and outbound frames
//   - dispatch.go: routes decoded frames to a Handler
//   - manager.go: owns the gorilla/websocket connection and drives Machine
//
// # Connection Lifecycle
//
//	connecting ──opened──> open ──error──> closing
//	     │                  │                 │
//	     └──────close───────┴──────close──────┴──> closed ──timer──> connecting
//
// A close schedules the next attempt until MaxReconnectAttempts is reached;
// after that the indicator reads "failed" and only Manager.Reconnect dials
// again. Opening a connection resets the attempt counter. Errors only update
// the indicator; the close that follows drives the reconnect.
//
// While open, a {"type":"ping"} frame is written every HeartbeatInterval.
// Ticks that find the channel in any other state are skipped.
//
// # Event Ordering
//
// Manager.Run is the only goroutine that touches the Machine. Dial results,
// read errors, frames and timer expiry are posted to it as events tagged
// with the connection generation or timer id they belong to, so a late
// event from a replaced connection or a cancelled timer is dropped.
//
// Frames leave the Manager as FrameUpdate values on Updates(); the consumer
// decodes and dispatches them in its own event loop, one at a time.
//
// # Malformed Frames
//
// Frames that are not JSON or carry an unknown type are logged and dropped
// by the Dispatcher.
package realtime
