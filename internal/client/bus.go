// Package client implements the realtime session core: one websocket channel
// to the game server plus the coordinators that reconcile its event stream
// into a consistent local view of phase, roster and per-question state.
package client

import "encoding/json"

// Handler consumes the raw payload of one named event.
type Handler func(payload json.RawMessage)

// Bus is the event surface the coordinators are written against. Conn is the
// production implementation; tests substitute an in-memory fake.
type Bus interface {
	// On registers a handler for a named event and returns its release
	// function. After the release returns, the handler receives no
	// further events.
	On(event string, h Handler) (off func())
	// Emit sends one typed payload to the server.
	Emit(event string, payload any) error
	// Connected reports whether the channel is currently established.
	Connected() bool
}
