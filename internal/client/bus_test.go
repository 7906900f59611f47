package client

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/Fafaw945/quiz-app/internal/domain"
)

// fakeBus drives coordinators synchronously in tests: dispatch runs every
// handler on the calling goroutine, the way the single reader goroutine does.
type fakeBus struct {
	mu        sync.Mutex
	connected bool
	handlers  map[string]map[int]Handler
	nextSub   int
	emitted   []emittedEvent
	emitErr   error
}

type emittedEvent struct {
	event   string
	payload json.RawMessage
}

func newFakeBus(connected bool) *fakeBus {
	return &fakeBus{
		connected: connected,
		handlers:  make(map[string]map[int]Handler),
	}
}

func (b *fakeBus) On(event string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[event] == nil {
		b.handlers[event] = make(map[int]Handler)
	}
	id := b.nextSub
	b.nextSub++
	b.handlers[event][id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[event], id)
	}
}

func (b *fakeBus) Emit(event string, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.emitErr != nil {
		return b.emitErr
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.emitted = append(b.emitted, emittedEvent{event: event, payload: raw})
	return nil
}

func (b *fakeBus) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *fakeBus) setConnected(connected bool) {
	b.mu.Lock()
	b.connected = connected
	b.mu.Unlock()
}

func (b *fakeBus) setEmitErr(err error) {
	b.mu.Lock()
	b.emitErr = err
	b.mu.Unlock()
}

// dispatch marshals payload and invokes every handler for the event.
func (b *fakeBus) dispatch(t *testing.T, event string, payload any) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal %s payload: %v", event, err)
		}
		raw = data
	}
	b.mu.Lock()
	subs := make([]Handler, 0, len(b.handlers[event]))
	for _, h := range b.handlers[event] {
		subs = append(subs, h)
	}
	b.mu.Unlock()
	for _, h := range subs {
		h(raw)
	}
}

func (b *fakeBus) emittedOf(event string) []emittedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []emittedEvent
	for _, e := range b.emitted {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func snapshotOf(players ...domain.Player) domain.RosterSnapshotPayload {
	return domain.RosterSnapshotPayload{Players: players}
}
