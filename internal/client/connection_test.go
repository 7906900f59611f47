package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Fafaw945/quiz-app/internal/domain"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestConnDispatchAndEmit(t *testing.T) {
	received := make(chan domain.Envelope, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		snap, _ := domain.NewEnvelope(domain.EventRosterSnapshot, domain.RosterSnapshotPayload{
			Players: []domain.Player{{ID: "s1", ParticipantID: "p1", Pseudo: "Ana"}},
		})
		if err := ws.WriteJSON(snap); err != nil {
			return
		}
		for {
			var env domain.Envelope
			if err := ws.ReadJSON(&env); err != nil {
				return
			}
			received <- env
		}
	}))
	defer server.Close()

	conn := NewConn(wsURL(server), WithBackoff(10*time.Millisecond, 100*time.Millisecond))

	connected := make(chan struct{}, 4)
	conn.On(domain.EventConnected, func(json.RawMessage) { connected <- struct{}{} })
	snapshots := make(chan domain.RosterSnapshotPayload, 4)
	conn.On(domain.EventRosterSnapshot, func(payload json.RawMessage) {
		var snap domain.RosterSnapshotPayload
		if err := json.Unmarshal(payload, &snap); err == nil {
			snapshots <- snap
		}
	})

	// Emitting before Open must fail cleanly, not panic.
	if err := conn.Emit(domain.EventToggleReady, nil); !errors.Is(err, domain.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected before open, got %v", err)
	}

	conn.Open()
	defer conn.Close()
	waitSignal(t, connected, "connected event")

	select {
	case snap := <-snapshots:
		if len(snap.Players) != 1 || snap.Players[0].Pseudo != "Ana" {
			t.Fatalf("unexpected snapshot: %+v", snap)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no snapshot dispatched")
	}

	if !conn.Connected() {
		t.Fatalf("expected Connected true")
	}
	if err := conn.Emit(domain.EventToggleReady, domain.ToggleReadyPayload{ParticipantID: "p1"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	select {
	case env := <-received:
		if env.Type != domain.EventToggleReady {
			t.Fatalf("expected toggle_ready on the wire, got %s", env.Type)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server never saw the frame")
	}
}

func TestConnReconnectsWithSyntheticEvents(t *testing.T) {
	var dials atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n := dials.Add(1)
		if n == 1 {
			// Drop the first connection immediately.
			ws.Close()
			return
		}
		defer ws.Close()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	conn := NewConn(wsURL(server), WithBackoff(10*time.Millisecond, 50*time.Millisecond))

	connected := make(chan struct{}, 4)
	disconnected := make(chan struct{}, 4)
	conn.On(domain.EventConnected, func(json.RawMessage) { connected <- struct{}{} })
	conn.On(domain.EventDisconnected, func(json.RawMessage) { disconnected <- struct{}{} })

	conn.Open()
	defer conn.Close()

	waitSignal(t, connected, "first connect")
	waitSignal(t, disconnected, "disconnect after drop")
	waitSignal(t, connected, "reconnect")
	if dials.Load() < 2 {
		t.Fatalf("expected a second dial, got %d", dials.Load())
	}
}

func TestConnIgnoresMalformedFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		_ = ws.WriteMessage(websocket.TextMessage, []byte("not json at all"))
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"payload":{}}`))
		valid, _ := domain.NewEnvelope(domain.EventSessionStarted, nil)
		_ = ws.WriteJSON(valid)

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	conn := NewConn(wsURL(server), WithBackoff(10*time.Millisecond, 100*time.Millisecond))
	started := make(chan struct{}, 1)
	conn.On(domain.EventSessionStarted, func(json.RawMessage) { started <- struct{}{} })

	conn.Open()
	defer conn.Close()

	// The garbage before it is dropped; the valid frame still lands.
	waitSignal(t, started, "session_started after malformed frames")
}

func TestConnOffReleasesHandler(t *testing.T) {
	conn := NewConn("ws://never-dialed.invalid")
	calls := 0
	off := conn.On(domain.EventSessionStarted, func(json.RawMessage) { calls++ })

	conn.dispatch(domain.EventSessionStarted, nil)
	off()
	conn.dispatch(domain.EventSessionStarted, nil)
	if calls != 1 {
		t.Fatalf("expected 1 call after release, got %d", calls)
	}
}
