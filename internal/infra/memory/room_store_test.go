package memory

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/Fafaw945/quiz-app/internal/domain"
	"github.com/Fafaw945/quiz-app/internal/game"
)

func newTestStore() *RoomStore {
	cfg := game.Config{MinPlayers: 2, DefaultTimeLimit: 10, StartDelay: time.Second, RevealPause: time.Second}
	return NewRoomStore(func(id string) *game.Room {
		return game.NewRoom(id, cfg, clockwork.NewFakeClock(), zerolog.Nop())
	})
}

func TestRoomStoreGetOrCreate(t *testing.T) {
	store := newTestStore()

	room := store.GetOrCreate("r1")
	if room == nil {
		t.Fatalf("expected room created")
	}
	if again := store.GetOrCreate("r1"); again != room {
		t.Fatalf("expected same room instance")
	}

	got, ok := store.Get("r1")
	if !ok || got != room {
		t.Fatalf("expected Get to find the room")
	}
	if _, ok := store.Get("missing"); ok {
		t.Fatalf("expected missing room to be absent")
	}
}

func TestRoomStoreDeleteIfEmpty(t *testing.T) {
	store := newTestStore()

	room := store.GetOrCreate("r1")
	out := make(chan domain.Envelope, 8)
	if err := room.Join("c1", out, domain.IdentityPayload{ParticipantID: "p1", Pseudo: "Ana"}); err != nil {
		t.Fatalf("join: %v", err)
	}

	// Occupied rooms survive.
	store.DeleteIfEmpty("r1")
	if _, ok := store.Get("r1"); !ok {
		t.Fatalf("expected occupied room kept")
	}

	room.Leave("c1")
	store.DeleteIfEmpty("r1")
	if _, ok := store.Get("r1"); ok {
		t.Fatalf("expected empty room removed")
	}

	// Unknown ids are a no-op.
	store.DeleteIfEmpty("missing")
}
