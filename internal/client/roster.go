package client

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Fafaw945/quiz-app/internal/domain"
)

// RosterTracker is the single writer of the local roster. Each roster_snapshot
// replaces the roster wholesale; no consumer ever mutates an entry in place.
// On disconnect the roster is discarded so stale data cannot survive a
// reconnect: the next authoritative snapshot rebuilds it.
type RosterTracker struct {
	log zerolog.Logger

	mu      sync.RWMutex
	players []domain.Player
	offs    []func()
}

// TrackRoster subscribes to roster snapshots on the given bus.
func TrackRoster(bus Bus, log zerolog.Logger) *RosterTracker {
	t := &RosterTracker{log: log}
	t.offs = append(t.offs,
		bus.On(domain.EventRosterSnapshot, t.handleSnapshot),
		bus.On(domain.EventDisconnected, t.handleDisconnected),
	)
	return t
}

// Current returns a copy of the latest snapshot.
func (t *RosterTracker) Current() []domain.Player {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.Player, len(t.players))
	copy(out, t.players)
	return out
}

// Find looks a player up by ephemeral session id.
func (t *RosterTracker) Find(sessionID string) (domain.Player, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, p := range t.players {
		if p.ID == sessionID {
			return p, true
		}
	}
	return domain.Player{}, false
}

// FindParticipant looks a player up by durable participant id. This is how a
// client locates itself after the server assigned it a fresh session id.
func (t *RosterTracker) FindParticipant(participantID string) (domain.Player, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, p := range t.players {
		if p.ParticipantID == participantID {
			return p, true
		}
	}
	return domain.Player{}, false
}

// Close releases the snapshot subscriptions.
func (t *RosterTracker) Close() {
	for _, off := range t.offs {
		off()
	}
	t.offs = nil
}

func (t *RosterTracker) handleSnapshot(payload json.RawMessage) {
	var snap domain.RosterSnapshotPayload
	if err := json.Unmarshal(payload, &snap); err != nil {
		t.log.Warn().Err(err).Msg("ignoring malformed roster snapshot")
		return
	}
	seen := make(map[string]struct{}, len(snap.Players))
	for _, p := range snap.Players {
		if _, dup := seen[p.ID]; dup {
			t.log.Warn().Str("id", p.ID).Msg("ignoring snapshot with duplicate player id")
			return
		}
		seen[p.ID] = struct{}{}
	}

	t.mu.Lock()
	t.players = snap.Players
	t.mu.Unlock()
}

func (t *RosterTracker) handleDisconnected(json.RawMessage) {
	t.mu.Lock()
	t.players = nil
	t.mu.Unlock()
}
