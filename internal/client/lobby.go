package client

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Fafaw945/quiz-app/internal/domain"
)

// LobbyState is the pre-game state machine of one client.
type LobbyState int

const (
	// LobbyAwaitingIdentity means the identity has not been sent on the
	// current connection yet.
	LobbyAwaitingIdentity LobbyState = iota
	// LobbyJoined means submit_identity went out on this connection.
	LobbyJoined
	// LobbyStartRequested means request_start went out; the phase change
	// still only happens on session_started.
	LobbyStartRequested
	// LobbyStarted means the server confirmed the start.
	LobbyStarted
)

// Lobby coordinates roster and readiness before a session starts and gates
// the start request. Identity is sent exactly once per successful connection,
// driven by the connected event rather than call order. Ready toggles are pure
// intents: the roster snapshot that follows is the only source of truth, so a
// rejected toggle cannot stick visually. The transient pending flag lives
// here, outside the roster, and clears on the next snapshot.
type Lobby struct {
	bus      Bus
	roster   *RosterTracker
	identity domain.Identity
	log      zerolog.Logger

	mu             sync.Mutex
	state          LobbyState
	joinedThisConn bool
	pendingReady   bool
	noticeFn       func(message string)
	offs           []func()
}

// NewLobby wires a lobby coordinator onto the bus. It fails with
// ErrNoIdentity when no participant id is present: the caller must route
// through the entry flow first.
func NewLobby(bus Bus, roster *RosterTracker, identity domain.Identity, log zerolog.Logger) (*Lobby, error) {
	if identity.ParticipantID == "" {
		return nil, domain.ErrNoIdentity
	}
	l := &Lobby{
		bus:      bus,
		roster:   roster,
		identity: identity,
		log:      log,
	}
	l.offs = append(l.offs,
		bus.On(domain.EventConnected, l.handleConnected),
		bus.On(domain.EventDisconnected, l.handleDisconnected),
		bus.On(domain.EventRosterSnapshot, l.handleSnapshot),
		bus.On(domain.EventSessionStarted, l.handleStarted),
		bus.On(domain.EventErrorNotice, l.handleNotice),
	)
	// The channel may already be up when the lobby view mounts.
	if bus.Connected() {
		l.join()
	}
	return l, nil
}

// State returns the current lobby state.
func (l *Lobby) State() LobbyState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// PendingReady reports an optimistic toggle not yet confirmed by a snapshot.
func (l *Lobby) PendingReady() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pendingReady
}

// OnNotice registers the sink for transient server messages. Notices never
// change lobby state.
func (l *Lobby) OnNotice(fn func(message string)) {
	l.mu.Lock()
	l.noticeFn = fn
	l.mu.Unlock()
}

// ToggleReady sends a readiness-change intent. No local roster mutation is
// applied; the next snapshot decides.
func (l *Lobby) ToggleReady() error {
	if err := l.bus.Emit(domain.EventToggleReady, domain.ToggleReadyPayload{
		ParticipantID: l.identity.ParticipantID,
	}); err != nil {
		return err
	}
	l.mu.Lock()
	l.pendingReady = true
	l.mu.Unlock()
	return nil
}

// RequestStart asks the server to begin the session. It is refused locally,
// without contacting the server, unless the caller is the admin of the
// current snapshot, the roster has at least two players and every non-admin
// player is ready. The admin itself is exempt from readiness: the entry flow
// never offers the admin a ready control, so requiring it would deadlock the
// start. Even on success the lobby only reaches Started when the server
// confirms with session_started.
func (l *Lobby) RequestStart() error {
	players := l.roster.Current()
	me, ok := findParticipant(players, l.identity.ParticipantID)
	if !ok || !me.IsAdmin {
		return domain.ErrNotAdmin
	}
	if len(players) < 2 {
		return domain.ErrLobbyNotReady
	}
	for _, p := range players {
		if !p.IsAdmin && !p.IsReady {
			return domain.ErrLobbyNotReady
		}
	}

	if err := l.bus.Emit(domain.EventRequestStart, domain.RequestStartPayload{
		AdminParticipantID: l.identity.ParticipantID,
	}); err != nil {
		return err
	}
	l.mu.Lock()
	if l.state == LobbyJoined {
		l.state = LobbyStartRequested
	}
	l.mu.Unlock()
	return nil
}

// Close releases every subscription synchronously.
func (l *Lobby) Close() {
	for _, off := range l.offs {
		off()
	}
	l.offs = nil
}

func (l *Lobby) handleConnected(json.RawMessage) {
	l.join()
}

// join sends the identity once per connection success. The guard keeps a
// double-fired connected event from producing a second submit_identity.
func (l *Lobby) join() {
	l.mu.Lock()
	if l.joinedThisConn {
		l.mu.Unlock()
		return
	}
	l.joinedThisConn = true
	l.mu.Unlock()

	if err := l.bus.Emit(domain.EventSubmitIdentity, domain.IdentityPayload{
		Pseudo:        l.identity.Pseudo,
		ParticipantID: l.identity.ParticipantID,
		IsAdmin:       l.identity.IsAdmin,
	}); err != nil {
		l.log.Warn().Err(err).Msg("identity send failed")
		l.mu.Lock()
		l.joinedThisConn = false
		l.mu.Unlock()
		return
	}

	l.mu.Lock()
	if l.state == LobbyAwaitingIdentity {
		l.state = LobbyJoined
	}
	l.mu.Unlock()
}

func (l *Lobby) handleDisconnected(json.RawMessage) {
	l.mu.Lock()
	l.joinedThisConn = false
	l.pendingReady = false
	if l.state != LobbyStarted {
		l.state = LobbyAwaitingIdentity
	}
	l.mu.Unlock()
}

func (l *Lobby) handleSnapshot(json.RawMessage) {
	l.mu.Lock()
	l.pendingReady = false
	l.mu.Unlock()
}

func (l *Lobby) handleStarted(json.RawMessage) {
	l.mu.Lock()
	l.state = LobbyStarted
	l.mu.Unlock()
}

func (l *Lobby) handleNotice(payload json.RawMessage) {
	var notice domain.ErrorNoticePayload
	if err := json.Unmarshal(payload, &notice); err != nil {
		l.log.Warn().Err(err).Msg("ignoring malformed error notice")
		return
	}
	l.mu.Lock()
	fn := l.noticeFn
	l.mu.Unlock()
	if fn != nil {
		fn(notice.Message)
	}
}

func findParticipant(players []domain.Player, participantID string) (domain.Player, bool) {
	for _, p := range players {
		if p.ParticipantID == participantID {
			return p, true
		}
	}
	return domain.Player{}, false
}
