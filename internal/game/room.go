package game

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/Fafaw945/quiz-app/internal/domain"
)

// Config tunes the authoritative question loop.
type Config struct {
	// MinPlayers gates the start request.
	MinPlayers int
	// DefaultTimeLimit applies when a question record carries none.
	DefaultTimeLimit int
	// StartDelay is the pause between session_started and the first question.
	StartDelay time.Duration
	// RevealPause is the pause after a reveal before advancing.
	RevealPause time.Duration
}

func (c Config) withDefaults() Config {
	if c.MinPlayers <= 0 {
		c.MinPlayers = 2
	}
	if c.DefaultTimeLimit <= 0 {
		c.DefaultTimeLimit = 15
	}
	if c.StartDelay <= 0 {
		c.StartDelay = 3 * time.Second
	}
	if c.RevealPause <= 0 {
		c.RevealPause = 3 * time.Second
	}
	return c
}

type playerState struct {
	connID        string
	participantID string
	pseudo        string
	isAdmin       bool
	ready         bool
	score         int
	answered      bool
}

// Room is one shared session: a roster negotiating readiness in the lobby,
// then an authoritative question loop. The room is the sole arbiter of phase
// transitions and roster ordering; clients only consume the event stream it
// broadcasts. Every roster change goes out as a full snapshot, never a delta.
type Room struct {
	id    string
	cfg   Config
	clock clockwork.Clock
	log   zerolog.Logger

	mu        sync.Mutex
	phase     domain.Phase
	players   []*playerState
	outputs   map[string]chan<- domain.Envelope
	questions []domain.QuestionRecord
	current   int
	epoch     int
	pending   clockwork.Timer
}

// NewRoom builds an empty lobby.
func NewRoom(id string, cfg Config, clock clockwork.Clock, log zerolog.Logger) *Room {
	return &Room{
		id:      id,
		cfg:     cfg.withDefaults(),
		clock:   clock,
		log:     log.With().Str("room", id).Logger(),
		phase:   domain.PhaseLobby,
		outputs: make(map[string]chan<- domain.Envelope),
		current: -1,
	}
}

// Join registers a connection under the given identity. A participant already
// in the roster is reattached to the new connection (reconnect), keeping its
// score; unknown participants are admitted only while the room is in the
// lobby phase.
func (r *Room) Join(connID string, out chan<- domain.Envelope, ident domain.IdentityPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.byParticipantLocked(ident.ParticipantID); existing != nil {
		delete(r.outputs, existing.connID)
		existing.connID = connID
		existing.pseudo = ident.Pseudo
		r.outputs[connID] = out
		r.log.Info().Str("participant", ident.ParticipantID).Msg("participant reattached")
		r.broadcastSnapshotLocked()
		return nil
	}

	if r.phase != domain.PhaseLobby {
		return domain.ErrSessionInProgress
	}

	r.players = append(r.players, &playerState{
		connID:        connID,
		participantID: ident.ParticipantID,
		pseudo:        ident.Pseudo,
		isAdmin:       ident.IsAdmin,
	})
	r.outputs[connID] = out
	r.log.Info().Str("participant", ident.ParticipantID).Str("pseudo", ident.Pseudo).Int("players", len(r.players)).Msg("player joined")
	r.broadcastSnapshotLocked()
	return nil
}

// Leave drops the connection and its player from the roster.
func (r *Room) Leave(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.outputs, connID)
	for i, p := range r.players {
		if p.connID == connID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			r.log.Info().Str("participant", p.participantID).Int("players", len(r.players)).Msg("player left")
			r.broadcastSnapshotLocked()
			return
		}
	}
}

// ToggleReady flips the readiness of the player behind the connection. Only
// meaningful in the lobby.
func (r *Room) ToggleReady(connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != domain.PhaseLobby {
		return domain.ErrSessionInProgress
	}
	p := r.byConnLocked(connID)
	if p == nil {
		return domain.ErrPlayerNotFound
	}
	p.ready = !p.ready
	r.broadcastSnapshotLocked()
	return nil
}

// RequestStart begins the session with the given questions. The server-side
// preconditions mirror the client-side gate: requester is admin, roster has
// at least MinPlayers, every non-admin player is ready.
func (r *Room) RequestStart(connID string, questions []domain.QuestionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != domain.PhaseLobby {
		return domain.ErrSessionInProgress
	}
	p := r.byConnLocked(connID)
	if p == nil {
		return domain.ErrPlayerNotFound
	}
	if !p.isAdmin {
		return domain.ErrNotAdmin
	}
	if len(r.players) < r.cfg.MinPlayers {
		return domain.ErrLobbyNotReady
	}
	for _, pl := range r.players {
		if !pl.isAdmin && !pl.ready {
			return domain.ErrLobbyNotReady
		}
	}

	r.questions = questions
	r.current = -1
	r.epoch++
	r.phase = domain.PhaseCountdown
	for _, pl := range r.players {
		pl.score = 0
		pl.answered = false
	}

	r.log.Info().Int("questions", len(questions)).Msg("session started")
	r.broadcastLocked(domain.EventSessionStarted, nil)
	r.broadcastSnapshotLocked()

	epoch := r.epoch
	r.scheduleLocked(r.cfg.StartDelay, func() { r.advance(epoch) })
	return nil
}

// SubmitAnswer records one answer for the active question. The durable
// participant id is what the room trusts: a client that reconnected mid-
// question keeps its at-most-once guarantee through it.
func (r *Room) SubmitAnswer(sub domain.AnswerSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != domain.PhaseQuestion {
		return domain.ErrNoActiveQuestion
	}
	q := r.questions[r.current]
	if sub.QuestionID != q.ID {
		return domain.ErrNoActiveQuestion
	}
	p := r.byParticipantLocked(sub.ParticipantID)
	if p == nil {
		return domain.ErrPlayerNotFound
	}
	if p.answered {
		return domain.ErrAlreadyAnswered
	}

	p.answered = true
	if sub.ChosenOption == q.CorrectOption() {
		p.score++
	}
	r.broadcastSnapshotLocked()

	if r.allAnsweredLocked() {
		// No reason to let the clock run out.
		r.revealLocked()
	}
	return nil
}

// IsEmpty reports whether nothing is connected to the room.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players) == 0 && len(r.outputs) == 0
}

func (r *Room) byConnLocked(connID string) *playerState {
	for _, p := range r.players {
		if p.connID == connID {
			return p
		}
	}
	return nil
}

func (r *Room) byParticipantLocked(participantID string) *playerState {
	if participantID == "" {
		return nil
	}
	for _, p := range r.players {
		if p.participantID == participantID {
			return p
		}
	}
	return nil
}

func (r *Room) allAnsweredLocked() bool {
	for _, p := range r.players {
		if !p.answered {
			return false
		}
	}
	return len(r.players) > 0
}

// advance moves to the next question or finishes the session. Stale timers
// from a superseded run are filtered by epoch.
func (r *Room) advance(epoch int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if epoch != r.epoch || (r.phase != domain.PhaseCountdown && r.phase != domain.PhaseRevealed) {
		return
	}

	r.current++
	if r.current >= len(r.questions) {
		r.finishLocked()
		return
	}

	r.phase = domain.PhaseQuestion
	for _, p := range r.players {
		p.answered = false
	}
	r.broadcastSnapshotLocked()

	q := r.questions[r.current]
	limit := q.TimeLimitSeconds
	if limit <= 0 {
		limit = r.cfg.DefaultTimeLimit
	}
	options := make([]string, len(q.Options))
	for i, opt := range q.Options {
		options[i] = opt.Text
	}
	r.broadcastLocked(domain.EventNewQuestion, domain.Question{
		ID:               q.ID,
		Text:             q.Text,
		Options:          options,
		SequenceNumber:   r.current + 1,
		TotalQuestions:   len(r.questions),
		TimeLimitSeconds: limit,
	})

	index := r.current
	r.scheduleLocked(time.Duration(limit)*time.Second, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if epoch != r.epoch || r.phase != domain.PhaseQuestion || r.current != index {
			return
		}
		r.revealLocked()
	})
}

func (r *Room) revealLocked() {
	r.cancelPendingLocked()
	r.phase = domain.PhaseRevealed
	q := r.questions[r.current]
	r.broadcastLocked(domain.EventReveal, domain.RevealResult{CorrectOption: q.CorrectOption()})

	epoch := r.epoch
	r.scheduleLocked(r.cfg.RevealPause, func() { r.advance(epoch) })
}

func (r *Room) finishLocked() {
	r.phase = domain.PhaseFinished
	r.broadcastLocked(domain.EventSessionFinished, nil)

	entries := make([]domain.FinalScoreEntry, 0, len(r.players))
	for _, p := range r.players {
		entries = append(entries, domain.FinalScoreEntry{Pseudo: p.pseudo, Score: p.score})
	}
	// Stable sort keeps join order within equal scores.
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	r.broadcastLocked(domain.EventFinalScores, domain.FinalScoresPayload{Entries: entries})
	r.log.Info().Int("players", len(entries)).Msg("session finished")

	// A finished session is never resumed: the room returns to a fresh
	// lobby once the terminal view had its moment.
	epoch := r.epoch
	r.scheduleLocked(r.cfg.RevealPause, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if epoch != r.epoch || r.phase != domain.PhaseFinished {
			return
		}
		r.resetLocked()
	})
}

func (r *Room) resetLocked() {
	r.epoch++
	r.phase = domain.PhaseLobby
	r.questions = nil
	r.current = -1
	for _, p := range r.players {
		p.ready = false
		p.score = 0
		p.answered = false
	}
	r.broadcastSnapshotLocked()
}

func (r *Room) scheduleLocked(d time.Duration, fn func()) {
	r.cancelPendingLocked()
	r.pending = r.clock.AfterFunc(d, fn)
}

func (r *Room) cancelPendingLocked() {
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
}

func (r *Room) broadcastSnapshotLocked() {
	players := make([]domain.Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, domain.Player{
			ID:            p.connID,
			ParticipantID: p.participantID,
			Pseudo:        p.pseudo,
			IsAdmin:       p.isAdmin,
			IsReady:       p.ready,
			Score:         p.score,
			HasAnswered:   p.answered,
		})
	}
	r.broadcastLocked(domain.EventRosterSnapshot, domain.RosterSnapshotPayload{Players: players})
}

func (r *Room) broadcastLocked(event string, payload any) {
	env, err := domain.NewEnvelope(event, payload)
	if err != nil {
		r.log.Error().Err(err).Str("event", event).Msg("broadcast marshal failed")
		return
	}
	for connID, out := range r.outputs {
		select {
		case out <- env:
		default:
			r.log.Warn().Str("conn", connID).Str("event", event).Msg("send buffer full, dropping frame")
		}
	}
}
