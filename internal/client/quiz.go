package client

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Fafaw945/quiz-app/internal/domain"
)

// QuizPhase is the per-question state machine of one client.
type QuizPhase int

const (
	// QuizIdle means no question has been presented yet.
	QuizIdle QuizPhase = iota
	// QuizActive means a question is open for one answer.
	QuizActive
	// QuizLocked means this client submitted; a second click is a no-op.
	QuizLocked
	// QuizRevealed means the server disclosed the correct option.
	QuizRevealed
	// QuizFinished is terminal for this session.
	QuizFinished
)

// OptionVerdict is the render state of one option after a reveal. The three
// states are mutually exclusive.
type OptionVerdict int

const (
	// VerdictNeutral marks an option that is neither correct nor the
	// client's wrong choice.
	VerdictNeutral OptionVerdict = iota
	// VerdictCorrect marks the revealed correct option.
	VerdictCorrect
	// VerdictWrongChoice marks the locally chosen, incorrect option.
	VerdictWrongChoice
)

const noSelection = -1

// QuizController drives the per-question life cycle: present, accept one
// answer, reveal, advance. It consumes the authoritative event stream and
// never decides an outcome locally; in particular, a countdown that reaches
// zero freezes there and the question stays open until the server reveals.
type QuizController struct {
	bus      Bus
	roster   *RosterTracker
	timer    *CountdownTimer
	identity domain.Identity
	log      zerolog.Logger
	now      func() time.Time

	mu          sync.Mutex
	phase       QuizPhase
	question    *domain.Question
	selected    int
	submitted   map[string]struct{}
	reveal      *domain.RevealResult
	finalScores []domain.FinalScoreEntry
	offs        []func()
}

// NewQuizController wires the controller onto the bus. The timer is owned by
// the controller from here on: it is started on each question, stopped on
// reveal and released by Close.
func NewQuizController(bus Bus, roster *RosterTracker, timer *CountdownTimer, identity domain.Identity, log zerolog.Logger) (*QuizController, error) {
	if identity.ParticipantID == "" {
		return nil, domain.ErrNoIdentity
	}
	q := &QuizController{
		bus:       bus,
		roster:    roster,
		timer:     timer,
		identity:  identity,
		log:       log,
		now:       time.Now,
		selected:  noSelection,
		submitted: make(map[string]struct{}),
	}
	q.offs = append(q.offs,
		bus.On(domain.EventNewQuestion, q.handleNewQuestion),
		bus.On(domain.EventReveal, q.handleReveal),
		bus.On(domain.EventSessionFinished, q.handleFinished),
		bus.On(domain.EventFinalScores, q.handleFinalScores),
		bus.On(domain.EventDisconnected, q.handleDisconnected),
	)
	return q, nil
}

// Phase returns the controller phase.
func (q *QuizController) Phase() QuizPhase {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.phase
}

// Question returns a copy of the current question, or false when none is
// presented.
func (q *QuizController) Question() (domain.Question, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.question == nil {
		return domain.Question{}, false
	}
	return *q.question, true
}

// Selected returns the locally chosen option index, or -1.
func (q *QuizController) Selected() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.selected
}

// FinalScores returns the terminal ranking once final_scores arrived. Before
// that the terminal view is transiently empty; that is not an error.
func (q *QuizController) FinalScores() []domain.FinalScoreEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.FinalScoreEntry, len(q.finalScores))
	copy(out, q.finalScores)
	return out
}

// Select submits the option at the given index. The transition to Locked
// happens before any network acknowledgment, so a second click cannot produce
// a second submission. Selecting while Locked or Revealed is a no-op.
func (q *QuizController) Select(index int) error {
	q.mu.Lock()
	if q.phase != QuizActive || q.question == nil {
		q.mu.Unlock()
		return nil
	}
	if index < 0 || index >= len(q.question.Options) {
		q.mu.Unlock()
		return domain.ErrInvalidOption
	}
	if _, dup := q.submitted[q.question.ID]; dup {
		q.mu.Unlock()
		return nil
	}
	q.phase = QuizLocked
	q.selected = index
	q.submitted[q.question.ID] = struct{}{}

	var sessionID string
	if me, ok := q.roster.FindParticipant(q.identity.ParticipantID); ok {
		sessionID = me.ID
	}
	sub := domain.AnswerSubmission{
		QuestionID:     q.question.ID,
		SessionID:      sessionID,
		ParticipantID:  q.identity.ParticipantID,
		ChosenOption:   q.question.Options[index],
		LocalTimestamp: q.now(),
	}
	q.mu.Unlock()

	if err := q.bus.Emit(domain.EventSubmitAnswer, sub); err != nil {
		// Stay Locked: the server never saw the answer and the reveal
		// will converge this client like any other.
		q.log.Warn().Err(err).Str("question", sub.QuestionID).Msg("answer send failed")
		return err
	}
	return nil
}

// OptionVerdicts classifies every option after a reveal: the correct one, the
// locally chosen wrong one, and the rest. Before a reveal all options are
// neutral.
func (q *QuizController) OptionVerdicts() []OptionVerdict {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.question == nil {
		return nil
	}
	verdicts := make([]OptionVerdict, len(q.question.Options))
	if q.phase != QuizRevealed || q.reveal == nil {
		return verdicts
	}
	for i, opt := range q.question.Options {
		switch {
		case opt == q.reveal.CorrectOption:
			verdicts[i] = VerdictCorrect
		case i == q.selected:
			verdicts[i] = VerdictWrongChoice
		}
	}
	return verdicts
}

// Close releases subscriptions and the countdown synchronously, so no stale
// handler can mutate state belonging to a discarded session.
func (q *QuizController) Close() {
	for _, off := range q.offs {
		off()
	}
	q.offs = nil
	q.timer.Stop()
}

func (q *QuizController) handleNewQuestion(payload json.RawMessage) {
	var question domain.Question
	if err := json.Unmarshal(payload, &question); err != nil || question.ID == "" || len(question.Options) != domain.OptionsPerQuestion {
		q.log.Warn().Err(err).Msg("ignoring malformed question")
		return
	}

	q.mu.Lock()
	if q.phase == QuizFinished {
		q.mu.Unlock()
		return
	}
	// The new question supersedes the previous one; no history is kept.
	q.question = &question
	q.selected = noSelection
	q.reveal = nil
	q.phase = QuizActive
	q.mu.Unlock()

	q.timer.Start(question.TimeLimitSeconds)
}

func (q *QuizController) handleReveal(payload json.RawMessage) {
	// The countdown stops whatever else this frame turns out to be.
	q.timer.Stop()

	var result domain.RevealResult
	if err := json.Unmarshal(payload, &result); err != nil {
		q.log.Warn().Err(err).Msg("ignoring malformed reveal")
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.phase == QuizFinished || q.question == nil {
		return
	}
	// Active and Locked clients both converge here; one that never
	// answered simply shows no chosen option.
	q.reveal = &result
	q.phase = QuizRevealed
}

func (q *QuizController) handleFinished(json.RawMessage) {
	q.timer.Stop()
	q.mu.Lock()
	q.phase = QuizFinished
	q.question = nil
	q.reveal = nil
	q.selected = noSelection
	q.mu.Unlock()
}

func (q *QuizController) handleFinalScores(payload json.RawMessage) {
	var scores domain.FinalScoresPayload
	if err := json.Unmarshal(payload, &scores); err != nil {
		q.log.Warn().Err(err).Msg("ignoring malformed final scores")
		return
	}
	q.mu.Lock()
	q.finalScores = scores.Entries
	q.mu.Unlock()
}

func (q *QuizController) handleDisconnected(json.RawMessage) {
	q.timer.Stop()
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.phase == QuizFinished {
		// Finished is terminal; a new session gets a new controller.
		return
	}
	// Discard in-flight question state; wait for fresh server events
	// rather than trusting anything stale. The submitted set survives so
	// a replayed question cannot extract a second answer.
	q.question = nil
	q.reveal = nil
	q.selected = noSelection
	q.phase = QuizIdle
}
