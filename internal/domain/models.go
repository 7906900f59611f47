package domain

import (
	"fmt"
	"time"
)

// Phase is the top-level stage of a session.
type Phase string

const (
	PhaseLobby     Phase = "lobby"
	PhaseCountdown Phase = "countdown"
	PhaseQuestion  Phase = "question"
	PhaseRevealed  Phase = "revealed"
	PhaseFinished  Phase = "finished"
)

// OptionsPerQuestion is fixed; every question carries exactly four choices.
const OptionsPerQuestion = 4

// Player is one roster entry as the server publishes it. ID is the ephemeral
// per-connection identifier and is not stable across reconnects; ParticipantID
// is the durable identity issued at registration and correlates a person
// across reconnects.
type Player struct {
	ID            string `json:"id"`
	ParticipantID string `json:"participantId"`
	Pseudo        string `json:"pseudo"`
	IsAdmin       bool   `json:"isAdmin"`
	IsReady       bool   `json:"isReady"`
	Score         int    `json:"score"`
	HasAnswered   bool   `json:"hasAnsweredCurrentQuestion"`
}

// Question is the client-facing view of one question. The correct option is
// never part of it; it arrives later in the reveal.
type Question struct {
	ID               string   `json:"id"`
	Text             string   `json:"text"`
	Options          []string `json:"options"`
	SequenceNumber   int      `json:"sequenceNumber"`
	TotalQuestions   int      `json:"totalQuestions"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
}

// AnswerSubmission is emitted at most once per (participantId, questionId).
// It carries both the ephemeral session id and the durable participant id; the
// latter is what the server trusts across reconnects.
type AnswerSubmission struct {
	QuestionID     string    `json:"questionId"`
	SessionID      string    `json:"sessionId"`
	ParticipantID  string    `json:"participantId"`
	ChosenOption   string    `json:"chosenOptionText"`
	LocalTimestamp time.Time `json:"localTimestamp"`
}

// RevealResult discloses the correct option for the question just finished.
type RevealResult struct {
	CorrectOption string `json:"correctOptionText"`
}

// FinalScoreEntry is one row of the terminal scoreboard, ordered by the
// server: descending score, ties broken by arrival order.
type FinalScoreEntry struct {
	Pseudo string `json:"pseudo"`
	Score  int    `json:"score"`
}

// Identity is the durable triple issued by the auth boundary. The realtime
// core cannot operate without it.
type Identity struct {
	ParticipantID string `json:"participantId"`
	Pseudo        string `json:"pseudo"`
	IsAdmin       bool   `json:"isAdmin"`
}

// Participant is a registered account as the auth boundary stores it.
type Participant struct {
	ID           string
	Name         string
	Pseudo       string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// AnswerOption is one stored choice of a question, correctness included.
type AnswerOption struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// QuestionRecord is the server-side form of a question.
type QuestionRecord struct {
	ID               string         `json:"id"`
	Text             string         `json:"text"`
	Options          []AnswerOption `json:"options"`
	TimeLimitSeconds int            `json:"timeLimitSeconds"`
}

// CorrectOption returns the text of the first option flagged correct.
func (q QuestionRecord) CorrectOption() string {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt.Text
		}
	}
	return ""
}

// QuestionSet is an ordered sequence of questions played in one session.
type QuestionSet struct {
	ID        string           `json:"id"`
	Questions []QuestionRecord `json:"questions"`
}

// Validate checks the shape invariants a set must satisfy before play.
func (s QuestionSet) Validate() error {
	if len(s.Questions) == 0 {
		return fmt.Errorf("question set %q: %w", s.ID, ErrEmptyQuestionSet)
	}
	for _, q := range s.Questions {
		if len(q.Options) != OptionsPerQuestion {
			return fmt.Errorf("question %q has %d options, want %d", q.ID, len(q.Options), OptionsPerQuestion)
		}
		if q.CorrectOption() == "" {
			return fmt.Errorf("question %q has no correct option", q.ID)
		}
	}
	return nil
}
