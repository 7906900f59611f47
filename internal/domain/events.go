package domain

import (
	"encoding/json"
	"fmt"
)

// Wire events, client to server.
const (
	EventSubmitIdentity = "submit_identity"
	EventToggleReady    = "toggle_ready"
	EventRequestStart   = "request_start"
	EventSubmitAnswer   = "submit_answer"
)

// Wire events, server to client.
const (
	EventRosterSnapshot  = "roster_snapshot"
	EventSessionStarted  = "session_started"
	EventNewQuestion     = "new_question"
	EventReveal          = "reveal"
	EventSessionFinished = "session_finished"
	EventFinalScores     = "final_scores"
	EventErrorNotice     = "error_notice"
)

// Synthetic connection-lifecycle events, dispatched locally by the client
// connection and never sent over the wire.
const (
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
)

// Envelope frames every wire message as {type, payload}.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload into a typed envelope. A nil payload produces
// an envelope with no payload field.
func NewEnvelope(eventType string, payload any) (Envelope, error) {
	env := Envelope{Type: eventType}
	if payload == nil {
		return env, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	env.Payload = raw
	return env, nil
}

// IdentityPayload is the body of submit_identity.
type IdentityPayload struct {
	Pseudo        string `json:"pseudo"`
	ParticipantID string `json:"participantId"`
	IsAdmin       bool   `json:"isAdmin"`
}

// ToggleReadyPayload is the body of toggle_ready.
type ToggleReadyPayload struct {
	ParticipantID string `json:"participantId"`
}

// RequestStartPayload is the body of request_start.
type RequestStartPayload struct {
	AdminParticipantID string `json:"adminParticipantId"`
}

// RosterSnapshotPayload is a complete replacement of the roster, never a delta.
type RosterSnapshotPayload struct {
	Players []Player `json:"players"`
}

// FinalScoresPayload is the body of final_scores.
type FinalScoresPayload struct {
	Entries []FinalScoreEntry `json:"entries"`
}

// ErrorNoticePayload carries a transient, non-blocking server message.
type ErrorNoticePayload struct {
	Message string `json:"message"`
}
