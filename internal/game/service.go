package game

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Fafaw945/quiz-app/internal/domain"
)

// RoomRepository abstracts how rooms are stored (in-memory, Redis-backed).
type RoomRepository interface {
	GetOrCreate(roomID string) *Room
	Get(roomID string) (*Room, bool)
	DeleteIfEmpty(roomID string)
}

// QuestionRepository loads question content (from cache/backing store).
type QuestionRepository interface {
	GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// Service contains the server-side session use cases the transport calls
// into. Rooms own their own state; the service is the seam between the wire
// handler, the room registry and the question content store.
type Service struct {
	rooms     RoomRepository
	questions QuestionRepository
	setID     string
	log       zerolog.Logger
}

// NewService builds the session service around a room registry and a
// question repository. setID names the question set every session plays.
func NewService(rooms RoomRepository, questions QuestionRepository, setID string, log zerolog.Logger) *Service {
	return &Service{rooms: rooms, questions: questions, setID: setID, log: log}
}

// Join registers a connection under the given identity. out receives every
// frame the room broadcasts until Leave.
func (s *Service) Join(_ context.Context, roomID, connID string, out chan<- domain.Envelope, ident domain.IdentityPayload) error {
	if ident.ParticipantID == "" || ident.Pseudo == "" {
		return domain.ErrNoIdentity
	}
	room := s.rooms.GetOrCreate(roomID)
	return room.Join(connID, out, ident)
}

// ToggleReady flips readiness for the player behind the connection.
func (s *Service) ToggleReady(roomID, connID string) error {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return domain.ErrRoomNotFound
	}
	return room.ToggleReady(connID)
}

// RequestStart loads and validates the question set, then asks the room to
// start. Content problems surface to the requester, not the whole room.
func (s *Service) RequestStart(ctx context.Context, roomID, connID string) error {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return domain.ErrRoomNotFound
	}
	set, err := s.questions.GetQuestionSet(ctx, s.setID)
	if err != nil {
		return fmt.Errorf("load question set: %w", err)
	}
	if err := set.Validate(); err != nil {
		return err
	}
	return room.RequestStart(connID, set.Questions)
}

// SubmitAnswer records one answer for the active question.
func (s *Service) SubmitAnswer(roomID string, sub domain.AnswerSubmission) error {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return domain.ErrRoomNotFound
	}
	return room.SubmitAnswer(sub)
}

// Leave drops the connection and garbage-collects an emptied room.
func (s *Service) Leave(roomID, connID string) {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return
	}
	room.Leave(connID)
	if room.IsEmpty() {
		s.rooms.DeleteIfEmpty(roomID)
	}
}
