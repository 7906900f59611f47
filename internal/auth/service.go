// Package auth implements the registration/login boundary that issues the
// durable identity triple the realtime core operates on.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Fafaw945/quiz-app/internal/domain"
)

// ParticipantRepository abstracts account storage (in-memory, Postgres).
type ParticipantRepository interface {
	Create(ctx context.Context, p domain.Participant) error
	FindByEmail(ctx context.Context, email string) (domain.Participant, error)
	Count(ctx context.Context) (int, error)
}

// Service contains the account use cases.
type Service struct {
	participants ParticipantRepository
	now          func() time.Time
}

// NewService builds the auth service.
func NewService(participants ParticipantRepository) *Service {
	return &Service{participants: participants, now: time.Now}
}

// Register creates an account and returns its identity triple. The first
// registered participant becomes the admin.
func (s *Service) Register(ctx context.Context, name, pseudo, email, password string) (domain.Identity, error) {
	pseudo = strings.TrimSpace(pseudo)
	email = strings.ToLower(strings.TrimSpace(email))
	if pseudo == "" || email == "" || password == "" {
		return domain.Identity{}, fmt.Errorf("pseudo, email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	count, err := s.participants.Count(ctx)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("count participants: %w", err)
	}

	p := domain.Participant{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(name),
		Pseudo:       pseudo,
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      count == 0,
		CreatedAt:    s.now(),
	}
	if err := s.participants.Create(ctx, p); err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{ParticipantID: p.ID, Pseudo: p.Pseudo, IsAdmin: p.IsAdmin}, nil
}

// Login checks credentials and returns the identity triple.
func (s *Service) Login(ctx context.Context, email, password string) (domain.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	p, err := s.participants.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrParticipantNotFound) {
			return domain.Identity{}, domain.ErrInvalidCredentials
		}
		return domain.Identity{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	return domain.Identity{ParticipantID: p.ID, Pseudo: p.Pseudo, IsAdmin: p.IsAdmin}, nil
}
