package memory

import (
	"context"
	"sync"

	"github.com/Fafaw945/quiz-app/internal/domain"
)

// ParticipantRepository is an in-memory implementation of
// auth.ParticipantRepository, used for tests and redis/postgres-less runs.
type ParticipantRepository struct {
	mu      sync.RWMutex
	byEmail map[string]domain.Participant
}

func NewParticipantRepository() *ParticipantRepository {
	return &ParticipantRepository{byEmail: make(map[string]domain.Participant)}
}

func (r *ParticipantRepository) Create(_ context.Context, p domain.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[p.Email]; ok {
		return domain.ErrEmailTaken
	}
	r.byEmail[p.Email] = p
	return nil
}

func (r *ParticipantRepository) FindByEmail(_ context.Context, email string) (domain.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byEmail[email]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return p, nil
}

func (r *ParticipantRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byEmail), nil
}
