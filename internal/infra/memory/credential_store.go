package memory

import (
	"sync"

	"github.com/Fafaw945/quiz-app/internal/domain"
)

// CredentialStore keeps the identity triple for one visit, the process-local
// analog of tab-scoped browser storage. Saving a fresh identity replaces the
// previous one.
type CredentialStore struct {
	mu       sync.RWMutex
	identity domain.Identity
	present  bool
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

func (s *CredentialStore) Save(identity domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = identity
	s.present = true
}

func (s *CredentialStore) Load() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.present
}

func (s *CredentialStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = domain.Identity{}
	s.present = false
}
