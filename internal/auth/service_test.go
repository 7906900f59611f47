package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/Fafaw945/quiz-app/internal/domain"
	"github.com/Fafaw945/quiz-app/internal/infra/memory"
)

func TestRegisterFirstParticipantIsAdmin(t *testing.T) {
	svc := NewService(memory.NewParticipantRepository())
	ctx := context.Background()

	first, err := svc.Register(ctx, "Ana Lima", "Ana", "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("register first: %v", err)
	}
	if !first.IsAdmin {
		t.Fatalf("expected first participant to be admin")
	}
	if first.ParticipantID == "" || first.Pseudo != "Ana" {
		t.Fatalf("unexpected identity: %+v", first)
	}

	second, err := svc.Register(ctx, "", "Bob", "bob@example.com", "secret")
	if err != nil {
		t.Fatalf("register second: %v", err)
	}
	if second.IsAdmin {
		t.Fatalf("expected second participant not to be admin")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(memory.NewParticipantRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "", "", "ana@example.com", "secret"); err == nil {
		t.Fatalf("expected error without pseudo")
	}
	if _, err := svc.Register(ctx, "", "Ana", "", "secret"); err == nil {
		t.Fatalf("expected error without email")
	}
	if _, err := svc.Register(ctx, "", "Ana", "ana@example.com", ""); err == nil {
		t.Fatalf("expected error without password")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(memory.NewParticipantRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "", "Ana", "ana@example.com", "secret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	// Email comparison is case-insensitive.
	_, err := svc.Register(ctx, "", "Ana2", "ANA@Example.com", "secret")
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc := NewService(memory.NewParticipantRepository())
	ctx := context.Background()

	registered, err := svc.Register(ctx, "", "Ana", "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	identity, err := svc.Login(ctx, "Ana@Example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if identity.ParticipantID != registered.ParticipantID || identity.Pseudo != "Ana" {
		t.Fatalf("expected same identity on login, got %+v", identity)
	}

	if _, err := svc.Login(ctx, "ana@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "secret"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}
