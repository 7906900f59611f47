package client

import (
	"testing"

	"github.com/Fafaw945/quiz-app/internal/domain"
)

func TestProjectStanding(t *testing.T) {
	players := []domain.Player{
		{ID: "s1", ParticipantID: "p1", Pseudo: "Ana", Score: 2},
		{ID: "s2", ParticipantID: "p2", Pseudo: "Bob", Score: 1, HasAnswered: true},
	}

	got := ProjectStanding(players, "s2")
	if !got.Known || got.Score != 1 || !got.HasAnswered {
		t.Fatalf("unexpected standing for s2: %+v", got)
	}

	// Absent mid-reconnect: a defined default, not a failure.
	got = ProjectStanding(players, "s9")
	if got.Known || got.Score != 0 || got.HasAnswered {
		t.Fatalf("expected zero standing for unknown id, got %+v", got)
	}

	got = ProjectStanding(nil, "s1")
	if got.Known {
		t.Fatalf("expected unknown on empty roster, got %+v", got)
	}
}
