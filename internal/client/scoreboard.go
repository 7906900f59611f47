package client

import "github.com/Fafaw945/quiz-app/internal/domain"

// Standing is a participant's own score/answered projection from one roster
// snapshot. Known is false when the id is absent from the snapshot, e.g.
// mid-reconnect; that is a defined default, not a failure.
type Standing struct {
	Score       int
	HasAnswered bool
	Known       bool
}

// ProjectStanding derives the standing for the given ephemeral session id
// from a roster snapshot. It is a pure lookup: it caches nothing and must be
// recomputed on every new snapshot.
func ProjectStanding(players []domain.Player, sessionID string) Standing {
	for _, p := range players {
		if p.ID == sessionID {
			return Standing{Score: p.Score, HasAnswered: p.HasAnswered, Known: true}
		}
	}
	return Standing{}
}
