package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/Fafaw945/quiz-app/internal/domain"
)

type participantRow struct {
	bun.BaseModel `bun:"table:participants,alias:p"`

	ID           string    `bun:"id,pk"`
	Name         string    `bun:"name"`
	Pseudo       string    `bun:"pseudo"`
	Email        string    `bun:"email"`
	PasswordHash string    `bun:"password_hash"`
	IsAdmin      bool      `bun:"is_admin"`
	CreatedAt    time.Time `bun:"created_at"`
}

// ParticipantRepository is the bun-backed implementation of
// auth.ParticipantRepository.
type ParticipantRepository struct {
	db *bun.DB
}

func NewParticipantRepository(db *bun.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Create(ctx context.Context, p domain.Participant) error {
	row := participantRow{
		ID:           p.ID,
		Name:         p.Name,
		Pseudo:       p.Pseudo,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		IsAdmin:      p.IsAdmin,
		CreatedAt:    p.CreatedAt,
	}
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		// 23505 is unique_violation; the only unique constraint is email.
		if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (r *ParticipantRepository) FindByEmail(ctx context.Context, email string) (domain.Participant, error) {
	var row participantRow
	err := r.db.NewSelect().Model(&row).Where("email = ?", email).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Participant{}, domain.ErrParticipantNotFound
		}
		return domain.Participant{}, fmt.Errorf("find participant: %w", err)
	}
	return domain.Participant{
		ID:           row.ID,
		Name:         row.Name,
		Pseudo:       row.Pseudo,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		IsAdmin:      row.IsAdmin,
		CreatedAt:    row.CreatedAt,
	}, nil
}

func (r *ParticipantRepository) Count(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().Model((*participantRow)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return count, nil
}
