package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/relgraph-inc/relgraph-engine/pkg/apperrors"
	"github.com/relgraph-inc/relgraph-engine/pkg/database"
	"github.com/relgraph-inc/relgraph-engine/pkg/models"
)

// BackgroundRepository provides data access for the one-to-one person
// background sub-entity.
type BackgroundRepository interface {
	GetByPersonID(ctx context.Context, personID int64) (*models.PersonBackground, error)
	Upsert(ctx context.Context, bg *models.PersonBackground) error
}

type backgroundRepository struct {
	db *database.DB
}

// NewBackgroundRepository creates a new BackgroundRepository.
func NewBackgroundRepository(db *database.DB) BackgroundRepository {
	return &backgroundRepository{db: db}
}

var _ BackgroundRepository = (*backgroundRepository)(nil)

func (r *backgroundRepository) GetByPersonID(ctx context.Context, personID int64) (*models.PersonBackground, error) {
	query := `
		SELECT id, person_id, birth_year, body, created_at, updated_at
		FROM person_backgrounds
		WHERE person_id = $1`

	var bg models.PersonBackground
	err := r.db.QueryRow(ctx, query, personID).
		Scan(&bg.ID, &bg.PersonID, &bg.BirthYear, &bg.Body, &bg.CreatedAt, &bg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get background: %w", err)
	}

	return &bg, nil
}

// Upsert inserts the background row or updates it in place; updated_at
// refreshes on every write.
func (r *backgroundRepository) Upsert(ctx context.Context, bg *models.PersonBackground) error {
	query := `
		INSERT INTO person_backgrounds (person_id, birth_year, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (person_id) DO UPDATE SET
			birth_year = EXCLUDED.birth_year,
			body = EXCLUDED.body,
			updated_at = now()
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, bg.PersonID, bg.BirthYear, bg.Body).
		Scan(&bg.ID, &bg.CreatedAt, &bg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert background: %w", err)
	}

	return nil
}
