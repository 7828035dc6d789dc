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

// RelationRepository provides data access for relation edges. Lookup and
// deletion treat the (from, to) pair as unordered; the stored direction is
// whatever the caller provided at insert time.
type RelationRepository interface {
	Create(ctx context.Context, rel *models.Relation) error
	GetByID(ctx context.Context, id int64) (*models.Relation, error)
	GetByUnorderedPair(ctx context.Context, a, b int64) (*models.Relation, error)
	UpdateSource(ctx context.Context, id int64, source string) error
	DeleteByUnorderedPair(ctx context.Context, a, b int64) error
	List(ctx context.Context) ([]*models.Relation, error)
	ListByPerson(ctx context.Context, personID int64) ([]*models.Relation, error)
}

type relationRepository struct {
	db *database.DB
}

// NewRelationRepository creates a new RelationRepository.
func NewRelationRepository(db *database.DB) RelationRepository {
	return &relationRepository{db: db}
}

var _ RelationRepository = (*relationRepository)(nil)

const relationColumns = `id, from_person_id, to_person_id, source, created_at, updated_at`

func (r *relationRepository) Create(ctx context.Context, rel *models.Relation) error {
	query := `
		INSERT INTO relations (from_person_id, to_person_id, source)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, rel.FromPersonID, rel.ToPersonID, rel.Source).
		Scan(&rel.ID, &rel.CreatedAt, &rel.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create relation: %w", err)
	}

	return nil
}

func (r *relationRepository) GetByID(ctx context.Context, id int64) (*models.Relation, error) {
	query := `SELECT ` + relationColumns + ` FROM relations WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	rel, err := scanRelation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get relation by id: %w", err)
	}

	return rel, nil
}

// GetByUnorderedPair returns the edge between a and b regardless of which
// endpoint was stored as "from". Returns apperrors.ErrNotFound when absent.
func (r *relationRepository) GetByUnorderedPair(ctx context.Context, a, b int64) (*models.Relation, error) {
	query := `
		SELECT ` + relationColumns + `
		FROM relations
		WHERE (from_person_id = $1 AND to_person_id = $2)
		   OR (from_person_id = $2 AND to_person_id = $1)
		ORDER BY id
		LIMIT 1`

	row := r.db.QueryRow(ctx, query, a, b)
	rel, err := scanRelation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get relation by pair: %w", err)
	}

	return rel, nil
}

func (r *relationRepository) UpdateSource(ctx context.Context, id int64, source string) error {
	query := `UPDATE relations SET source = $1, updated_at = now() WHERE id = $2`

	tag, err := r.db.Exec(ctx, query, source, id)
	if err != nil {
		return fmt.Errorf("failed to update relation source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// DeleteByUnorderedPair deletes the matching row in either stored direction.
// Returns apperrors.ErrNotFound when no row matched.
func (r *relationRepository) DeleteByUnorderedPair(ctx context.Context, a, b int64) error {
	query := `
		DELETE FROM relations
		WHERE (from_person_id = $1 AND to_person_id = $2)
		   OR (from_person_id = $2 AND to_person_id = $1)`

	tag, err := r.db.Exec(ctx, query, a, b)
	if err != nil {
		return fmt.Errorf("failed to delete relation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *relationRepository) List(ctx context.Context) ([]*models.Relation, error) {
	query := `SELECT ` + relationColumns + ` FROM relations ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query relations: %w", err)
	}
	defer rows.Close()

	var relations []*models.Relation
	for rows.Next() {
		rel, err := scanRelation(rows)
		if err != nil {
			return nil, err
		}
		relations = append(relations, rel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating relations: %w", err)
	}

	return relations, nil
}

// ListByPerson returns every edge touching the person in either direction.
func (r *relationRepository) ListByPerson(ctx context.Context, personID int64) ([]*models.Relation, error) {
	query := `
		SELECT ` + relationColumns + `
		FROM relations
		WHERE from_person_id = $1 OR to_person_id = $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to query relations by person: %w", err)
	}
	defer rows.Close()

	var relations []*models.Relation
	for rows.Next() {
		rel, err := scanRelation(rows)
		if err != nil {
			return nil, err
		}
		relations = append(relations, rel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating relations: %w", err)
	}

	return relations, nil
}

func scanRelation(row pgx.Row) (*models.Relation, error) {
	var rel models.Relation

	err := row.Scan(&rel.ID, &rel.FromPersonID, &rel.ToPersonID, &rel.Source, &rel.CreatedAt, &rel.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan relation: %w", err)
	}

	return &rel, nil
}
