package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/relgraph-inc/relgraph-engine/pkg/apperrors"
	"github.com/relgraph-inc/relgraph-engine/pkg/database"
	"github.com/relgraph-inc/relgraph-engine/pkg/models"
)

// PersonRepository provides data access for persons.
type PersonRepository interface {
	Create(ctx context.Context, person *models.Person) error
	GetByID(ctx context.Context, id int64) (*models.Person, error)
	GetByName(ctx context.Context, name string) (*models.Person, error)
	List(ctx context.Context) ([]*models.Person, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*models.Person, error)
	Delete(ctx context.Context, id int64) error
}

type personRepository struct {
	db *database.DB
}

// NewPersonRepository creates a new PersonRepository.
func NewPersonRepository(db *database.DB) PersonRepository {
	return &personRepository{db: db}
}

var _ PersonRepository = (*personRepository)(nil)

const personColumns = `id, name, description, gender, created_at`

func (r *personRepository) Create(ctx context.Context, person *models.Person) error {
	query := `
		INSERT INTO persons (name, description, gender)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, person.Name, person.Description, person.Gender).
		Scan(&person.ID, &person.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique_violation on the name index
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create person: %w", err)
	}

	return nil
}

func (r *personRepository) GetByID(ctx context.Context, id int64) (*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	person, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get person by id: %w", err)
	}

	return person, nil
}

// GetByName matches the name exactly; uniqueness is case-sensitive.
func (r *personRepository) GetByName(ctx context.Context, name string) (*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE name = $1`

	row := r.db.QueryRow(ctx, query, name)
	person, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get person by name: %w", err)
	}

	return person, nil
}

func (r *personRepository) List(ctx context.Context) ([]*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query persons: %w", err)
	}
	defer rows.Close()

	var persons []*models.Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, person)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating persons: %w", err)
	}

	return persons, nil
}

func (r *personRepository) ListByIDs(ctx context.Context, ids []int64) ([]*models.Person, error) {
	if len(ids) == 0 {
		return []*models.Person{}, nil
	}

	query := `SELECT ` + personColumns + ` FROM persons WHERE id = ANY($1) ORDER BY id`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query persons by ids: %w", err)
	}
	defer rows.Close()

	var persons []*models.Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, person)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating persons: %w", err)
	}

	return persons, nil
}

// Delete removes a person. Relations and background rows cascade at the
// storage layer; this is domain cleanup only and is not routed.
func (r *personRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanPerson(row pgx.Row) (*models.Person, error) {
	var person models.Person

	err := row.Scan(&person.ID, &person.Name, &person.Description, &person.Gender, &person.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan person: %w", err)
	}

	return &person, nil
}
