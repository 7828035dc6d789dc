package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/relgraph-inc/relgraph-engine/pkg/apperrors"
	"github.com/relgraph-inc/relgraph-engine/pkg/models"
	"github.com/relgraph-inc/relgraph-engine/pkg/repositories"
	"github.com/relgraph-inc/relgraph-engine/pkg/validation"
)

// GraphNode is one displayable node of the graph projection.
type GraphNode struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// GraphEdge is one displayable edge of the graph projection.
type GraphEdge struct {
	ID     int64  `json:"id"`
	From   int64  `json:"from"`
	To     int64  `json:"to"`
	Source string `json:"source,omitempty"`
}

// GraphProjection is the display view of the graph: every edge, and only
// the persons incident to at least one edge. Isolated persons are left out
// by design to keep the visualization readable.
type GraphProjection struct {
	Nodes  []GraphNode      `json:"nodes"`
	Edges  []GraphEdge      `json:"edges"`
	Counts ProjectionCounts `json:"counts"`
}

// ProjectionCounts summarizes the projection.
type ProjectionCounts struct {
	Persons int `json:"persons"`
	Nodes   int `json:"nodes"`
	Edges   int `json:"edges"`
}

// PersonRelationsReport is the single-node adjacency view: the person, every
// touching edge in either direction, the resolved neighbors, and the degree.
type PersonRelationsReport struct {
	Person    *models.Person     `json:"person"`
	Relations []*models.Relation `json:"relations"`
	Neighbors []*models.Person   `json:"neighbors"`
	Degree    int                `json:"degree"`
}

// RelationResult reports an add-or-update outcome.
type RelationResult struct {
	Relation *models.Relation
	Updated  bool
}

// GraphService implements the relationship-graph domain logic.
type GraphService interface {
	AddPerson(ctx context.Context, name, description, gender string) (*models.Person, error)
	ListPersons(ctx context.Context) ([]*models.Person, error)
	AddOrUpdateRelation(ctx context.Context, from, to int64, source string) (*RelationResult, error)
	UpdateRelation(ctx context.Context, from, to int64, source string) (*models.Relation, error)
	DeleteRelation(ctx context.Context, a, b int64) error
	Projection(ctx context.Context) (*GraphProjection, error)
	PersonRelations(ctx context.Context, personID int64) (*PersonRelationsReport, error)
	GetBackground(ctx context.Context, personID int64) (*models.PersonBackground, error)
	UpsertBackground(ctx context.Context, personID int64, birthYear *int, body string) (*models.PersonBackground, error)
}

type graphService struct {
	persons     repositories.PersonRepository
	relations   repositories.RelationRepository
	backgrounds repositories.BackgroundRepository
	logger      *zap.Logger
}

// NewGraphService creates a GraphService over the given repositories.
func NewGraphService(
	persons repositories.PersonRepository,
	relations repositories.RelationRepository,
	backgrounds repositories.BackgroundRepository,
	logger *zap.Logger,
) GraphService {
	return &graphService{
		persons:     persons,
		relations:   relations,
		backgrounds: backgrounds,
		logger:      logger,
	}
}

var _ GraphService = (*graphService)(nil)

// AddPerson creates a person. Names are unique with case-sensitive exact
// matching; a collision is a conflict, not an update.
func (s *graphService) AddPerson(ctx context.Context, name, description, gender string) (*models.Person, error) {
	name = validation.Sanitize(name)
	if name == "" {
		return nil, fmt.Errorf("name empty after sanitization: %w", apperrors.ErrValidation)
	}

	existing, err := s.persons.GetByName(ctx, name)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check name collision: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("person %q already exists: %w", name, apperrors.ErrConflict)
	}

	person := &models.Person{
		Name:        name,
		Description: validation.Sanitize(description),
		Gender:      models.NormalizeGender(gender),
	}
	if err := s.persons.Create(ctx, person); err != nil {
		return nil, err
	}

	s.logger.Info("Created person", zap.Int64("id", person.ID), zap.String("name", person.Name))
	return person, nil
}

func (s *graphService) ListPersons(ctx context.Context) ([]*models.Person, error) {
	persons, err := s.persons.List(ctx)
	if err != nil {
		return nil, err
	}
	if persons == nil {
		persons = []*models.Person{}
	}
	return persons, nil
}

// AddOrUpdateRelation adds an edge with upsert semantics: a duplicate of the
// unordered pair overwrites the existing row's provenance note instead of
// inserting a second row. The stored direction is the caller's and carries no
// meaning for equality or deletion.
func (s *graphService) AddOrUpdateRelation(ctx context.Context, from, to int64, source string) (*RelationResult, error) {
	if from == to {
		return nil, apperrors.ErrSelfLoop
	}

	if err := s.requirePersons(ctx, from, to); err != nil {
		return nil, err
	}

	source = validation.Sanitize(source)

	// No transaction wraps the lookup and insert; concurrent adds of the
	// same pair can race. Accepted: duplicates are effectively unique in
	// practice and the read path tolerates the window.
	existing, err := s.relations.GetByUnorderedPair(ctx, from, to)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing relation: %w", err)
	}

	if existing != nil {
		if err := s.relations.UpdateSource(ctx, existing.ID, source); err != nil {
			return nil, err
		}
		refreshed, err := s.relations.GetByID(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Updated relation provenance",
			zap.Int64("id", existing.ID), zap.Int64("from", from), zap.Int64("to", to))
		return &RelationResult{Relation: refreshed, Updated: true}, nil
	}

	rel := &models.Relation{FromPersonID: from, ToPersonID: to, Source: source}
	if err := s.relations.Create(ctx, rel); err != nil {
		return nil, err
	}

	s.logger.Info("Created relation",
		zap.Int64("id", rel.ID), zap.Int64("from", from), zap.Int64("to", to))
	return &RelationResult{Relation: rel, Updated: false}, nil
}

// UpdateRelation is the strict update-only variant: the unordered pair must
// already exist.
func (s *graphService) UpdateRelation(ctx context.Context, from, to int64, source string) (*models.Relation, error) {
	if from == to {
		return nil, apperrors.ErrSelfLoop
	}

	existing, err := s.relations.GetByUnorderedPair(ctx, from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("relation (%d, %d): %w", from, to, apperrors.ErrNotFound)
		}
		return nil, err
	}

	if err := s.relations.UpdateSource(ctx, existing.ID, validation.Sanitize(source)); err != nil {
		return nil, err
	}

	return s.relations.GetByID(ctx, existing.ID)
}

// DeleteRelation removes the edge between a and b regardless of stored
// direction. Endpoint persons are never deleted here.
func (s *graphService) DeleteRelation(ctx context.Context, a, b int64) error {
	err := s.relations.DeleteByUnorderedPair(ctx, a, b)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("relation (%d, %d): %w", a, b, apperrors.ErrNotFound)
		}
		return err
	}

	s.logger.Info("Deleted relation", zap.Int64("a", a), zap.Int64("b", b))
	return nil
}

// Projection returns the display view: all edges, and only connected persons.
func (s *graphService) Projection(ctx context.Context) (*GraphProjection, error) {
	persons, err := s.persons.List(ctx)
	if err != nil {
		return nil, err
	}
	relations, err := s.relations.List(ctx)
	if err != nil {
		return nil, err
	}

	connected := make(map[int64]bool, len(persons))
	edges := make([]GraphEdge, 0, len(relations))
	for _, rel := range relations {
		connected[rel.FromPersonID] = true
		connected[rel.ToPersonID] = true
		edges = append(edges, GraphEdge{
			ID:     rel.ID,
			From:   rel.FromPersonID,
			To:     rel.ToPersonID,
			Source: rel.Source,
		})
	}

	nodes := make([]GraphNode, 0, len(connected))
	for _, person := range persons {
		if connected[person.ID] {
			nodes = append(nodes, GraphNode{ID: person.ID, Label: person.Name})
		}
	}

	return &GraphProjection{
		Nodes: nodes,
		Edges: edges,
		Counts: ProjectionCounts{
			Persons: len(persons),
			Nodes:   len(nodes),
			Edges:   len(edges),
		},
	}, nil
}

// PersonRelations returns the single-node neighbor/edge/degree report.
func (s *graphService) PersonRelations(ctx context.Context, personID int64) (*PersonRelationsReport, error) {
	person, err := s.persons.GetByID(ctx, personID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("person %d: %w", personID, apperrors.ErrNotFound)
		}
		return nil, err
	}

	relations, err := s.relations.ListByPerson(ctx, personID)
	if err != nil {
		return nil, err
	}

	neighborIDs := make([]int64, 0, len(relations))
	seen := make(map[int64]bool)
	for _, rel := range relations {
		other := rel.OtherEnd(personID)
		if !seen[other] {
			seen[other] = true
			neighborIDs = append(neighborIDs, other)
		}
	}

	neighbors, err := s.persons.ListByIDs(ctx, neighborIDs)
	if err != nil {
		return nil, err
	}

	if relations == nil {
		relations = []*models.Relation{}
	}

	return &PersonRelationsReport{
		Person:    person,
		Relations: relations,
		Neighbors: neighbors,
		Degree:    len(relations),
	}, nil
}

func (s *graphService) GetBackground(ctx context.Context, personID int64) (*models.PersonBackground, error) {
	bg, err := s.backgrounds.GetByPersonID(ctx, personID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("background for person %d: %w", personID, apperrors.ErrNotFound)
		}
		return nil, err
	}
	return bg, nil
}

// UpsertBackground inserts or replaces the person's background sub-entity.
func (s *graphService) UpsertBackground(ctx context.Context, personID int64, birthYear *int, body string) (*models.PersonBackground, error) {
	if _, err := s.persons.GetByID(ctx, personID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("person %d: %w", personID, apperrors.ErrPersonMissing)
		}
		return nil, err
	}

	bg := &models.PersonBackground{
		PersonID:  personID,
		BirthYear: birthYear,
		Body:      validation.Sanitize(body),
	}
	if err := s.backgrounds.Upsert(ctx, bg); err != nil {
		return nil, err
	}

	return bg, nil
}

// requirePersons verifies both endpoints exist; a missing endpoint is a
// distinct failure from a duplicate edge.
func (s *graphService) requirePersons(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		if _, err := s.persons.GetByID(ctx, id); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("person %d: %w", id, apperrors.ErrPersonMissing)
			}
			return fmt.Errorf("failed to verify person %d: %w", id, err)
		}
	}
	return nil
}
