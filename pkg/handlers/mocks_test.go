package handlers

import (
	"context"
	"time"

	"github.com/relgraph-inc/relgraph-engine/pkg/models"
	"github.com/relgraph-inc/relgraph-engine/pkg/render"
	"github.com/relgraph-inc/relgraph-engine/pkg/services"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// mockGraphService is a configurable mock for all handler tests. Set err to
// force the error path; otherwise canned fixtures come back.
type mockGraphService struct {
	err        error
	person     *models.Person
	persons    []*models.Person
	relation   *models.Relation
	updated    bool
	projection *services.GraphProjection
	report     *services.PersonRelationsReport
	background *models.PersonBackground

	// captured arguments
	gotFrom, gotTo int64
	gotSource      string
}

func (m *mockGraphService) AddPerson(ctx context.Context, name, description, gender string) (*models.Person, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.person != nil {
		return m.person, nil
	}
	return &models.Person{
		ID:        1,
		Name:      name,
		Gender:    models.NormalizeGender(gender),
		CreatedAt: testTime,
	}, nil
}

func (m *mockGraphService) ListPersons(ctx context.Context) ([]*models.Person, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.persons != nil {
		return m.persons, nil
	}
	return []*models.Person{}, nil
}

func (m *mockGraphService) AddOrUpdateRelation(ctx context.Context, from, to int64, source string) (*services.RelationResult, error) {
	m.gotFrom, m.gotTo, m.gotSource = from, to, source
	if m.err != nil {
		return nil, m.err
	}
	rel := m.relation
	if rel == nil {
		rel = &models.Relation{ID: 1, FromPersonID: from, ToPersonID: to, Source: source,
			CreatedAt: testTime, UpdatedAt: testTime}
	}
	return &services.RelationResult{Relation: rel, Updated: m.updated}, nil
}

func (m *mockGraphService) UpdateRelation(ctx context.Context, from, to int64, source string) (*models.Relation, error) {
	m.gotFrom, m.gotTo, m.gotSource = from, to, source
	if m.err != nil {
		return nil, m.err
	}
	if m.relation != nil {
		return m.relation, nil
	}
	return &models.Relation{ID: 1, FromPersonID: from, ToPersonID: to, Source: source,
		CreatedAt: testTime, UpdatedAt: testTime}, nil
}

func (m *mockGraphService) DeleteRelation(ctx context.Context, a, b int64) error {
	m.gotFrom, m.gotTo = a, b
	return m.err
}

func (m *mockGraphService) Projection(ctx context.Context) (*services.GraphProjection, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.projection != nil {
		return m.projection, nil
	}
	return &services.GraphProjection{
		Nodes:  []services.GraphNode{},
		Edges:  []services.GraphEdge{},
		Counts: services.ProjectionCounts{},
	}, nil
}

func (m *mockGraphService) PersonRelations(ctx context.Context, personID int64) (*services.PersonRelationsReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.report != nil {
		return m.report, nil
	}
	return &services.PersonRelationsReport{
		Person:    &models.Person{ID: personID, Name: "Ada", CreatedAt: testTime},
		Relations: []*models.Relation{},
		Neighbors: []*models.Person{},
	}, nil
}

func (m *mockGraphService) GetBackground(ctx context.Context, personID int64) (*models.PersonBackground, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.background != nil {
		return m.background, nil
	}
	return &models.PersonBackground{ID: 1, PersonID: personID, Body: "a body",
		CreatedAt: testTime, UpdatedAt: testTime}, nil
}

func (m *mockGraphService) UpsertBackground(ctx context.Context, personID int64, birthYear *int, body string) (*models.PersonBackground, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.PersonBackground{ID: 1, PersonID: personID, BirthYear: birthYear, Body: body,
		CreatedAt: testTime, UpdatedAt: testTime}, nil
}

var _ services.GraphService = (*mockGraphService)(nil)

// mockRenderer returns canned bytes without a browser.
type mockRenderer struct {
	err      error
	image    []byte
	gotStyle render.Style
	gotNodes []render.Node
	gotEdges []render.Edge
}

func (m *mockRenderer) Render(ctx context.Context, nodes []render.Node, edges []render.Edge, style render.Style) ([]byte, error) {
	m.gotNodes, m.gotEdges, m.gotStyle = nodes, edges, style
	if m.err != nil {
		return nil, m.err
	}
	if m.image != nil {
		return m.image, nil
	}
	return []byte("image-bytes"), nil
}

var _ render.Renderer = (*mockRenderer)(nil)
