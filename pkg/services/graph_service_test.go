package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relgraph-inc/relgraph-engine/pkg/apperrors"
	"github.com/relgraph-inc/relgraph-engine/pkg/models"
)

type mockPersonRepo struct {
	persons map[int64]*models.Person
	nextID  int64
}

func newMockPersonRepo() *mockPersonRepo {
	return &mockPersonRepo{persons: make(map[int64]*models.Person), nextID: 1}
}

func (m *mockPersonRepo) Create(_ context.Context, person *models.Person) error {
	for _, p := range m.persons {
		if p.Name == person.Name {
			return apperrors.ErrConflict
		}
	}
	person.ID = m.nextID
	person.CreatedAt = time.Now()
	m.nextID++
	m.persons[person.ID] = person
	return nil
}

func (m *mockPersonRepo) GetByID(_ context.Context, id int64) (*models.Person, error) {
	p, ok := m.persons[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (m *mockPersonRepo) GetByName(_ context.Context, name string) (*models.Person, error) {
	for _, p := range m.persons {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockPersonRepo) List(_ context.Context) ([]*models.Person, error) {
	var out []*models.Person
	for id := int64(1); id < m.nextID; id++ {
		if p, ok := m.persons[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPersonRepo) ListByIDs(_ context.Context, ids []int64) ([]*models.Person, error) {
	out := []*models.Person{}
	for _, id := range ids {
		if p, ok := m.persons[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPersonRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.persons[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.persons, id)
	return nil
}

type mockRelationRepo struct {
	relations map[int64]*models.Relation
	nextID    int64
}

func newMockRelationRepo() *mockRelationRepo {
	return &mockRelationRepo{relations: make(map[int64]*models.Relation), nextID: 1}
}

func (m *mockRelationRepo) Create(_ context.Context, rel *models.Relation) error {
	rel.ID = m.nextID
	rel.CreatedAt = time.Now()
	rel.UpdatedAt = rel.CreatedAt
	m.nextID++
	m.relations[rel.ID] = rel
	return nil
}

func (m *mockRelationRepo) GetByID(_ context.Context, id int64) (*models.Relation, error) {
	rel, ok := m.relations[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return rel, nil
}

func (m *mockRelationRepo) GetByUnorderedPair(_ context.Context, a, b int64) (*models.Relation, error) {
	for id := int64(1); id < m.nextID; id++ {
		rel, ok := m.relations[id]
		if !ok {
			continue
		}
		if (rel.FromPersonID == a && rel.ToPersonID == b) || (rel.FromPersonID == b && rel.ToPersonID == a) {
			return rel, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockRelationRepo) UpdateSource(_ context.Context, id int64, source string) error {
	rel, ok := m.relations[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	rel.Source = source
	rel.UpdatedAt = time.Now()
	return nil
}

func (m *mockRelationRepo) DeleteByUnorderedPair(ctx context.Context, a, b int64) error {
	rel, err := m.GetByUnorderedPair(ctx, a, b)
	if err != nil {
		return err
	}
	delete(m.relations, rel.ID)
	return nil
}

func (m *mockRelationRepo) List(_ context.Context) ([]*models.Relation, error) {
	var out []*models.Relation
	for id := int64(1); id < m.nextID; id++ {
		if rel, ok := m.relations[id]; ok {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (m *mockRelationRepo) ListByPerson(_ context.Context, personID int64) ([]*models.Relation, error) {
	var out []*models.Relation
	for id := int64(1); id < m.nextID; id++ {
		if rel, ok := m.relations[id]; ok && rel.Touches(personID) {
			out = append(out, rel)
		}
	}
	return out, nil
}

type mockBackgroundRepo struct {
	byPerson map[int64]*models.PersonBackground
	nextID   int64
}

func newMockBackgroundRepo() *mockBackgroundRepo {
	return &mockBackgroundRepo{byPerson: make(map[int64]*models.PersonBackground), nextID: 1}
}

func (m *mockBackgroundRepo) GetByPersonID(_ context.Context, personID int64) (*models.PersonBackground, error) {
	bg, ok := m.byPerson[personID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return bg, nil
}

func (m *mockBackgroundRepo) Upsert(_ context.Context, bg *models.PersonBackground) error {
	if existing, ok := m.byPerson[bg.PersonID]; ok {
		bg.ID = existing.ID
		bg.CreatedAt = existing.CreatedAt
		bg.UpdatedAt = time.Now()
	} else {
		bg.ID = m.nextID
		m.nextID++
		bg.CreatedAt = time.Now()
		bg.UpdatedAt = bg.CreatedAt
	}
	m.byPerson[bg.PersonID] = bg
	return nil
}

type fixture struct {
	persons     *mockPersonRepo
	relations   *mockRelationRepo
	backgrounds *mockBackgroundRepo
	svc         GraphService
}

func newFixture() *fixture {
	persons := newMockPersonRepo()
	relations := newMockRelationRepo()
	backgrounds := newMockBackgroundRepo()
	return &fixture{
		persons:     persons,
		relations:   relations,
		backgrounds: backgrounds,
		svc:         NewGraphService(persons, relations, backgrounds, zap.NewNop()),
	}
}

func (f *fixture) seedPerson(t *testing.T, name string) *models.Person {
	t.Helper()
	person, err := f.svc.AddPerson(context.Background(), name, "", "")
	require.NoError(t, err)
	return person
}

func TestAddPerson(t *testing.T) {
	t.Run("creates with sanitized fields and normalized gender", func(t *testing.T) {
		f := newFixture()

		person, err := f.svc.AddPerson(context.Background(),
			"  Ada Lovelace <script>alert(1)</script> ", "<b>mathematician</b>", "FEMALE")
		require.NoError(t, err)

		assert.Equal(t, "Ada Lovelace", person.Name)
		assert.Equal(t, "mathematician", person.Description)
		assert.Equal(t, models.GenderFemale, person.Gender)
		assert.NotZero(t, person.ID)
	})

	t.Run("duplicate name is a conflict", func(t *testing.T) {
		f := newFixture()
		f.seedPerson(t, "Ada")

		_, err := f.svc.AddPerson(context.Background(), "Ada", "", "")
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("name matching is case-sensitive", func(t *testing.T) {
		f := newFixture()
		f.seedPerson(t, "Ada")

		person, err := f.svc.AddPerson(context.Background(), "ada", "", "")
		require.NoError(t, err)
		assert.Equal(t, "ada", person.Name)
	})

	t.Run("name that sanitizes to empty is rejected", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.AddPerson(context.Background(), " <script>x</script> ", "", "")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("unknown gender falls back to unknown", func(t *testing.T) {
		f := newFixture()

		person, err := f.svc.AddPerson(context.Background(), "Grace", "", "robot")
		require.NoError(t, err)
		assert.Equal(t, models.GenderUnknown, person.Gender)
	})
}

func TestAddOrUpdateRelation(t *testing.T) {
	t.Run("creates a fresh edge", func(t *testing.T) {
		f := newFixture()
		a := f.seedPerson(t, "Ada")
		b := f.seedPerson(t, "Babbage")

		res, err := f.svc.AddOrUpdateRelation(context.Background(), a.ID, b.ID, "letters")
		require.NoError(t, err)

		assert.False(t, res.Updated)
		assert.Equal(t, a.ID, res.Relation.FromPersonID)
		assert.Equal(t, b.ID, res.Relation.ToPersonID)
		assert.Equal(t, "letters", res.Relation.Source)
	})

	t.Run("reversed duplicate updates the existing row", func(t *testing.T) {
		f := newFixture()
		a := f.seedPerson(t, "Ada")
		b := f.seedPerson(t, "Babbage")

		first, err := f.svc.AddOrUpdateRelation(context.Background(), a.ID, b.ID, "letters")
		require.NoError(t, err)

		// Same pair in the opposite direction: no second row, source replaced.
		second, err := f.svc.AddOrUpdateRelation(context.Background(), b.ID, a.ID, "biography")
		require.NoError(t, err)

		assert.True(t, second.Updated)
		assert.Equal(t, first.Relation.ID, second.Relation.ID)
		assert.Equal(t, "biography", second.Relation.Source)

		all, err := f.relations.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("self loop is rejected", func(t *testing.T) {
		f := newFixture()
		a := f.seedPerson(t, "Ada")

		_, err := f.svc.AddOrUpdateRelation(context.Background(), a.ID, a.ID, "diary")
		assert.ErrorIs(t, err, apperrors.ErrSelfLoop)
	})

	t.Run("missing endpoint is distinct from other failures", func(t *testing.T) {
		f := newFixture()
		a := f.seedPerson(t, "Ada")

		_, err := f.svc.AddOrUpdateRelation(context.Background(), a.ID, 999, "letters")
		assert.ErrorIs(t, err, apperrors.ErrPersonMissing)
	})
}

func TestUpdateRelation(t *testing.T) {
	t.Run("updates an existing pair looked up unordered", func(t *testing.T) {
		f := newFixture()
		a := f.seedPerson(t, "Ada")
		b := f.seedPerson(t, "Babbage")
		_, err := f.svc.AddOrUpdateRelation(context.Background(), a.ID, b.ID, "letters")
		require.NoError(t, err)

		rel, err := f.svc.UpdateRelation(context.Background(), b.ID, a.ID, "archive")
		require.NoError(t, err)
		assert.Equal(t, "archive", rel.Source)
	})

	t.Run("never inserts when the pair is absent", func(t *testing.T) {
		f := newFixture()
		a := f.seedPerson(t, "Ada")
		b := f.seedPerson(t, "Babbage")

		_, err := f.svc.UpdateRelation(context.Background(), a.ID, b.ID, "archive")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		all, err := f.relations.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestDeleteRelation(t *testing.T) {
	t.Run("deletes in either direction and keeps endpoints", func(t *testing.T) {
		f := newFixture()
		a := f.seedPerson(t, "Ada")
		b := f.seedPerson(t, "Babbage")
		_, err := f.svc.AddOrUpdateRelation(context.Background(), a.ID, b.ID, "letters")
		require.NoError(t, err)

		require.NoError(t, f.svc.DeleteRelation(context.Background(), b.ID, a.ID))

		all, err := f.relations.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, all)

		_, err = f.persons.GetByID(context.Background(), a.ID)
		assert.NoError(t, err)
	})

	t.Run("missing pair is not found", func(t *testing.T) {
		f := newFixture()
		err := f.svc.DeleteRelation(context.Background(), 1, 2)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestProjection(t *testing.T) {
	t.Run("includes only connected persons but counts all", func(t *testing.T) {
		f := newFixture()
		a := f.seedPerson(t, "Ada")
		b := f.seedPerson(t, "Babbage")
		f.seedPerson(t, "Isolated")
		_, err := f.svc.AddOrUpdateRelation(context.Background(), a.ID, b.ID, "letters")
		require.NoError(t, err)

		proj, err := f.svc.Projection(context.Background())
		require.NoError(t, err)

		assert.Len(t, proj.Nodes, 2)
		assert.Len(t, proj.Edges, 1)
		assert.Equal(t, 3, proj.Counts.Persons)
		assert.Equal(t, 2, proj.Counts.Nodes)
		assert.Equal(t, 1, proj.Counts.Edges)

		labels := []string{proj.Nodes[0].Label, proj.Nodes[1].Label}
		assert.ElementsMatch(t, []string{"Ada", "Babbage"}, labels)
	})

	t.Run("empty graph yields empty slices", func(t *testing.T) {
		f := newFixture()

		proj, err := f.svc.Projection(context.Background())
		require.NoError(t, err)

		assert.Empty(t, proj.Nodes)
		assert.Empty(t, proj.Edges)
		assert.Equal(t, 0, proj.Counts.Persons)
	})
}

func TestPersonRelations(t *testing.T) {
	t.Run("reports edges in both directions with degree", func(t *testing.T) {
		f := newFixture()
		a := f.seedPerson(t, "Ada")
		b := f.seedPerson(t, "Babbage")
		c := f.seedPerson(t, "Somerville")
		_, err := f.svc.AddOrUpdateRelation(context.Background(), a.ID, b.ID, "letters")
		require.NoError(t, err)
		_, err = f.svc.AddOrUpdateRelation(context.Background(), c.ID, a.ID, "tutoring")
		require.NoError(t, err)

		report, err := f.svc.PersonRelations(context.Background(), a.ID)
		require.NoError(t, err)

		assert.Equal(t, "Ada", report.Person.Name)
		assert.Equal(t, 2, report.Degree)
		assert.Len(t, report.Relations, 2)

		names := make([]string, 0, len(report.Neighbors))
		for _, n := range report.Neighbors {
			names = append(names, n.Name)
		}
		assert.ElementsMatch(t, []string{"Babbage", "Somerville"}, names)
	})

	t.Run("isolated person has degree zero", func(t *testing.T) {
		f := newFixture()
		a := f.seedPerson(t, "Ada")

		report, err := f.svc.PersonRelations(context.Background(), a.ID)
		require.NoError(t, err)

		assert.Equal(t, 0, report.Degree)
		assert.Empty(t, report.Relations)
		assert.Empty(t, report.Neighbors)
	})

	t.Run("unknown person is not found", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.PersonRelations(context.Background(), 42)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestBackground(t *testing.T) {
	t.Run("upsert creates then replaces in place", func(t *testing.T) {
		f := newFixture()
		a := f.seedPerson(t, "Ada")
		year := 1815

		first, err := f.svc.UpsertBackground(context.Background(), a.ID, &year, "Born in London.")
		require.NoError(t, err)
		require.NotZero(t, first.ID)

		second, err := f.svc.UpsertBackground(context.Background(), a.ID, nil, "<i>Revised.</i>")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Nil(t, second.BirthYear)
		assert.Equal(t, "Revised.", second.Body)

		got, err := f.svc.GetBackground(context.Background(), a.ID)
		require.NoError(t, err)
		assert.Equal(t, "Revised.", got.Body)
	})

	t.Run("upsert for a missing person fails", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.UpsertBackground(context.Background(), 42, nil, "body")
		assert.ErrorIs(t, err, apperrors.ErrPersonMissing)
	})

	t.Run("get for a person without a background is not found", func(t *testing.T) {
		f := newFixture()
		a := f.seedPerson(t, "Ada")
		_, err := f.svc.GetBackground(context.Background(), a.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
