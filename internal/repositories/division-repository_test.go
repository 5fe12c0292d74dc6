package repositories

import (
	"context"
	"testing"

	"crm-system/internal/dto"
	"crm-system/internal/entities"
	"crm-system/pkg/types"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDivisionRepo() DivisionRepositoryInterface {
	return NewDivisionRepository(testPool, NewClosureMaintainer(testLogger), testLogger)
}

func createDivision(t *testing.T, repo DivisionRepositoryInterface, companyID uint64, name string, parentID *uint64) *entities.Division {
	t.Helper()
	division, err := repo.CreateDivision(context.Background(), entities.Division{
		CompanyID:        companyID,
		Name:             name,
		ParentDivisionID: parentID,
	})
	require.NoError(t, err)
	return division
}

func TestCreateDivision_RootHasSelfClosureRow(t *testing.T) {
	cleanupTables(t)
	repo := newDivisionRepo()
	companyID := seedCompany(t, "Alfa")

	root := createDivision(t, repo, companyID, "General", nil)

	depth, ok := closureRow(t, root.ID, root.ID)
	require.True(t, ok, "self-строка должна существовать")
	assert.Equal(t, 0, depth)
	assert.Equal(t, 1, closureCount(t))
}

func TestCreateDivision_ChainDepths(t *testing.T) {
	cleanupTables(t)
	repo := newDivisionRepo()
	companyID := seedCompany(t, "Alfa")

	// Root -> A -> B -> C
	root := createDivision(t, repo, companyID, "Root", nil)
	a := createDivision(t, repo, companyID, "A", &root.ID)
	b := createDivision(t, repo, companyID, "B", &a.ID)
	c := createDivision(t, repo, companyID, "C", &b.ID)

	cases := []struct {
		ancestor, descendant uint64
		depth                int
	}{
		{root.ID, a.ID, 1},
		{root.ID, b.ID, 2},
		{root.ID, c.ID, 3},
		{a.ID, b.ID, 1},
		{a.ID, c.ID, 2},
		{b.ID, c.ID, 1},
	}
	for _, tc := range cases {
		depth, ok := closureRow(t, tc.ancestor, tc.descendant)
		require.True(t, ok, "ожидалась строка (%d, %d)", tc.ancestor, tc.descendant)
		assert.Equal(t, tc.depth, depth, "глубина пути (%d, %d)", tc.ancestor, tc.descendant)
	}

	// 4 self-строки + 6 путей.
	assert.Equal(t, 10, closureCount(t))
}

func TestCreateDivision_SortOrderIncrements(t *testing.T) {
	cleanupTables(t)
	repo := newDivisionRepo()
	companyID := seedCompany(t, "Alfa")
	otherCompanyID := seedCompany(t, "Beta")

	first := createDivision(t, repo, companyID, "General", nil)
	second := createDivision(t, repo, companyID, "Sales", nil)
	foreign := createDivision(t, repo, otherCompanyID, "General", nil)

	assert.Equal(t, 1, first.SortOrder)
	assert.Equal(t, 2, second.SortOrder)
	// Счётчик на каждую компанию свой.
	assert.Equal(t, 1, foreign.SortOrder)
}

func TestUpdateDivision_ReparentMovesSubtree(t *testing.T) {
	cleanupTables(t)
	repo := newDivisionRepo()
	companyID := seedCompany(t, "Alfa")

	// Root -> A -> B, Root -> C; переносим A (вместе с B) под C.
	root := createDivision(t, repo, companyID, "Root", nil)
	a := createDivision(t, repo, companyID, "A", &root.ID)
	b := createDivision(t, repo, companyID, "B", &a.ID)
	c := createDivision(t, repo, companyID, "C", &root.ID)

	updated, err := repo.UpdateDivision(context.Background(), a.ID, dto.UpdateDivisionDTO{
		ParentDivisionID: null.IntFrom(int(c.ID)),
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.NotNil(t, updated.ParentDivisionID)
	assert.Equal(t, c.ID, *updated.ParentDivisionID)

	// Новые пути через C.
	for _, tc := range []struct {
		ancestor, descendant uint64
		depth                int
	}{
		{c.ID, a.ID, 1},
		{c.ID, b.ID, 2},
		{root.ID, a.ID, 2},
		{root.ID, b.ID, 3},
		{a.ID, b.ID, 1},
	} {
		depth, ok := closureRow(t, tc.ancestor, tc.descendant)
		require.True(t, ok, "ожидалась строка (%d, %d)", tc.ancestor, tc.descendant)
		assert.Equal(t, tc.depth, depth)
	}
}

func TestUpdateDivision_ReparentToRoot(t *testing.T) {
	cleanupTables(t)
	repo := newDivisionRepo()
	companyID := seedCompany(t, "Alfa")

	root := createDivision(t, repo, companyID, "Root", nil)
	a := createDivision(t, repo, companyID, "A", &root.ID)
	b := createDivision(t, repo, companyID, "B", &a.ID)

	// 0 — стать корнем.
	updated, err := repo.UpdateDivision(context.Background(), a.ID, dto.UpdateDivisionDTO{
		ParentDivisionID: null.IntFrom(0),
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Nil(t, updated.ParentDivisionID)

	// Путей от Root к поддереву A больше нет.
	_, ok := closureRow(t, root.ID, a.ID)
	assert.False(t, ok)
	_, ok = closureRow(t, root.ID, b.ID)
	assert.False(t, ok)

	// Внутренние пути поддерева не тронуты.
	depth, ok := closureRow(t, a.ID, b.ID)
	require.True(t, ok)
	assert.Equal(t, 1, depth)
}

func TestUpdateDivision_NotFoundReturnsNil(t *testing.T) {
	cleanupTables(t)
	repo := newDivisionRepo()

	name := "Ghost"
	updated, err := repo.UpdateDivision(context.Background(), 12345, dto.UpdateDivisionDTO{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestIsDescendant(t *testing.T) {
	cleanupTables(t)
	repo := newDivisionRepo()
	companyID := seedCompany(t, "Alfa")

	root := createDivision(t, repo, companyID, "Root", nil)
	a := createDivision(t, repo, companyID, "A", &root.ID)
	b := createDivision(t, repo, companyID, "B", &a.ID)

	ok, err := repo.IsDescendant(context.Background(), root.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsDescendant(context.Background(), b.ID, root.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Узел не потомок самому себе (depth = 0 исключён).
	ok, err = repo.IsDescendant(context.Background(), a.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteDivision_SoftDeleteKeepsClosure(t *testing.T) {
	cleanupTables(t)
	repo := newDivisionRepo()
	companyID := seedCompany(t, "Alfa")

	root := createDivision(t, repo, companyID, "Root", nil)
	a := createDivision(t, repo, companyID, "A", &root.ID)

	before := closureCount(t)
	require.NoError(t, repo.DeleteDivision(context.Background(), a.ID))

	// Closure-строки остаются, но дивизион не читается.
	assert.Equal(t, before, closureCount(t))
	_, err := repo.FindDivision(context.Background(), a.ID)
	assert.Error(t, err)

	// Имя освобождается для повторного использования.
	recreated := createDivision(t, repo, companyID, "A", &root.ID)
	assert.NotEqual(t, a.ID, recreated.ID)
}

func TestGetDivisions_ScopedByCompany(t *testing.T) {
	cleanupTables(t)
	repo := newDivisionRepo()
	companyID := seedCompany(t, "Alfa")
	otherCompanyID := seedCompany(t, "Beta")

	createDivision(t, repo, companyID, "General", nil)
	createDivision(t, repo, companyID, "Sales", nil)
	createDivision(t, repo, otherCompanyID, "General", nil)

	divisions, total, err := repo.GetDivisions(context.Background(), companyID, types.Filter{WithPagination: false})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	require.Len(t, divisions, 2)
	for _, d := range divisions {
		assert.Equal(t, companyID, d.CompanyID)
	}
}

func TestGetHierarchy_AttachesChildren(t *testing.T) {
	cleanupTables(t)
	repo := newDivisionRepo()
	companyID := seedCompany(t, "Alfa")

	root := createDivision(t, repo, companyID, "Root", nil)
	createDivision(t, repo, companyID, "A", &root.ID)
	createDivision(t, repo, companyID, "B", &root.ID)

	divisions, err := repo.GetHierarchy(context.Background(), companyID)
	require.NoError(t, err)
	require.Len(t, divisions, 3)

	assert.Equal(t, root.ID, divisions[0].ID)
	require.Len(t, divisions[0].Children, 2)
	assert.Equal(t, "A", divisions[0].Children[0].Name)
	assert.Equal(t, "B", divisions[0].Children[1].Name)
}
