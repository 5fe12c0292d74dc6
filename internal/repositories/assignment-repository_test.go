package repositories

import (
	"context"
	"testing"

	apperrors "crm-system/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindContactRef(t *testing.T) {
	cleanupTables(t)
	divisionRepo := newDivisionRepo()
	repo := NewAssignmentRepository(testPool, testLogger)
	companyID := seedCompany(t, "Alfa")

	general := createDivision(t, divisionRepo, companyID, "General", nil)
	contactID := seedContact(t, companyID, "Иванов И.И.", &general.ID)

	ref, err := repo.FindContactRef(context.Background(), contactID)
	require.NoError(t, err)
	assert.Equal(t, contactID, ref.ID)
	assert.Equal(t, companyID, ref.CompanyID)
	require.NotNil(t, ref.DivisionID)
	assert.Equal(t, general.ID, *ref.DivisionID)

	_, err = repo.FindContactRef(context.Background(), 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReassignContact(t *testing.T) {
	cleanupTables(t)
	divisionRepo := newDivisionRepo()
	repo := NewAssignmentRepository(testPool, testLogger)
	companyID := seedCompany(t, "Alfa")

	general := createDivision(t, divisionRepo, companyID, "General", nil)
	sales := createDivision(t, divisionRepo, companyID, "Sales", nil)
	contactID := seedContact(t, companyID, "Иванов И.И.", &general.ID)

	updated, err := repo.ReassignContact(context.Background(), contactID, sales.ID)
	require.NoError(t, err)
	assert.True(t, updated)

	ref, err := repo.FindContactRef(context.Background(), contactID)
	require.NoError(t, err)
	require.NotNil(t, ref.DivisionID)
	assert.Equal(t, sales.ID, *ref.DivisionID)

	// Несуществующая запись — false, не ошибка.
	updated, err = repo.ReassignContact(context.Background(), 9999, sales.ID)
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestCountDivisionReferences(t *testing.T) {
	cleanupTables(t)
	divisionRepo := newDivisionRepo()
	repo := NewAssignmentRepository(testPool, testLogger)
	companyID := seedCompany(t, "Alfa")

	general := createDivision(t, divisionRepo, companyID, "General", nil)
	sales := createDivision(t, divisionRepo, companyID, "Sales", nil)

	seedUser(t, companyID, "Петров П.П.", "petrov@example.com", &general.ID)
	seedContact(t, companyID, "Иванов И.И.", &general.ID)
	seedContact(t, companyID, "Сидоров С.С.", &general.ID)

	counts, err := repo.CountDivisionReferences(context.Background(), general.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Users)
	assert.Equal(t, int64(2), counts.Contacts)
	assert.Equal(t, int64(0), counts.Properties)
	assert.Equal(t, int64(3), counts.Total())

	counts, err = repo.CountDivisionReferences(context.Background(), sales.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts.Total())
}
