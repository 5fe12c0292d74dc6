package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"crm-system/internal/dto"
	"crm-system/internal/entities"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type assignmentFixture struct {
	service      AssignmentServiceInterface
	divisionRepo *fakeDivisionRepo
	assignRepo   *fakeAssignmentRepo
}

func newAssignmentFixture() *assignmentFixture {
	f := &assignmentFixture{
		divisionRepo: newFakeDivisionRepo(),
		assignRepo:   newFakeAssignmentRepo(),
	}
	divisionService := NewDivisionService(f.divisionRepo, f.assignRepo, newFakeUserRepo(), newFakeCache(), time.Minute, zap.NewNop())
	f.service = NewAssignmentService(f.assignRepo, divisionService, zap.NewNop())
	return f
}

func TestReassignEntity_ExplicitTarget(t *testing.T) {
	f := newAssignmentFixture()
	general := f.divisionRepo.add(1, "General", nil)
	sales := f.divisionRepo.add(1, "Sales", nil)
	f.assignRepo.addRef(entities.EntityKindContact, 100, 1, &general.ID)

	result, err := f.service.ReassignEntity(context.Background(), 1, dto.ReassignEntityDTO{
		EntityType:    "contact",
		EntityID:      100,
		NewDivisionID: null.IntFrom(int(sales.ID)),
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RequestID)
	require.NotNil(t, result.PreviousDivisionID)
	assert.Equal(t, general.ID, *result.PreviousDivisionID)
	require.NotNil(t, result.NewDivisionID)
	assert.Equal(t, sales.ID, *result.NewDivisionID)

	ref, _ := f.assignRepo.findRef(entities.EntityKindContact, 100)
	assert.Equal(t, sales.ID, *ref.DivisionID)
}

func TestReassignEntity_DefaultsToGeneral(t *testing.T) {
	f := newAssignmentFixture()
	general := f.divisionRepo.add(1, "General", nil)
	sales := f.divisionRepo.add(1, "Sales", nil)
	f.assignRepo.addRef(entities.EntityKindOpportunity, 200, 1, &sales.ID)

	result, err := f.service.ReassignEntity(context.Background(), 1, dto.ReassignEntityDTO{
		EntityType: "opportunity",
		EntityID:   200,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotNil(t, result.NewDivisionID)
	assert.Equal(t, general.ID, *result.NewDivisionID)
}

func TestReassignEntity_MissingGeneralFails(t *testing.T) {
	f := newAssignmentFixture()
	sales := f.divisionRepo.add(1, "Sales", nil)
	f.assignRepo.addRef(entities.EntityKindUser, 300, 1, &sales.ID)

	result, err := f.service.ReassignEntity(context.Background(), 1, dto.ReassignEntityDTO{
		EntityType: "user",
		EntityID:   300,
	})
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)

	// Сущность осталась на месте.
	ref, _ := f.assignRepo.findRef(entities.EntityKindUser, 300)
	assert.Equal(t, sales.ID, *ref.DivisionID)
}

func TestReassignEntity_ForeignEntityLooksNotFound(t *testing.T) {
	f := newAssignmentFixture()
	f.divisionRepo.add(1, "General", nil)
	foreignDivision := f.divisionRepo.add(2, "General", nil)
	f.assignRepo.addRef(entities.EntityKindContact, 100, 2, &foreignDivision.ID)

	result, err := f.service.ReassignEntity(context.Background(), 1, dto.ReassignEntityDTO{
		EntityType: "contact",
		EntityID:   100,
	})
	require.Error(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "не найдена")
}

func TestReassignEntity_MissingEntity(t *testing.T) {
	f := newAssignmentFixture()
	f.divisionRepo.add(1, "General", nil)

	result, err := f.service.ReassignEntity(context.Background(), 1, dto.ReassignEntityDTO{
		EntityType: "project",
		EntityID:   999,
	})
	require.Error(t, err)
	assert.False(t, result.Success)
}

func TestBulkReassign_ContinuesAfterFailure(t *testing.T) {
	f := newAssignmentFixture()
	general := f.divisionRepo.add(1, "General", nil)
	sales := f.divisionRepo.add(1, "Sales", nil)
	f.assignRepo.addRef(entities.EntityKindContact, 1, 1, &general.ID)
	f.assignRepo.addRef(entities.EntityKindContact, 2, 1, &general.ID)
	f.assignRepo.addRef(entities.EntityKindContact, 3, 1, &general.ID)
	f.assignRepo.failOn[entities.EntityKindContact][2] = fmt.Errorf("обрыв соединения")

	payload := dto.BulkReassignDTO{Assignments: []dto.ReassignEntityDTO{
		{EntityType: "contact", EntityID: 1, NewDivisionID: null.IntFrom(int(sales.ID))},
		{EntityType: "contact", EntityID: 2, NewDivisionID: null.IntFrom(int(sales.ID))},
		{EntityType: "contact", EntityID: 3, NewDivisionID: null.IntFrom(int(sales.ID))},
	}}

	bulk, err := f.service.BulkReassignEntities(context.Background(), 1, payload)
	require.NoError(t, err)
	assert.Equal(t, 2, bulk.SuccessCount)
	assert.Equal(t, 1, bulk.FailureCount)
	require.Len(t, bulk.Results, 3)

	// Результаты в порядке запроса.
	assert.True(t, bulk.Results[0].Success)
	assert.False(t, bulk.Results[1].Success)
	assert.True(t, bulk.Results[2].Success)
	assert.Equal(t, uint64(2), bulk.Results[1].EntityID)

	// Первый и третий контакты переехали, второй остался.
	ref, _ := f.assignRepo.findRef(entities.EntityKindContact, 2)
	assert.Equal(t, general.ID, *ref.DivisionID)
	ref, _ = f.assignRepo.findRef(entities.EntityKindContact, 3)
	assert.Equal(t, sales.ID, *ref.DivisionID)
}
