package services

import (
	"context"
	"errors"
	"fmt"

	"crm-system/internal/dto"
	"crm-system/internal/entities"
	"crm-system/internal/repositories"
	apperrors "crm-system/pkg/errors"
	"crm-system/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssignmentServiceInterface — перенос сущностей между дивизионами.
// Одиночный перенос и пакет; пакет не атомарен, ошибки по каждому
// элементу фиксируются в результатах.
type AssignmentServiceInterface interface {
	ReassignEntity(ctx context.Context, callerCompanyID uint64, payload dto.ReassignEntityDTO) (*dto.AssignmentResultDTO, error)
	BulkReassignEntities(ctx context.Context, callerCompanyID uint64, payload dto.BulkReassignDTO) (*dto.BulkReassignResultDTO, error)
}

// entityHandler — пара операций одного вида сущности.
type entityHandler struct {
	findRef  func(ctx context.Context, id uint64) (*entities.EntityRef, error)
	reassign func(ctx context.Context, id, divisionID uint64) (bool, error)
}

type AssignmentService struct {
	divisionService DivisionServiceInterface
	handlers        map[entities.EntityKind]entityHandler
	logger          *zap.Logger
}

func NewAssignmentService(
	assignmentRepo repositories.AssignmentRepositoryInterface,
	divisionService DivisionServiceInterface,
	logger *zap.Logger,
) AssignmentServiceInterface {
	return &AssignmentService{
		divisionService: divisionService,
		handlers: map[entities.EntityKind]entityHandler{
			entities.EntityKindUser:        {assignmentRepo.FindUserRef, assignmentRepo.ReassignUser},
			entities.EntityKindContact:     {assignmentRepo.FindContactRef, assignmentRepo.ReassignContact},
			entities.EntityKindProperty:    {assignmentRepo.FindPropertyRef, assignmentRepo.ReassignProperty},
			entities.EntityKindOpportunity: {assignmentRepo.FindOpportunityRef, assignmentRepo.ReassignOpportunity},
			entities.EntityKindProject:     {assignmentRepo.FindProjectRef, assignmentRepo.ReassignProject},
		},
		logger: logger,
	}
}

// ReassignEntity переносит одну сущность. Возвращаемый результат заполняется
// и при ошибке — пакетная операция кладёт его в свой список как есть.
func (s *AssignmentService) ReassignEntity(ctx context.Context, callerCompanyID uint64, payload dto.ReassignEntityDTO) (*dto.AssignmentResultDTO, error) {
	result := &dto.AssignmentResultDTO{
		RequestID:  uuid.NewString(),
		EntityType: payload.EntityType,
		EntityID:   payload.EntityID,
	}

	fail := func(err error) (*dto.AssignmentResultDTO, error) {
		result.Success = false
		result.Message = err.Error()
		return result, err
	}

	kind, err := entities.ParseEntityKind(payload.EntityType)
	if err != nil {
		return fail(apperrors.NewInvalidInputError("неподдерживаемый вид сущности: %s", payload.EntityType))
	}
	handler := s.handlers[kind]

	ref, err := handler.findRef(ctx, payload.EntityID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return fail(apperrors.NewNotFoundError(fmt.Sprintf("Сущность %s с ID %d не найдена", kind, payload.EntityID)))
	}
	if err != nil {
		return fail(err)
	}
	// Чужая компания неотличима от отсутствия записи.
	if ref.CompanyID != callerCompanyID {
		return fail(apperrors.NewNotFoundError(fmt.Sprintf("Сущность %s с ID %d не найдена", kind, payload.EntityID)))
	}
	result.PreviousDivisionID = ref.DivisionID

	// Дивизион назначения проверяется в компании самой сущности.
	targetID, err := s.divisionService.ResolveDivisionID(ctx, ref.CompanyID, utils.NullIntToUint64Ptr(payload.NewDivisionID))
	if err != nil {
		return fail(err)
	}

	updated, err := handler.reassign(ctx, payload.EntityID, targetID)
	if err != nil {
		return fail(err)
	}
	if !updated {
		return fail(apperrors.NewNotFoundError(fmt.Sprintf("Сущность %s с ID %d не найдена", kind, payload.EntityID)))
	}

	result.Success = true
	result.NewDivisionID = &targetID
	result.Message = "Сущность перенесена"
	s.logger.Info("сущность перенесена в другой дивизион",
		zap.String("request_id", result.RequestID),
		zap.String("entity_type", string(kind)),
		zap.Uint64("entity_id", payload.EntityID),
		zap.Uint64("new_division_id", targetID))
	return result, nil
}

// BulkReassignEntities обрабатывает элементы последовательно, в порядке
// запроса. Падение одного элемента не останавливает остальные.
func (s *AssignmentService) BulkReassignEntities(ctx context.Context, callerCompanyID uint64, payload dto.BulkReassignDTO) (*dto.BulkReassignResultDTO, error) {
	bulk := &dto.BulkReassignResultDTO{
		Results: make([]dto.AssignmentResultDTO, 0, len(payload.Assignments)),
	}
	for _, assignment := range payload.Assignments {
		result, err := s.ReassignEntity(ctx, callerCompanyID, assignment)
		if err != nil {
			bulk.FailureCount++
		} else {
			bulk.SuccessCount++
		}
		bulk.Results = append(bulk.Results, *result)
	}
	return bulk, nil
}
