package controllers

import (
	"net/http"

	"crm-system/internal/dto"
	"crm-system/internal/services"
	apperrors "crm-system/pkg/errors"
	"crm-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AssignmentController struct {
	service services.AssignmentServiceInterface
	logger  *zap.Logger
}

func NewAssignmentController(service services.AssignmentServiceInterface, logger *zap.Logger) *AssignmentController {
	return &AssignmentController{service: service, logger: logger}
}

func (c *AssignmentController) ReassignEntity(ctx echo.Context) error {
	companyID, err := utils.GetCompanyIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.ReassignEntityDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	result, err := c.service.ReassignEntity(ctx.Request().Context(), companyID, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, result, "Сущность перенесена", http.StatusOK)
}

// BulkReassign не атомарен: ответ всегда 200, итог по каждому элементу
// лежит в results.
func (c *AssignmentController) BulkReassign(ctx echo.Context) error {
	companyID, err := utils.GetCompanyIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.BulkReassignDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	result, err := c.service.BulkReassignEntities(ctx.Request().Context(), companyID, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, result, "Пакетный перенос выполнен", http.StatusOK)
}
