package controllers

import (
	"net/http"
	"strconv"

	"crm-system/internal/dto"
	"crm-system/internal/services"
	apperrors "crm-system/pkg/errors"
	"crm-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type DivisionController struct {
	service services.DivisionServiceInterface
	logger  *zap.Logger
}

func NewDivisionController(service services.DivisionServiceInterface, logger *zap.Logger) *DivisionController {
	return &DivisionController{service: service, logger: logger}
}

func parseIDParam(ctx echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.ErrBadRequest
	}
	return id, nil
}

func (c *DivisionController) GetDivisions(ctx echo.Context) error {
	companyID, err := utils.GetCompanyIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	divisions, total, err := c.service.GetDivisions(ctx.Request().Context(), companyID, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, divisions, "Список дивизионов получен", http.StatusOK, total)
}

func (c *DivisionController) GetHierarchy(ctx echo.Context) error {
	companyID, err := utils.GetCompanyIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	tree, err := c.service.GetHierarchy(ctx.Request().Context(), companyID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, tree, "Иерархия дивизионов получена", http.StatusOK)
}

func (c *DivisionController) FindDivision(ctx echo.Context) error {
	companyID, err := utils.GetCompanyIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	division, err := c.service.FindDivision(ctx.Request().Context(), companyID, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, division, "Дивизион получен", http.StatusOK)
}

func (c *DivisionController) CreateDivision(ctx echo.Context) error {
	companyID, err := utils.GetCompanyIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.CreateDivisionDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	division, err := c.service.CreateDivision(ctx.Request().Context(), companyID, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, division, "Дивизион создан", http.StatusCreated)
}

func (c *DivisionController) UpdateDivision(ctx echo.Context) error {
	companyID, err := utils.GetCompanyIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateDivisionDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	division, err := c.service.UpdateDivision(ctx.Request().Context(), companyID, id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, division, "Дивизион обновлён", http.StatusOK)
}

func (c *DivisionController) DeleteDivision(ctx echo.Context) error {
	companyID, err := utils.GetCompanyIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.service.DeleteDivision(ctx.Request().Context(), companyID, id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Дивизион удалён", http.StatusOK)
}
