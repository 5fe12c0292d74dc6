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

type CompanyController struct {
	service services.CompanyServiceInterface
	logger  *zap.Logger
}

func NewCompanyController(service services.CompanyServiceInterface, logger *zap.Logger) *CompanyController {
	return &CompanyController{service: service, logger: logger}
}

// CreateCompany — онбординг: открытый эндпоинт, регистрирует компанию
// вместе с владельцем и дивизионом "General".
func (c *CompanyController) CreateCompany(ctx echo.Context) error {
	var payload dto.CreateCompanyDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	company, err := c.service.CreateCompany(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, company, "Компания создана", http.StatusCreated)
}

func (c *CompanyController) FindMyCompany(ctx echo.Context) error {
	companyID, err := utils.GetCompanyIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	company, err := c.service.FindCompany(ctx.Request().Context(), companyID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, company, "Компания получена", http.StatusOK)
}
