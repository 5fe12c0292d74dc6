package controllers

import (
	"fmt"
	"net/http"
	"time"

	"crm-system/internal/services"
	"crm-system/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ReportController struct {
	service services.ReportServiceInterface
	logger  *zap.Logger
}

func NewReportController(service services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{service: service, logger: logger}
}

func (c *ReportController) GetDivisionReport(ctx echo.Context) error {
	companyID, err := utils.GetCompanyIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	items, err := c.service.GetDivisionReport(ctx.Request().Context(), companyID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, items, "Отчёт по дивизионам получен", http.StatusOK)
}

func (c *ReportController) ExportDivisionReport(ctx echo.Context) error {
	companyID, err := utils.GetCompanyIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	buf, err := c.service.ExportDivisionReportXLSX(ctx.Request().Context(), companyID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	fileName := fmt.Sprintf("divisions_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, fileName))
	return ctx.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
