package services

import (
	"bytes"
	"context"
	"fmt"

	"crm-system/internal/entities"
	"crm-system/internal/repositories"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type ReportServiceInterface interface {
	GetDivisionReport(ctx context.Context, companyID uint64) ([]entities.DivisionReportItem, error)
	ExportDivisionReportXLSX(ctx context.Context, companyID uint64) (*bytes.Buffer, error)
}

type ReportService struct {
	reportRepo repositories.ReportRepositoryInterface
	logger     *zap.Logger
}

func NewReportService(reportRepo repositories.ReportRepositoryInterface, logger *zap.Logger) ReportServiceInterface {
	return &ReportService{reportRepo: reportRepo, logger: logger}
}

func (s *ReportService) GetDivisionReport(ctx context.Context, companyID uint64) ([]entities.DivisionReportItem, error) {
	return s.reportRepo.GetDivisionReport(ctx, companyID)
}

var reportHeaders = []string{"ID", "Дивизион", "Родитель", "Руководитель", "Пользователи", "Контакты", "Объекты", "Сделки", "Проекты", "Всего"}

// ExportDivisionReportXLSX формирует отчёт в Excel: одна строка на дивизион,
// количества по видам сущностей и итог.
func (s *ReportService) ExportDivisionReportXLSX(ctx context.Context, companyID uint64) (*bytes.Buffer, error) {
	items, err := s.reportRepo.GetDivisionReport(ctx, companyID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("не удалось закрыть файл отчёта", zap.Error(err))
		}
	}()

	const sheet = "Дивизионы"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for col, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for i, item := range items {
		row := i + 2
		parentName := ""
		if item.ParentName != nil {
			parentName = *item.ParentName
		}
		managerFio := ""
		if item.ManagerFio != nil {
			managerFio = *item.ManagerFio
		}
		values := []interface{}{
			item.DivisionID, item.DivisionName, parentName, managerFio,
			item.Users, item.Contacts, item.Properties, item.Opportunities, item.Projects,
			item.Total(),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("не удалось сформировать xlsx: %w", err)
	}
	return buf, nil
}
