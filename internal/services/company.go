package services

import (
	"context"
	"errors"

	"crm-system/internal/dto"
	"crm-system/internal/entities"
	"crm-system/internal/repositories"
	apperrors "crm-system/pkg/errors"
	"crm-system/pkg/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type CompanyServiceInterface interface {
	CreateCompany(ctx context.Context, payload dto.CreateCompanyDTO) (*dto.CompanyDTO, error)
	FindCompany(ctx context.Context, id uint64) (*dto.CompanyDTO, error)
}

type CompanyService struct {
	txManager    repositories.TxManagerInterface
	companyRepo  repositories.CompanyRepositoryInterface
	divisionRepo repositories.DivisionRepositoryInterface
	userRepo     repositories.UserRepositoryInterface
	logger       *zap.Logger
}

func NewCompanyService(
	txManager repositories.TxManagerInterface,
	companyRepo repositories.CompanyRepositoryInterface,
	divisionRepo repositories.DivisionRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) CompanyServiceInterface {
	return &CompanyService{
		txManager:    txManager,
		companyRepo:  companyRepo,
		divisionRepo: divisionRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// CreateCompany — онбординг арендатора: компания, её дивизион "General"
// и пользователь-владелец создаются в одной транзакции. Владелец сразу
// закрепляется за "General".
func (s *CompanyService) CreateCompany(ctx context.Context, payload dto.CreateCompanyDTO) (*dto.CompanyDTO, error) {
	if _, err := s.userRepo.FindUserByEmail(ctx, payload.OwnerEmail); err == nil {
		return nil, apperrors.NewConflictError("Пользователь с таким email уже существует")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(payload.OwnerPassword)
	if err != nil {
		return nil, err
	}

	var (
		company  *entities.Company
		general  *entities.Division
		owner    *entities.User
		emailPtr *string
	)
	if payload.Email != "" {
		emailPtr = &payload.Email
	}

	txErr := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		company, err = s.companyRepo.CreateCompanyInTx(ctx, tx, entities.Company{Name: payload.Name, Email: emailPtr})
		if err != nil {
			return err
		}

		general, err = s.divisionRepo.CreateDivisionInTx(ctx, tx, entities.Division{
			CompanyID: company.ID,
			Name:      DefaultDivisionName,
		})
		if err != nil {
			return err
		}

		generalID := general.ID
		owner, err = s.userRepo.CreateUserInTx(ctx, tx, entities.User{
			CompanyID:  company.ID,
			Fio:        payload.OwnerFio,
			Email:      payload.OwnerEmail,
			Password:   hashedPassword,
			DivisionID: &generalID,
		})
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	s.logger.Info("компания создана",
		zap.Uint64("company_id", company.ID),
		zap.Uint64("general_division_id", general.ID),
		zap.Uint64("owner_user_id", owner.ID))

	result := toCompanyDTO(company)
	result.GeneralDivision = &dto.ShortDivisionDTO{ID: general.ID, Name: general.Name}
	result.OwnerUserID = owner.ID
	return result, nil
}

func (s *CompanyService) FindCompany(ctx context.Context, id uint64) (*dto.CompanyDTO, error) {
	company, err := s.companyRepo.FindCompany(ctx, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("Компания не найдена")
	}
	if err != nil {
		return nil, err
	}
	return toCompanyDTO(company), nil
}

func toCompanyDTO(c *entities.Company) *dto.CompanyDTO {
	return &dto.CompanyDTO{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		IsActive:  c.IsActive,
		CreatedAt: formatTimePtr(c.CreatedAt),
	}
}
