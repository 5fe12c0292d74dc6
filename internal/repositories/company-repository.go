package repositories

import (
	"context"
	"errors"
	"fmt"

	"crm-system/internal/entities"
	apperrors "crm-system/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const companyFields = `id, name, email, is_active, created_at, updated_at, deleted_at`

type CompanyRepositoryInterface interface {
	FindCompany(ctx context.Context, id uint64) (*entities.Company, error)
	CreateCompanyInTx(ctx context.Context, q Querier, company entities.Company) (*entities.Company, error)
}

type CompanyRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewCompanyRepository(storage *pgxpool.Pool, logger *zap.Logger) CompanyRepositoryInterface {
	return &CompanyRepository{storage: storage, logger: logger}
}

func scanCompany(row pgx.Row) (*entities.Company, error) {
	var c entities.Company
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.IsActive, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования company: %w", err)
	}
	return &c, nil
}

func (r *CompanyRepository) FindCompany(ctx context.Context, id uint64) (*entities.Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM companies WHERE id = $1 AND deleted_at IS NULL`, companyFields)
	return scanCompany(r.storage.QueryRow(ctx, query, id))
}

func (r *CompanyRepository) CreateCompanyInTx(ctx context.Context, q Querier, company entities.Company) (*entities.Company, error) {
	query := fmt.Sprintf(`INSERT INTO companies (name, email) VALUES ($1, $2) RETURNING %s`, companyFields)
	return scanCompany(q.QueryRow(ctx, query, company.Name, company.Email))
}
