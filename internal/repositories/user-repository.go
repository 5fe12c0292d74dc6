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

const userFields = `id, company_id, fio, email, password, division_id, is_active, created_at, updated_at, deleted_at`

type UserRepositoryInterface interface {
	FindUser(ctx context.Context, id uint64) (*entities.User, error)
	FindUserByEmail(ctx context.Context, email string) (*entities.User, error)
	CreateUserInTx(ctx context.Context, q Querier, user entities.User) (*entities.User, error)
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(&u.ID, &u.CompanyID, &u.Fio, &u.Email, &u.Password, &u.DivisionID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) FindUser(ctx context.Context, id uint64) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 AND deleted_at IS NULL`, userFields)
	return scanUser(r.storage.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL`, userFields)
	return scanUser(r.storage.QueryRow(ctx, query, email))
}

func (r *UserRepository) CreateUserInTx(ctx context.Context, q Querier, user entities.User) (*entities.User, error) {
	query := fmt.Sprintf(`INSERT INTO users (company_id, fio, email, password, division_id) VALUES ($1, $2, $3, $4, $5) RETURNING %s`, userFields)
	return scanUser(q.QueryRow(ctx, query, user.CompanyID, user.Fio, user.Email, user.Password, user.DivisionID))
}
