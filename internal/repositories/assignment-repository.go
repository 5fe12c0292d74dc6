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

// Таблицы переназначаемых сущностей. Все они несут собственные
// company_id и division_id — отдельной таблицы связей нет.
const (
	userTable        = "users"
	contactTable     = "contacts"
	propertyTable    = "properties"
	opportunityTable = "opportunities"
	projectTable     = "projects"
)

// AssignmentRepositoryInterface — по одному методу поиска и обновления на
// каждый вид сущности; это единственное место, где их division_id меняется
// вне собственных CRUD-потоков сущностей.
type AssignmentRepositoryInterface interface {
	FindUserRef(ctx context.Context, id uint64) (*entities.EntityRef, error)
	FindContactRef(ctx context.Context, id uint64) (*entities.EntityRef, error)
	FindPropertyRef(ctx context.Context, id uint64) (*entities.EntityRef, error)
	FindOpportunityRef(ctx context.Context, id uint64) (*entities.EntityRef, error)
	FindProjectRef(ctx context.Context, id uint64) (*entities.EntityRef, error)

	ReassignUser(ctx context.Context, id, divisionID uint64) (bool, error)
	ReassignContact(ctx context.Context, id, divisionID uint64) (bool, error)
	ReassignProperty(ctx context.Context, id, divisionID uint64) (bool, error)
	ReassignOpportunity(ctx context.Context, id, divisionID uint64) (bool, error)
	ReassignProject(ctx context.Context, id, divisionID uint64) (bool, error)

	CountDivisionReferences(ctx context.Context, divisionID uint64) (entities.DivisionRefCounts, error)
}

type AssignmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewAssignmentRepository(storage *pgxpool.Pool, logger *zap.Logger) AssignmentRepositoryInterface {
	return &AssignmentRepository{storage: storage, logger: logger}
}

func (r *AssignmentRepository) findRef(ctx context.Context, table string, id uint64) (*entities.EntityRef, error) {
	query := fmt.Sprintf(`SELECT id, company_id, division_id FROM %s WHERE id = $1 AND deleted_at IS NULL`, table)
	var ref entities.EntityRef
	err := r.storage.QueryRow(ctx, query, id).Scan(&ref.ID, &ref.CompanyID, &ref.DivisionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования %s: %w", table, err)
	}
	return &ref, nil
}

func (r *AssignmentRepository) reassign(ctx context.Context, table string, id, divisionID uint64) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET division_id = $1, updated_at = NOW() WHERE id = $2 AND deleted_at IS NULL`, table)
	result, err := r.storage.Exec(ctx, query, divisionID, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *AssignmentRepository) FindUserRef(ctx context.Context, id uint64) (*entities.EntityRef, error) {
	return r.findRef(ctx, userTable, id)
}

func (r *AssignmentRepository) FindContactRef(ctx context.Context, id uint64) (*entities.EntityRef, error) {
	return r.findRef(ctx, contactTable, id)
}

func (r *AssignmentRepository) FindPropertyRef(ctx context.Context, id uint64) (*entities.EntityRef, error) {
	return r.findRef(ctx, propertyTable, id)
}

func (r *AssignmentRepository) FindOpportunityRef(ctx context.Context, id uint64) (*entities.EntityRef, error) {
	return r.findRef(ctx, opportunityTable, id)
}

func (r *AssignmentRepository) FindProjectRef(ctx context.Context, id uint64) (*entities.EntityRef, error) {
	return r.findRef(ctx, projectTable, id)
}

func (r *AssignmentRepository) ReassignUser(ctx context.Context, id, divisionID uint64) (bool, error) {
	return r.reassign(ctx, userTable, id, divisionID)
}

func (r *AssignmentRepository) ReassignContact(ctx context.Context, id, divisionID uint64) (bool, error) {
	return r.reassign(ctx, contactTable, id, divisionID)
}

func (r *AssignmentRepository) ReassignProperty(ctx context.Context, id, divisionID uint64) (bool, error) {
	return r.reassign(ctx, propertyTable, id, divisionID)
}

func (r *AssignmentRepository) ReassignOpportunity(ctx context.Context, id, divisionID uint64) (bool, error) {
	return r.reassign(ctx, opportunityTable, id, divisionID)
}

func (r *AssignmentRepository) ReassignProject(ctx context.Context, id, divisionID uint64) (bool, error) {
	return r.reassign(ctx, projectTable, id, divisionID)
}

// CountDivisionReferences считает живые ссылки на дивизион по всем пяти
// таблицам одним запросом — охранник удаления дивизиона в сервисе.
func (r *AssignmentRepository) CountDivisionReferences(ctx context.Context, divisionID uint64) (entities.DivisionRefCounts, error) {
	var counts entities.DivisionRefCounts
	err := r.storage.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users         WHERE division_id = $1 AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM contacts      WHERE division_id = $1 AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM properties    WHERE division_id = $1 AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM opportunities WHERE division_id = $1 AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM projects      WHERE division_id = $1 AND deleted_at IS NULL)`,
		divisionID,
	).Scan(&counts.Users, &counts.Contacts, &counts.Properties, &counts.Opportunities, &counts.Projects)
	if err != nil {
		return entities.DivisionRefCounts{}, fmt.Errorf("подсчёт ссылок на дивизион %d: %w", divisionID, err)
	}
	return counts, nil
}
