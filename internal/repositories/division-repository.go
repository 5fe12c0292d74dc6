package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"crm-system/internal/dto"
	"crm-system/internal/entities"
	apperrors "crm-system/pkg/errors"
	"crm-system/pkg/types"
	"crm-system/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const divisionTable = "divisions"

const divisionFields = `id, company_id, name, parent_division_id, division_manager_id, sort_order, target_revenue, color_code, settings, is_active, created_at, updated_at, deleted_at`

var (
	divisionAllowedFilterFields = map[string]string{"parent_division_id": "d.parent_division_id", "division_manager_id": "d.division_manager_id"}
	divisionAllowedSortFields   = map[string]string{"id": "d.id", "name": "d.name", "sort_order": "d.sort_order", "created_at": "d.created_at"}
)

// DivisionRepositoryInterface — tenant-scoped хранилище дивизионов.
// Бизнес-правил не знает; структурные изменения дерева делегирует
// ClosureMaintainer внутри своих транзакций.
type DivisionRepositoryInterface interface {
	GetDivisions(ctx context.Context, companyID uint64, filter types.Filter) ([]entities.Division, uint64, error)
	GetHierarchy(ctx context.Context, companyID uint64) ([]entities.Division, error)
	FindDivision(ctx context.Context, id uint64) (*entities.Division, error)
	FindDivisionByName(ctx context.Context, companyID uint64, name string) (*entities.Division, error)
	IsDescendant(ctx context.Context, ancestorID, descendantID uint64) (bool, error)
	CreateDivision(ctx context.Context, division entities.Division) (*entities.Division, error)
	CreateDivisionInTx(ctx context.Context, q Querier, division entities.Division) (*entities.Division, error)
	UpdateDivision(ctx context.Context, id uint64, d dto.UpdateDivisionDTO) (*entities.Division, error)
	DeleteDivision(ctx context.Context, id uint64) error
}

type DivisionRepository struct {
	storage *pgxpool.Pool
	closure ClosureMaintainerInterface
	logger  *zap.Logger
}

func NewDivisionRepository(storage *pgxpool.Pool, closure ClosureMaintainerInterface, logger *zap.Logger) DivisionRepositoryInterface {
	return &DivisionRepository{storage: storage, closure: closure, logger: logger}
}

func scanDivision(row pgx.Row) (*entities.Division, error) {
	var d entities.Division
	err := row.Scan(
		&d.ID, &d.CompanyID, &d.Name, &d.ParentDivisionID, &d.DivisionManagerID,
		&d.SortOrder, &d.TargetRevenue, &d.ColorCode, &d.Settings, &d.IsActive,
		&d.CreatedAt, &d.UpdatedAt, &d.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования division: %w", err)
	}
	return &d, nil
}

func (r *DivisionRepository) buildFilterQuery(companyID uint64, filter types.Filter) (string, []interface{}) {
	conditions := []string{"d.company_id = $1", "d.is_active = TRUE", "d.deleted_at IS NULL"}
	args := []interface{}{companyID}
	argCounter := 2
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("d.name ILIKE $%d", argCounter))
		args = append(args, "%"+filter.Search+"%")
		argCounter++
	}
	for key, value := range filter.Filter {
		if dbColumn, ok := divisionAllowedFilterFields[key]; ok {
			conditions = append(conditions, fmt.Sprintf("%s = $%d", dbColumn, argCounter))
			args = append(args, value)
			argCounter++
		}
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func (r *DivisionRepository) countDivisions(ctx context.Context, companyID uint64, filter types.Filter) (uint64, error) {
	whereClause, args := r.buildFilterQuery(companyID, filter)
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s AS d %s", divisionTable, whereClause)
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *DivisionRepository) GetDivisions(ctx context.Context, companyID uint64, filter types.Filter) ([]entities.Division, uint64, error) {
	total, err := r.countDivisions(ctx, companyID, filter)
	if err != nil || total == 0 {
		return []entities.Division{}, total, err
	}
	whereClause, args := r.buildFilterQuery(companyID, filter)
	orderByClause := "ORDER BY d.sort_order ASC, d.id ASC"
	if len(filter.Sort) > 0 {
		sorts := []string{}
		for field, direction := range filter.Sort {
			if dbField, ok := divisionAllowedSortFields[field]; ok {
				order := "ASC"
				if strings.ToLower(direction) == "desc" {
					order = "DESC"
				}
				sorts = append(sorts, fmt.Sprintf("%s %s", dbField, order))
			}
		}
		if len(sorts) > 0 {
			orderByClause = "ORDER BY " + strings.Join(sorts, ", ")
		}
	}
	limitClause := ""
	argCounter := len(args) + 1
	if filter.WithPagination {
		limitClause = fmt.Sprintf("LIMIT $%d OFFSET $%d", argCounter, argCounter+1)
		args = append(args, filter.Limit, filter.Offset)
	}
	query := fmt.Sprintf(`SELECT %s FROM %s d %s %s %s`,
		prefixFields("d", divisionFields), divisionTable, whereClause, orderByClause, limitClause)
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	divisions := make([]entities.Division, 0)
	for rows.Next() {
		division, err := scanDivision(rows)
		if err != nil {
			return nil, 0, err
		}
		divisions = append(divisions, *division)
	}
	return divisions, total, rows.Err()
}

// GetHierarchy возвращает все активные дивизионы компании с прикреплёнными
// прямыми потомками (один уровень). Closure-таблица здесь не нужна:
// связь родитель/потомок — обычный внешний ключ.
func (r *DivisionRepository) GetHierarchy(ctx context.Context, companyID uint64) ([]entities.Division, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE company_id = $1 AND is_active = TRUE AND deleted_at IS NULL ORDER BY sort_order ASC, id ASC`,
		divisionFields, divisionTable)
	rows, err := r.storage.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	divisions := make([]entities.Division, 0)
	for rows.Next() {
		division, err := scanDivision(rows)
		if err != nil {
			return nil, err
		}
		divisions = append(divisions, *division)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byID := make(map[uint64]int, len(divisions))
	for i := range divisions {
		byID[divisions[i].ID] = i
	}
	for i := range divisions {
		if parentID := divisions[i].ParentDivisionID; parentID != nil {
			if pi, ok := byID[*parentID]; ok {
				child := divisions[i]
				child.Children = nil
				divisions[pi].Children = append(divisions[pi].Children, child)
			}
		}
	}
	return divisions, nil
}

func (r *DivisionRepository) FindDivision(ctx context.Context, id uint64) (*entities.Division, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 AND is_active = TRUE AND deleted_at IS NULL`, divisionFields, divisionTable)
	return scanDivision(r.storage.QueryRow(ctx, query, id))
}

func (r *DivisionRepository) FindDivisionByName(ctx context.Context, companyID uint64, name string) (*entities.Division, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE company_id = $1 AND LOWER(name) = LOWER($2) AND is_active = TRUE AND deleted_at IS NULL`, divisionFields, divisionTable)
	return scanDivision(r.storage.QueryRow(ctx, query, companyID, name))
}

// IsDescendant отвечает на вопрос "является ли descendantID потомком
// ancestorID" одним чтением closure-таблицы.
func (r *DivisionRepository) IsDescendant(ctx context.Context, ancestorID, descendantID uint64) (bool, error) {
	var exists bool
	err := r.storage.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM division_closure WHERE ancestor_id = $1 AND descendant_id = $2 AND depth > 0)`,
		ancestorID, descendantID,
	).Scan(&exists)
	return exists, err
}

func (r *DivisionRepository) CreateDivision(ctx context.Context, division entities.Division) (*entities.Division, error) {
	var created *entities.Division
	err := WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		var txErr error
		created, txErr = r.CreateDivisionInTx(ctx, tx, division)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateDivisionInTx вставляет дивизион и его closure-строки внутри переданной
// транзакции: sort_order = max+1 среди активных дивизионов компании.
func (r *DivisionRepository) CreateDivisionInTx(ctx context.Context, q Querier, division entities.Division) (*entities.Division, error) {
	var sortOrder int
	err := q.QueryRow(ctx,
		`SELECT COALESCE(MAX(sort_order), 0) + 1 FROM divisions WHERE company_id = $1 AND is_active = TRUE AND deleted_at IS NULL`,
		division.CompanyID,
	).Scan(&sortOrder)
	if err != nil {
		return nil, fmt.Errorf("вычисление sort_order: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (company_id, name, parent_division_id, division_manager_id, sort_order, target_revenue, color_code, settings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, '{}'::jsonb))
		RETURNING %s`, divisionTable, divisionFields)
	created, err := scanDivision(q.QueryRow(ctx, query,
		division.CompanyID, division.Name, division.ParentDivisionID, division.DivisionManagerID,
		sortOrder, division.TargetRevenue, division.ColorCode, division.Settings,
	))
	if err != nil {
		return nil, err
	}

	if err := r.closure.OnCreate(ctx, q, created.ID, created.ParentDivisionID); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateDivision выполняет частичное обновление. Если среди полей есть
// parent_division_id, обновление и перестройка closure-таблицы идут в одной
// транзакции. Отсутствующая строка — это (nil, nil), не ошибка: решать,
// что это значит для клиента, будет сервисный слой.
func (r *DivisionRepository) UpdateDivision(ctx context.Context, id uint64, d dto.UpdateDivisionDTO) (*entities.Division, error) {
	updateBuilder := sq.Update(divisionTable).
		PlaceholderFormat(sq.Dollar).
		Where(sq.Eq{"id": id}).
		Where("deleted_at IS NULL").
		Set("updated_at", sq.Expr("NOW()"))
	hasChanges := false
	if d.Name != nil {
		updateBuilder = updateBuilder.Set("name", *d.Name)
		hasChanges = true
	}
	if d.DivisionManagerID.Valid {
		// 0 снимает руководителя, как и у parent_division_id.
		if d.DivisionManagerID.Int > 0 {
			updateBuilder = updateBuilder.Set("division_manager_id", d.DivisionManagerID.Int)
		} else {
			updateBuilder = updateBuilder.Set("division_manager_id", nil)
		}
		hasChanges = true
	}
	if d.TargetRevenue != nil {
		updateBuilder = updateBuilder.Set("target_revenue", *d.TargetRevenue)
		hasChanges = true
	}
	if d.ColorCode.Valid {
		updateBuilder = updateBuilder.Set("color_code", d.ColorCode.String)
		hasChanges = true
	}
	if d.Settings != nil {
		updateBuilder = updateBuilder.Set("settings", []byte(d.Settings))
		hasChanges = true
	}
	if d.SortOrder != nil {
		updateBuilder = updateBuilder.Set("sort_order", *d.SortOrder)
		hasChanges = true
	}

	var newParentID *uint64
	reparent := d.ParentDivisionID.Valid
	if reparent {
		if d.ParentDivisionID.Int > 0 {
			v := uint64(d.ParentDivisionID.Int)
			newParentID = &v
		}
		updateBuilder = updateBuilder.Set("parent_division_id", newParentID)
		hasChanges = true
	}

	if !hasChanges {
		division, err := r.FindDivision(ctx, id)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return division, err
	}

	query, args, err := updateBuilder.Suffix("RETURNING " + divisionFields).ToSql()
	if err != nil {
		return nil, err
	}

	if !reparent {
		division, err := scanDivision(r.storage.QueryRow(ctx, query, args...))
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return division, err
	}

	var updated *entities.Division
	txErr := WithTx(ctx, r.storage, func(tx pgx.Tx) error {
		// Старого родителя читаем с блокировкой до обновления.
		var oldParentID *uint64
		err := tx.QueryRow(ctx, `SELECT parent_division_id FROM divisions WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, id).Scan(&oldParentID)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		if err != nil {
			return err
		}

		updated, err = scanDivision(tx.QueryRow(ctx, query, args...))
		if err != nil {
			return err
		}

		if utils.AreUint64PointersEqual(oldParentID, newParentID) {
			return nil
		}
		return r.closure.OnReparent(ctx, tx, id, oldParentID, newParentID)
	})
	if errors.Is(txErr, apperrors.ErrNotFound) {
		return nil, nil
	}
	if txErr != nil {
		return nil, txErr
	}
	return updated, nil
}

// DeleteDivision — только мягкое удаление. Closure-строки не трогаем:
// для истории они остаются, а фильтр по is_active делает их недостижимыми.
func (r *DivisionRepository) DeleteDivision(ctx context.Context, id uint64) error {
	query := `UPDATE divisions SET is_active = FALSE, deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.storage.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func prefixFields(alias, fields string) string {
	parts := strings.Split(fields, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
