package repositories

import (
	"context"

	"crm-system/internal/entities"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ReportRepositoryInterface interface {
	GetDivisionReport(ctx context.Context, companyID uint64) ([]entities.DivisionReportItem, error)
}

type ReportRepository struct {
	storage *pgxpool.Pool
}

func NewReportRepository(storage *pgxpool.Pool) ReportRepositoryInterface {
	return &ReportRepository{storage: storage}
}

// GetDivisionReport собирает по каждому активному дивизиону компании
// количество закреплённых сущностей всех пяти видов.
func (r *ReportRepository) GetDivisionReport(ctx context.Context, companyID uint64) ([]entities.DivisionReportItem, error) {
	query := `
		SELECT d.id, d.name, p.name AS parent_name, m.fio AS manager_fio,
			(SELECT COUNT(*) FROM users         WHERE division_id = d.id AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM contacts      WHERE division_id = d.id AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM properties    WHERE division_id = d.id AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM opportunities WHERE division_id = d.id AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM projects      WHERE division_id = d.id AND deleted_at IS NULL)
		FROM divisions AS d
		LEFT JOIN divisions AS p ON p.id = d.parent_division_id
		LEFT JOIN users AS m ON m.id = d.division_manager_id
		WHERE d.company_id = $1 AND d.is_active = TRUE AND d.deleted_at IS NULL
		ORDER BY d.sort_order ASC, d.id ASC`

	rows, err := r.storage.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]entities.DivisionReportItem, 0)
	for rows.Next() {
		var item entities.DivisionReportItem
		if err := rows.Scan(
			&item.DivisionID, &item.DivisionName, &item.ParentName, &item.ManagerFio,
			&item.Users, &item.Contacts, &item.Properties, &item.Opportunities, &item.Projects,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
