package seeders

import (
	"context"
	"log"

	"crm-system/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedDemoData создаёт демонстрационную компанию с деревом дивизионов
// и горсткой сущностей в них. Предполагает применённые миграции и пустую БД.
func SeedDemoData(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("▶️  Запуск наполнения демо-данными...")

	companyID, err := seedDemoCompany(ctx, db)
	if err != nil {
		log.Fatalf("❌ Ошибка создания демо-компании: %v", err)
	}
	if err := seedDemoDivisions(ctx, db, companyID); err != nil {
		log.Fatalf("❌ Ошибка создания демо-дивизионов: %v", err)
	}
	if err := seedDemoEntities(ctx, db, companyID); err != nil {
		log.Fatalf("❌ Ошибка создания демо-сущностей: %v", err)
	}

	log.Println("✅ Наполнение демо-данными завершено!")
}

func seedDemoCompany(ctx context.Context, db *pgxpool.Pool) (uint64, error) {
	var id uint64
	err := db.QueryRow(ctx,
		`INSERT INTO companies (name, email) VALUES ('Demo Realty', 'info@demo-realty.example') RETURNING id`,
	).Scan(&id)
	return id, err
}

// seedDemoDivisions строит дерево:
//
//	General
//	Sales
//	├── Residential
//	└── Commercial
//	Marketing
//
// Closure-строки заполняются вручную тем же правилом, что и в приложении:
// self-строка плюс цепочка предков родителя с depth+1.
func seedDemoDivisions(ctx context.Context, db *pgxpool.Pool, companyID uint64) error {
	divisions := []struct {
		name   string
		parent string
		color  string
	}{
		{"General", "", "#9E9E9E"},
		{"Sales", "", "#2196F3"},
		{"Residential", "Sales", "#4CAF50"},
		{"Commercial", "Sales", "#FF9800"},
		{"Marketing", "", "#E91E63"},
	}

	ids := make(map[string]uint64, len(divisions))
	for i, d := range divisions {
		var parentID *uint64
		if d.parent != "" {
			v := ids[d.parent]
			parentID = &v
		}
		var id uint64
		err := db.QueryRow(ctx,
			`INSERT INTO divisions (company_id, name, parent_division_id, sort_order, color_code)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			companyID, d.name, parentID, i+1, d.color,
		).Scan(&id)
		if err != nil {
			return err
		}
		ids[d.name] = id

		if _, err := db.Exec(ctx,
			`INSERT INTO division_closure (ancestor_id, descendant_id, depth) VALUES ($1, $1, 0)`, id); err != nil {
			return err
		}
		if parentID != nil {
			if _, err := db.Exec(ctx,
				`INSERT INTO division_closure (ancestor_id, descendant_id, depth)
				 SELECT ancestor_id, $1, depth + 1 FROM division_closure WHERE descendant_id = $2`,
				id, *parentID); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedDemoEntities(ctx context.Context, db *pgxpool.Pool, companyID uint64) error {
	var generalID, salesID uint64
	if err := db.QueryRow(ctx,
		`SELECT id FROM divisions WHERE company_id = $1 AND name = 'General'`, companyID).Scan(&generalID); err != nil {
		return err
	}
	if err := db.QueryRow(ctx,
		`SELECT id FROM divisions WHERE company_id = $1 AND name = 'Sales'`, companyID).Scan(&salesID); err != nil {
		return err
	}

	password, err := utils.HashPassword("demo-password")
	if err != nil {
		return err
	}
	if _, err := db.Exec(ctx,
		`INSERT INTO users (company_id, fio, email, password, division_id)
		 VALUES ($1, 'Администратор Демо', 'admin@demo-realty.example', $2, $3)`,
		companyID, password, generalID); err != nil {
		return err
	}

	if _, err := db.Exec(ctx,
		`INSERT INTO contacts (company_id, fio, email, division_id) VALUES
		 ($1, 'Иванов Иван', 'ivanov@example.com', $2),
		 ($1, 'Петрова Анна', 'petrova@example.com', $2)`,
		companyID, salesID); err != nil {
		return err
	}

	if _, err := db.Exec(ctx,
		`INSERT INTO properties (company_id, title, address, division_id)
		 VALUES ($1, 'Офис на Центральной', 'ул. Центральная, 1', $2)`,
		companyID, salesID); err != nil {
		return err
	}

	if _, err := db.Exec(ctx,
		`INSERT INTO opportunities (company_id, title, amount, division_id)
		 VALUES ($1, 'Продажа офиса', 250000.00, $2)`,
		companyID, salesID); err != nil {
		return err
	}

	_, err = db.Exec(ctx,
		`INSERT INTO projects (company_id, title, division_id)
		 VALUES ($1, 'Запуск нового ЖК', $2)`,
		companyID, generalID)
	return err
}
