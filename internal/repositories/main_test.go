package repositories

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Интеграционные тесты репозиториев. Нужен живой PostgreSQL,
// адрес берётся из TEST_DATABASE_URL; без него тесты пропускаются.
var (
	testPool   *pgxpool.Pool
	testLogger = zap.NewNop()
)

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		fmt.Println("TEST_DATABASE_URL не задан, интеграционные тесты репозиториев пропущены")
		os.Exit(0)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Printf("не удалось подключиться к тестовой БД: %v\n", err)
		os.Exit(1)
	}
	testPool = pool

	if err := applySchema(ctx, pool); err != nil {
		fmt.Printf("не удалось применить тестовую схему: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	pool.Close()
	os.Exit(code)
}

func applySchema(ctx context.Context, pool *pgxpool.Pool) error {
	schema, err := os.ReadFile("testdata/schema.sql")
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, string(schema))
	return err
}

func cleanupTables(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		`TRUNCATE projects, opportunities, properties, contacts, division_closure, users, divisions, companies RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("не удалось очистить таблицы: %v", err)
	}
}

func seedCompany(t *testing.T, name string) uint64 {
	t.Helper()
	var id uint64
	err := testPool.QueryRow(context.Background(),
		`INSERT INTO companies (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		t.Fatalf("не удалось создать компанию: %v", err)
	}
	return id
}

func seedUser(t *testing.T, companyID uint64, fio, email string, divisionID *uint64) uint64 {
	t.Helper()
	var id uint64
	err := testPool.QueryRow(context.Background(),
		`INSERT INTO users (company_id, fio, email, password, division_id) VALUES ($1, $2, $3, 'x', $4) RETURNING id`,
		companyID, fio, email, divisionID).Scan(&id)
	if err != nil {
		t.Fatalf("не удалось создать пользователя: %v", err)
	}
	return id
}

func seedContact(t *testing.T, companyID uint64, fio string, divisionID *uint64) uint64 {
	t.Helper()
	var id uint64
	err := testPool.QueryRow(context.Background(),
		`INSERT INTO contacts (company_id, fio, division_id) VALUES ($1, $2, $3) RETURNING id`,
		companyID, fio, divisionID).Scan(&id)
	if err != nil {
		t.Fatalf("не удалось создать контакт: %v", err)
	}
	return id
}

func closureRow(t *testing.T, ancestorID, descendantID uint64) (int, bool) {
	t.Helper()
	var depth int
	err := testPool.QueryRow(context.Background(),
		`SELECT depth FROM division_closure WHERE ancestor_id = $1 AND descendant_id = $2`,
		ancestorID, descendantID).Scan(&depth)
	if err != nil {
		return 0, false
	}
	return depth, true
}

func closureCount(t *testing.T) int {
	t.Helper()
	var n int
	if err := testPool.QueryRow(context.Background(), `SELECT COUNT(*) FROM division_closure`).Scan(&n); err != nil {
		t.Fatalf("не удалось посчитать closure-строки: %v", err)
	}
	return n
}
