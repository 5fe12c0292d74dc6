package main

import (
	"flag"
	"log"

	crmsystem "crm-system"
	"crm-system/pkg/config"
	"crm-system/pkg/database/postgresql"
	"crm-system/seeders"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runDemo := flag.Bool("demo", false, "Создать демо-компанию с дивизионами и сущностями")
	flag.Parse()

	if !*runDemo {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Пример использования:")
		log.Println("  go run ./seeders/cmd/seed/main.go -demo")
		log.Println("======================================================")
		return
	}

	cfg := config.New()

	if err := postgresql.RunMigrations(cfg.Postgres.DSN, crmsystem.Migrations); err != nil {
		log.Fatalf("❌ Ошибка применения миграций: %v", err)
	}

	db := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer db.Close()

	seeders.SeedDemoData(db)
}
