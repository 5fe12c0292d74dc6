package crmsystem

import "embed"

// Migrations — SQL-миграции, вшитые в бинарник: деплой не зависит от
// наличия файлов на диске.
//
//go:embed migrations/*.sql
var Migrations embed.FS
