package main

import (
	"context"

	crmsystem "crm-system"
	"crm-system/internal/routes"
	"crm-system/pkg/config"
	"crm-system/pkg/customvalidator"
	"crm-system/pkg/database/postgresql"
	"crm-system/pkg/logger"
	appmiddleware "crm-system/pkg/middleware"
	"crm-system/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg := config.New()

	appLogger := logger.NewLogger()
	defer appLogger.Sync()

	if err := postgresql.RunMigrations(cfg.Postgres.DSN, crmsystem.Migrations); err != nil {
		appLogger.Fatal("Ошибка миграций", zap.Error(err))
	}

	dbConn := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbConn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		appLogger.Fatal("Не удалось подключиться к Redis", zap.Error(err))
	}
	defer redisClient.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(appmiddleware.RequestLogger(appLogger))

	v := validator.New()
	if err := customvalidator.RegisterCustomValidations(v); err != nil {
		appLogger.Fatal("Ошибка регистрации валидаторов", zap.Error(err))
	}
	e.Validator = utils.NewValidator(v)

	routes.InitRouter(e, dbConn, redisClient, appLogger, cfg)

	appLogger.Info("Сервер запускается", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		appLogger.Fatal("Сервер остановлен", zap.Error(err))
	}
}
