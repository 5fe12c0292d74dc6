package routes

import (
	"time"

	"crm-system/internal/controllers"
	"crm-system/internal/repositories"
	"crm-system/internal/services"
	"crm-system/pkg/config"
	"crm-system/pkg/middleware"
	"crm-system/pkg/service"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// InitRouter собирает весь граф зависимостей и вешает маршруты.
// Открыты только онбординг компании и вход, остальное — за auth.
func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, logger *zap.Logger, cfg *config.Config) {
	// Репозитории
	txManager := repositories.NewTxManager(dbConn)
	closureMaintainer := repositories.NewClosureMaintainer(logger)
	divisionRepo := repositories.NewDivisionRepository(dbConn, closureMaintainer, logger)
	assignmentRepo := repositories.NewAssignmentRepository(dbConn, logger)
	userRepo := repositories.NewUserRepository(dbConn, logger)
	companyRepo := repositories.NewCompanyRepository(dbConn, logger)
	reportRepo := repositories.NewReportRepository(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// Сервисы
	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL, logger)
	divisionService := services.NewDivisionService(divisionRepo, assignmentRepo, userRepo, cacheRepo, cfg.Cache.HierarchyTTL, logger)
	assignmentService := services.NewAssignmentService(assignmentRepo, divisionService, logger)
	companyService := services.NewCompanyService(txManager, companyRepo, divisionRepo, userRepo, logger)
	authService := services.NewAuthService(userRepo, jwtSvc, logger)
	reportService := services.NewReportService(reportRepo, logger)

	// Контроллеры
	divisionController := controllers.NewDivisionController(divisionService, logger)
	assignmentController := controllers.NewAssignmentController(assignmentService, logger)
	companyController := controllers.NewCompanyController(companyService, logger)
	authController := controllers.NewAuthController(authService, logger)
	reportController := controllers.NewReportController(reportService, logger)

	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)

	api := e.Group("/api")

	// Открытые маршруты
	api.POST("/companies", companyController.CreateCompany)
	api.POST("/auth/login", authController.Login)
	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "time": time.Now().Format(time.RFC3339)})
	})

	// Защищённые маршруты
	secured := api.Group("", authMW.Auth)

	secured.GET("/company", companyController.FindMyCompany)

	secured.GET("/divisions", divisionController.GetDivisions)
	secured.GET("/divisions/hierarchy", divisionController.GetHierarchy)
	secured.GET("/divisions/:id", divisionController.FindDivision)
	secured.POST("/divisions", divisionController.CreateDivision)
	secured.PUT("/divisions/:id", divisionController.UpdateDivision)
	secured.DELETE("/divisions/:id", divisionController.DeleteDivision)

	secured.POST("/assignments/reassign", assignmentController.ReassignEntity)
	secured.POST("/assignments/bulk-reassign", assignmentController.BulkReassign)

	secured.GET("/reports/divisions", reportController.GetDivisionReport)
	secured.GET("/reports/divisions/export", reportController.ExportDivisionReport)
}
