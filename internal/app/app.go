package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"paygate_backend/database"
	"paygate_backend/internal/cache"
	"paygate_backend/internal/config"
	"paygate_backend/internal/handlers"
	"paygate_backend/internal/logger"
	"paygate_backend/internal/middleware"
	"paygate_backend/internal/models"
	"paygate_backend/internal/repositories"
	"paygate_backend/internal/services"
	"paygate_backend/internal/services/paycom"
	"paygate_backend/internal/workers"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	if err := database.SeedDefaultPlans(gormDB); err != nil {
		logger.Fatal("Failed to seed default plans", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker := workers.NewSubscriptionWorker(gormDB)
	worker.Start(ctx)

	ginRouter := SetupRouter(cfg, gormDB)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter wires repositories, services and handlers into a gin engine.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	store := repositories.NewGormStore(gormDB)
	planRepo := repositories.NewPlanRepository(gormDB)
	paymentLogRepo := repositories.NewPaymentLogRepository(gormDB)

	// The webhook reads the plan catalog on every amount check; put redis in
	// front of it when configured.
	var planSource services.PlanSource = planRepo
	if cfg.Redis.Addr != "" {
		planCache, err := cache.NewPlanCache(planRepo, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to redis", "error", err)
		}
		planSource = planCache
		logger.Info("Plan cache enabled", "addr", cfg.Redis.Addr)
	}

	planService := services.NewPlanService(planSource)
	paymentService := services.NewPaymentService(paymentLogRepo)
	authService := services.NewAuthService(gormDB)

	renewPeriod := time.Duration(cfg.Paycom.RenewDays) * 24 * time.Hour
	paycomService := paycom.NewService(store, planService, renewPeriod)
	paycomAuth := paycom.NewAuthenticator(cfg.Paycom.Login, cfg.Paycom.Key)

	paycomHandler := handlers.NewPaycomHandler(paycomAuth, paycomService)
	planHandler := handlers.NewPlanHandler(planService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(gormDB)

	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery(), middleware.RequestID())

	healthHandler.RegisterRoutes(ginRouter)

	api := ginRouter.Group("/api/v1")
	paycomHandler.RegisterRoutes(api)
	planHandler.RegisterRoutes(api)
	paymentHandler.RegisterRoutes(api)
	authHandler.RegisterRoutes(api)

	return ginRouter
}

// seedFirstAdmin ensures the configured admin account exists.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		logger.Warn("Admin seed skipped: admin.email or admin.password not configured")
		return nil
	}

	var existing models.User
	err := db.First(&existing, "email = ?", cfg.Admin.Email).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:        cfg.Admin.Email,
		PasswordHash: string(hash),
		Role:         models.UserRoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	logger.Info("First admin user seeded", "email", cfg.Admin.Email)
	return nil
}
