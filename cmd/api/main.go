package main

import (
	"context"
	"os"

	_ "pharmacare/api/swagger" // swagger docs
	"pharmacare/internal/database"
	"pharmacare/internal/handler"
	"pharmacare/internal/middleware"
	"pharmacare/internal/repository"
	"pharmacare/internal/service"
	"pharmacare/internal/websocket"
	"pharmacare/pkg/logger"
	"pharmacare/pkg/validator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// @title           Pharmacare API
// @version         1.0
// @description     Multi-tenant clinical and pharmacy backend: facilities, role-based access, patient visits, and a transactional stock ledger.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Optional; environment variables may be provided directly.
	_ = godotenv.Load("configs/.env")

	log := logger.New(env("LOG_LEVEL", "info"), os.Getenv("GIN_MODE") != "release")

	dsn := "postgres://" + env("DB_USER", "postgres") + ":" + env("DB_PASSWORD", "postgres") +
		"@" + env("DB_HOST", "localhost") + ":" + env("DB_PORT", "5432") +
		"/" + env("DB_NAME", "pharmacare") + "?sslmode=" + env("DB_SSLMODE", "disable")

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Msg("connected to PostgreSQL")

	validator.Register()

	wsHub := websocket.NewHub(log)
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	facilityRepo := repository.NewFacilityRepository(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	stationRepo := repository.NewStationRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	productRepo := repository.NewProductRepository(db)
	ledgerRepo := repository.NewStoreProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Services
	gate := service.NewGate(roleRepo)
	jwtSecret := middleware.GetJWTSecret()
	userService := service.NewUserService(userRepo, roleRepo, auditRepo, txManager, gate, jwtSecret)
	roleService := service.NewRoleService(roleRepo, auditRepo, txManager, gate)
	facilityService := service.NewFacilityService(facilityRepo, auditRepo, txManager)
	patientService := service.NewPatientService(patientRepo, auditRepo, txManager)
	stationService := service.NewStationService(stationRepo, auditRepo, txManager)
	visitService := service.NewVisitService(visitRepo, patientRepo, stationRepo, auditRepo, txManager)
	storeService := service.NewStoreService(storeRepo, userRepo, auditRepo, txManager)
	productService := service.NewProductService(productRepo, auditRepo, txManager)
	stockService := service.NewStockService(storeRepo, productRepo, ledgerRepo, movementRepo, purchaseRepo, saleRepo, auditRepo, txManager, wsHub)
	auditService := service.NewAuditService(auditRepo)

	seeder := service.NewSeeder(facilityRepo, roleRepo, userRepo, txManager)
	if err := seeder.Run(context.Background(), env("ADMIN_EMAIL", "admin@pharmacare.local"), env("ADMIN_PASSWORD", "admin123")); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}

	auth := middleware.NewAuth(jwtSecret, gate)

	// Handlers
	authHandler := handler.NewAuthHandler(userService, auth)
	facilityHandler := handler.NewFacilityHandler(facilityService, auth)
	userHandler := handler.NewUserHandler(userService, auth)
	roleHandler := handler.NewRoleHandler(roleService, auth)
	patientHandler := handler.NewPatientHandler(patientService, auth)
	stationHandler := handler.NewStationHandler(stationService, auth)
	visitHandler := handler.NewVisitHandler(visitService, auth)
	storeHandler := handler.NewStoreHandler(storeService, auth)
	productHandler := handler.NewProductHandler(productService, auth)
	stockHandler := handler.NewStockHandler(stockService, auth)
	auditHandler := handler.NewAuditHandler(auditService, auth)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{env("FRONTEND_URL", "http://localhost:5173")}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, jwtSecret)
	})

	root := router.Group("")
	authHandler.RegisterRoutes(root)
	facilityHandler.RegisterRoutes(root)
	userHandler.RegisterRoutes(root)
	roleHandler.RegisterRoutes(root)
	patientHandler.RegisterRoutes(root)
	stationHandler.RegisterRoutes(root)
	visitHandler.RegisterRoutes(root)
	storeHandler.RegisterRoutes(root)
	productHandler.RegisterRoutes(root)
	stockHandler.RegisterRoutes(root)
	auditHandler.RegisterRoutes(root)

	port := env("PORT", "8080")
	log.Info().Str("port", port).Msg("server listening")
	if err := router.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
