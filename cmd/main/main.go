package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"inventario-backend/internal/config"
	"inventario-backend/internal/events"
	"inventario-backend/internal/handlers"
	"inventario-backend/internal/middleware"
	"inventario-backend/internal/models"
	"inventario-backend/internal/repository"
	"inventario-backend/internal/services"

	gosharedmw "github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/Tesseract-Nexus/go-shared/tracing"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate models
	if err := db.AutoMigrate(
		&models.Product{},
		&models.InventoryRecord{},
		&models.StockMovement{},
		&models.StockCriticalRule{},
		&models.StockAlert{},
		&models.Notification{},
		&models.Client{},
		&models.Supplier{},
		&models.SupplierPrice{},
		&models.Quotation{},
		&models.QuotationItem{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize logrus logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize repositories
	stockRepo := repository.NewStockRepository(db)
	if err := stockRepo.EnsureIndexes(); err != nil {
		log.Fatal("Failed to create indexes:", err)
	}
	catalogRepo := repository.NewCatalogRepository(db)

	// Initialize NATS event publisher (optional - graceful degradation if NATS unavailable)
	var eventPublisher *events.StockEventPublisher
	if cfg.NATSURL != "" {
		eventPublisher, err = events.NewStockEventPublisher(cfg.NATSURL, cfg.StoreName, logger)
		if err != nil {
			log.Printf("Warning: Failed to initialize NATS event publisher: %v", err)
			log.Println("Continuing without event publishing...")
		} else {
			log.Println("✓ Connected to NATS JetStream for event publishing")
			defer eventPublisher.Close()
		}
	} else {
		log.Println("NATS_URL not configured, event publishing disabled")
	}

	// Initialize services
	criticalService := services.NewStockCriticalService(cfg.DefaultCooldownMinutes, cfg.AlertChannel)
	inventoryService := services.NewInventoryService(stockRepo, catalogRepo, criticalService, logger)
	movementService := services.NewMovementService(stockRepo, criticalService, logger)
	alertService := services.NewAlertService(stockRepo, criticalService, logger)
	importService := services.NewImportService(stockRepo, criticalService, logger)

	// Initialize handlers
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, movementService, eventPublisher)
	alertHandler := handlers.NewAlertHandler(alertService)
	catalogHandler := handlers.NewCatalogHandler(catalogRepo)
	importHandler := handlers.NewImportHandler(importService)
	healthHandler := handlers.NewHealthHandler(db)

	// Initialize OpenTelemetry tracing
	var tracerProvider *tracing.TracerProvider
	if cfg.Environment == "production" {
		tracerProvider, err = tracing.InitTracer(tracing.ProductionConfig("inventario-backend"))
	} else {
		tracerProvider, err = tracing.InitTracer(tracing.DefaultConfig("inventario-backend"))
	}
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	// Initialize Prometheus metrics
	metrics := gosharedmw.InitGlobalMetrics("ferreteria", "inventario_backend")
	log.Println("✓ Prometheus metrics initialized")

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Observability middleware (metrics + tracing)
	router.Use(metrics.Middleware())
	router.Use(tracing.GinMiddleware("inventario-backend"))

	// CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", healthHandler.ExtendedHealthCheck)
	router.GET("/metrics", gosharedmw.Handler())

	api := router.Group("/api/v1")

	// Product routes
	productos := api.Group("/productos")
	{
		productos.POST("", catalogHandler.CreateProduct)
		productos.GET("", catalogHandler.ListProducts)
		productos.GET("/:id", catalogHandler.GetProduct)
		productos.PUT("/:id", catalogHandler.UpdateProduct)
		productos.DELETE("/:id", catalogHandler.DeleteProduct)
	}

	// Inventory routes
	inventario := api.Group("/inventario")
	{
		inventario.POST("", inventoryHandler.CreateInventory)
		inventario.GET("", inventoryHandler.ListInventory)
		inventario.GET("/:id", inventoryHandler.GetInventory)
		inventario.PUT("/:id", inventoryHandler.UpdateInventory)
		inventario.DELETE("/:id", inventoryHandler.DeleteInventory)

		// Movement ledger
		inventario.POST("/:id/movimientos", inventoryHandler.PostMovement)
		inventario.GET("/:id/movimientos", inventoryHandler.ListMovements)

		// Per-inventory alerting rule
		inventario.GET("/:id/regla", inventoryHandler.GetRule)
		inventario.PUT("/:id/regla", inventoryHandler.UpdateRule)
	}

	// Alert routes
	alertas := api.Group("/alertas")
	{
		alertas.GET("", alertHandler.ListAlerts)
		alertas.GET("/count", alertHandler.CountAlerts)
		alertas.POST("/sweep", alertHandler.SweepAlerts)
		alertas.PATCH("/:id/ack", alertHandler.AcknowledgeAlert)
		alertas.PATCH("/:id/resolve", alertHandler.ResolveAlert)
	}

	// Notification routes
	notificaciones := api.Group("/notificaciones")
	{
		notificaciones.GET("", alertHandler.ListNotifications)
		notificaciones.PATCH("/:id/read", alertHandler.MarkNotificationRead)
	}

	// Client routes
	clientes := api.Group("/clientes")
	{
		clientes.POST("", catalogHandler.CreateClient)
		clientes.GET("", catalogHandler.ListClients)
		clientes.GET("/:id", catalogHandler.GetClient)
		clientes.PUT("/:id", catalogHandler.UpdateClient)
		clientes.DELETE("/:id", catalogHandler.DeleteClient)
	}

	// Supplier routes
	proveedores := api.Group("/proveedores")
	{
		proveedores.POST("", catalogHandler.CreateSupplier)
		proveedores.GET("", catalogHandler.ListSuppliers)
		proveedores.PUT("/:id", catalogHandler.UpdateSupplier)
		proveedores.DELETE("/:id", catalogHandler.DeleteSupplier)
		proveedores.PUT("/precios", catalogHandler.UpsertSupplierPrice)
		proveedores.GET("/precios", catalogHandler.ListSupplierPrices)
		proveedores.DELETE("/precios/:id", catalogHandler.DeleteSupplierPrice)
	}

	// Quotation routes
	cotizaciones := api.Group("/cotizaciones")
	{
		cotizaciones.POST("", catalogHandler.CreateQuotation)
		cotizaciones.GET("", catalogHandler.ListQuotations)
		cotizaciones.GET("/:id", catalogHandler.GetQuotation)
		cotizaciones.POST("/:id/convertir", catalogHandler.ConvertQuotation)
		cotizaciones.DELETE("/:id", catalogHandler.DeleteQuotation)
	}

	// Bulk import routes
	importGroup := api.Group("/import")
	{
		importGroup.POST("/catalogo", importHandler.ImportCatalog)
		importGroup.GET("/catalogo/template", importHandler.GetCatalogTemplate)
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Inventario backend starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Shutting down inventario-backend...")

	// Shutdown tracer provider
	if tracerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		} else {
			log.Println("✓ Tracer provider shut down")
		}
	}

	log.Println("Inventario backend stopped")
}
