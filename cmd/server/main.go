package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"school_ledger_echo/internal/handlers"
	appMiddleware "school_ledger_echo/internal/middleware"
	"school_ledger_echo/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Firebase
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Writes will be rejected until valid credentials are provided")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Initialize Redis
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	cache, err := services.NewRedisCache(redisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	// Build services explicitly; every collaborator is passed in.
	collections := services.NewCollectionsCache(cache, db)
	invoices := services.NewInvoiceSequence()
	paymentService := services.NewPaymentService(db, collections, invoices)
	promotionService := services.NewPromotionService(db)
	reportService := services.NewReportService(db)

	paymentHandler := handlers.NewPaymentHandler(paymentService)
	promotionHandler := handlers.NewPromotionHandler(promotionService)
	reportHandler := handlers.NewReportHandler(reportService, collections, cache)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = appMiddleware.JSONErrorHandler
	e.Validator = handlers.NewRequestValidator()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	api := e.Group("/api")
	api.Use(appMiddleware.RequireAuth(authClient))

	// Ledger writes
	api.POST("/payments", paymentHandler.CreatePayment)
	api.POST("/payments/custom", paymentHandler.CreateCustomPayment)
	api.POST("/payments/bulk", paymentHandler.CreateBulkPayments)
	api.POST("/payments/bulk-delete", paymentHandler.DeleteBulkPayments)
	api.DELETE("/payments/:id", paymentHandler.DeletePayment)

	// Ledger reads
	api.GET("/payments/:id", paymentHandler.GetPayment)
	api.GET("/students/:id/payments", paymentHandler.GetStudentPayments)
	api.GET("/students/:id/history", paymentHandler.GetStudentHistory)

	// Promotions
	api.POST("/students/promote", promotionHandler.Promote)
	api.POST("/students/rollback", promotionHandler.Rollback)

	// Reports and the collections counter
	api.GET("/reports/cycle/:payId", reportHandler.CycleReport)
	api.GET("/reports/cash/:year/:month", reportHandler.CashReport)
	api.GET("/reports/class/:className/:payId", reportHandler.ClassStatus)
	api.GET("/collections/today", reportHandler.CollectionsToday)
	api.POST("/collections/recompute", reportHandler.RecomputeCollections)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
