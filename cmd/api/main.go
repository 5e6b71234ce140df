package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"gradewise/assignment-evaluator/internal/config"
	"gradewise/assignment-evaluator/internal/handlers"
	"gradewise/assignment-evaluator/internal/repositories"
	"gradewise/assignment-evaluator/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Initialize repositories
	docRepo := repositories.NewDocumentRepository(db)
	analysisRepo := repositories.NewAnalysisRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Initialize services
	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	ocrService := services.NewOCRService()
	pdfRenderer := services.NewPDFRenderer()
	extractorService := services.NewExtractorService(ocrService, pdfRenderer)
	validatorService := services.NewValidatorService()
	log.Println("✅ Services initialized successfully")

	// Initialize grading backends; only vendors with a credential register
	var backends []services.GradingBackend
	var geminiService services.GeminiService

	if cfg.Backends.GeminiAPIKey != "" {
		geminiService, err = services.NewGeminiService(cfg.Backends.GeminiAPIKey)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Gemini backend: %v", err)
		}
		backends = append(backends, geminiService)
		log.Println("✅ Gemini backend initialized")
	}

	if cfg.Backends.OpenAIAPIKey != "" {
		backends = append(backends, services.NewOpenAIService(cfg.Backends.OpenAIAPIKey))
		log.Println("✅ OpenAI backend initialized")
	}

	if cfg.Backends.GroqAPIKey != "" {
		backends = append(backends, services.NewGroqService(cfg.Backends.GroqAPIKey))
		log.Println("✅ Groq backend initialized")
	}

	if len(backends) == 0 {
		log.Fatal("❌ No grading backend configured. Set GEMINI_API_KEY, OPENAI_API_KEY or GROQ_API_KEY.")
	}

	registry := services.NewBackendRegistry(backends...)

	// Rubric context store needs embeddings, so it rides on Gemini
	var rubricStore services.RubricStoreService
	var embedder services.Embedder

	if geminiService != nil {
		rubricStore, err = services.NewRubricStoreService(
			cfg.Qdrant.URL,
			cfg.Qdrant.APIKey,
			cfg.Qdrant.Collection,
		)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
		}

		if err := rubricStore.InitCollection(); err != nil {
			log.Fatalf("❌ Failed to initialize Qdrant collection: %v", err)
		}

		embedder = geminiService
		log.Println("✅ Rubric context store initialized")
	} else {
		log.Println("⚠️  No Gemini key: rubric context retrieval disabled")
	}

	// Initialize analyzer
	analyzerService := services.NewAnalyzerService(
		analysisRepo,
		extractorService,
		pdfRenderer,
		validatorService,
		registry,
		rubricStore,
		embedder,
	)
	log.Println("✅ Analyzer service initialized")

	// Initialize worker
	worker := services.NewWorker(
		analysisRepo,
		analyzerService,
		cfg.Worker.Concurrency,
	)

	ctx := context.Background()
	worker.Start(ctx)
	log.Println("✅ Worker started successfully")

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(
		docRepo,
		storageService,
		cfg.Storage.MaxFileSize,
	)
	analyzeHandler := handlers.NewAnalyzeHandler(
		analysisRepo,
		docRepo,
		worker,
		registry,
		cfg.Grading,
		cfg.Backends.Default,
	)
	resultHandler := handlers.NewResultHandler(analysisRepo)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Assignment Evaluation API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize),
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	// API endpoints
	api.Post("/upload", uploadHandler.HandleUpload)
	api.Post("/analyze", analyzeHandler.HandleAnalyze)
	api.Get("/result/:id", resultHandler.HandleGetResult)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Assignment Evaluation API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/upload",
				"POST /api/v1/analyze",
				"GET /api/v1/result/:id",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
