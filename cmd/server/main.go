package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskflow-backend/internal/config"
	"taskflow-backend/internal/database"
	"taskflow-backend/internal/handlers"
	"taskflow-backend/internal/middleware"
	"taskflow-backend/internal/repository"
	"taskflow-backend/internal/router"
	"taskflow-backend/internal/services"
	"taskflow-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Taskflow Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Client ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	sessionRepo := repository.NewSessionRepo(pool)
	metricsRepo := repository.NewMetricsRepo(pool)
	taskRepo := repository.NewTaskRepo(pool)
	workspaceRepo := repository.NewWorkspaceRepo(pool)
	userRepo := repository.NewUserRepo(pool)
	insightRepo := repository.NewInsightRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	insightService, err := services.NewInsightService(cfg.GeminiAPIKey, cfg.GeminiConcurrentReqs, insightRepo)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer insightService.Close()
	log.Println("✓ Gemini Flash client initialized")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	insightQueue := services.NewInsightQueue(redisClient)
	timerService := services.NewTimerService(sessionRepo, metricsRepo, insightQueue)
	metricsService := services.NewMetricsService(metricsRepo, sessionRepo, taskRepo, workspaceRepo)
	taskService := services.NewTaskService(taskRepo, metricsRepo)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)

	// ──── Initialize Handlers ────
	timerHandler := handlers.NewTimerHandler(timerService)
	metricsHandler := handlers.NewMetricsHandler(metricsService)
	taskHandler := handlers.NewTaskHandler(taskService)
	insightHandler := handlers.NewInsightHandler(insightRepo)

	// ──── Step 6: Start Insight Worker Pool ────
	workerPool := worker.NewPool(redisClient, insightService, cfg.InsightWorkers)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.InsightWorkers)

	digestScheduler := services.NewDigestScheduler(userRepo, metricsService, emailService)
	digestScheduler.Start()
	log.Println("✓ Weekly digest scheduler started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		timerHandler,
		metricsHandler,
		taskHandler,
		insightHandler,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()
		digestScheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Taskflow Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
