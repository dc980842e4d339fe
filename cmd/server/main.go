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

	"mediacatalog-backend/internal/config"
	"mediacatalog-backend/internal/database"
	"mediacatalog-backend/internal/handlers"
	"mediacatalog-backend/internal/ingest"
	"mediacatalog-backend/internal/repository"
	"mediacatalog-backend/internal/router"
	"mediacatalog-backend/internal/websocket"
	"mediacatalog-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Media Catalog Backend...")

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

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	mediaRepo := repository.NewMediaRepo(pool)
	jobRepo := repository.NewImportJobRepo(pool)
	importStore := repository.NewImportStore(pool)

	// ──── Initialize Import Pipeline ────
	importer := ingest.NewImporter(importStore, cfg.ImportBatchSize)
	log.Printf("✓ Import pipeline ready (batch size %d)", cfg.ImportBatchSize)

	// ──── Initialize Handlers ────
	mediaHandler := handlers.NewMediaHandler(mediaRepo)
	importHandler := handlers.NewImportHandler(importer, jobRepo, redisClients.Queue, cfg.StoragePath, cfg.ImportMaxBytes)
	statsHandler := handlers.NewStatsHandler(pool, redisClients.Queue)

	// ──── Step 5: Start Import Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, importer, jobRepo, cfg.WorkerCount)
	workerPool.Start()
	log.Printf("✓ Import worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(mediaHandler, importHandler, statsHandler, wsHub, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  5 * time.Minute, // bulk CSV uploads can take a while
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Media Catalog Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
