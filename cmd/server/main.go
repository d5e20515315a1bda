package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vocab-backend/internal/app"
	"vocab-backend/internal/config"
	"vocab-backend/internal/database"
	"vocab-backend/internal/handlers"
	"vocab-backend/internal/logger"
	"vocab-backend/internal/router"
	"vocab-backend/internal/scheduler"
	"vocab-backend/internal/websocket"
	"vocab-backend/internal/worker"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("starting vocab backend", "env", cfg.Env)

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connection failed", "error", err)
	}
	defer pool.Close()
	log.Info("✓ postgres connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connection failed", "error", err)
	}
	defer redisClients.Close()
	log.Info("✓ redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(context.Background(), pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("database migration failed", "error", err)
	}
	log.Info("✓ database migrations applied")

	// ──── Step 5: Wire Repositories and Services ────
	c, err := app.Wire(cfg, pool, redisClients, log)
	if err != nil {
		log.Fatal("service wiring failed", "error", err)
	}
	log.Info("✓ services ready", "timezone", c.Clock.Calendar.Location().String(), "streak_cache", cfg.StreakCacheBackend)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, c.Jobs, c.Mastery, c.SRS, c.Events, log, cfg.WorkerCount)
	workerPool.Start()

	sched := scheduler.New(c.JobQueue, redisClients.Cache, c.Clock, scheduler.Options{
		ResetAt:     cfg.MissedReviewResetAt,
		GhostSweeps: cfg.GhostSweepEnabled,
	}, log)
	if err := sched.Start(); err != nil {
		log.Fatal("scheduler failed to start", "error", err)
	}

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, c.JWT, log)

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		c.JWT,
		handlers.NewAuthHandler(c.Auth, log),
		handlers.NewStudentHandler(c.SRS, c.Mastery, c.Stats, c.Dashboard, c.Goals),
		handlers.NewTeacherHandler(c.Mastery, c.Students),
		handlers.NewAdminHandler(c.JobQueue),
		wsHub,
		cfg.FrontendURL,
		log,
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

		log.Info("shutting down")
		sched.Stop()
		workerPool.Stop()
		wsHub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	}()

	log.Info("✓ vocab backend ready", "addr", server.Addr, "api", "/api/v1", "ws", "/api/v1/ws")

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("server error", "error", err)
	}
}
