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

	"byamn-backend/internal/config"
	"byamn-backend/internal/database"
	"byamn-backend/internal/handlers"
	"byamn-backend/internal/middleware"
	"byamn-backend/internal/repository"
	"byamn-backend/internal/router"
	"byamn-backend/internal/services"
	"byamn-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting BYAMN Backend...")

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
	userRepo := repository.NewUserRepo(pool)
	courseRepo := repository.NewCourseRepo(pool)
	enrollmentRepo := repository.NewEnrollmentRepo(pool)
	verificationLogRepo := repository.NewVerificationLogRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)
	youtubeService := services.NewYouTubeService()
	authService := services.NewAuthService(userRepo, redisClients.Cache, jwtAuth, emailService, cfg.GoogleClientID)

	watchCacheTTL := time.Duration(cfg.WatchCacheTTLDays) * 24 * time.Hour
	watchCache := services.NewWatchCache(services.NewRedisScratchStore(redisClients.Cache, watchCacheTTL))
	tracker := services.NewWatchTracker(watchCache)
	publisher := services.NewProgressPublisher(redisClients.PubSub)

	enrollmentService := services.NewEnrollmentService(enrollmentRepo)
	playerService := services.NewPlayerService(enrollmentService, courseRepo, tracker, publisher)
	certificateService := services.NewCertificateService(enrollmentRepo, userRepo, courseRepo, emailService)

	verifyLimiter := middleware.NewRateLimiter(cfg.VerifyRateLimit, time.Duration(cfg.VerifyRateWindow)*time.Second)
	verificationService := services.NewVerificationService(enrollmentRepo, userRepo, courseRepo, verificationLogRepo, verifyLimiter)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	courseHandler := handlers.NewCourseHandler(courseRepo, enrollmentRepo, enrollmentService)
	playerHandler := handlers.NewPlayerHandler(playerService)
	certificateHandler := handlers.NewCertificateHandler(enrollmentRepo, certificateService)
	verificationHandler := handlers.NewVerificationHandler(verificationService)
	adminHandler := handlers.NewAdminHandler(courseRepo, youtubeService)

	// ──── Step 5: Start Session Reaper ────
	reaper := services.NewSessionReaper(tracker)
	reaper.Start()
	log.Println("✓ Watch session reaper started")

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		courseHandler,
		playerHandler,
		certificateHandler,
		verificationHandler,
		adminHandler,
		wsHub,
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
		reaper.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ BYAMN Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
