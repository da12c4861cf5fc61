package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/sharemycard/sharemycard-backend/internal/api/handlers"
	"github.com/sharemycard/sharemycard-backend/internal/api/middleware"
	"github.com/sharemycard/sharemycard-backend/internal/config"
	"github.com/sharemycard/sharemycard-backend/internal/cron"
	"github.com/sharemycard/sharemycard-backend/internal/db"
	"github.com/sharemycard/sharemycard-backend/internal/email"
	"github.com/sharemycard/sharemycard-backend/internal/notification"
	"github.com/sharemycard/sharemycard-backend/internal/ratelimit"
	"github.com/sharemycard/sharemycard-backend/internal/repository"
	"github.com/sharemycard/sharemycard-backend/internal/seed"
	"github.com/sharemycard/sharemycard-backend/internal/service"
	"github.com/sharemycard/sharemycard-backend/internal/socket"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// ============================================
	// Run Database Migrations FIRST
	// ============================================
	log.Println("🔄 Running database migrations...")
	if err := db.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database migrations completed")

	// ============================================
	// Initialize PostgreSQL (pgxpool + sqlx)
	// ============================================
	pg, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}
	defer pg.Close()

	repos := repository.NewRepositories(pg.Pool, pg.SQL)
	log.Println("📦 Repositories initialized")

	// ============================================
	// Initialize Redis (optional)
	// ============================================
	var redisDB *db.RedisDB
	if cfg.RedisURL != "" {
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (rate limiting per instance)", err)
			redisDB = nil
		} else {
			defer redisDB.Close()
			log.Println("⚡ Redis enabled")
		}
	}

	// ============================================
	// Capture rate limiter
	// ============================================
	window := time.Duration(cfg.CaptureRateWindow) * time.Second
	var captureLimiter ratelimit.Limiter
	if redisDB != nil {
		captureLimiter = ratelimit.NewRedisLimiter(redisDB.Client, "lead-capture", cfg.CaptureRateLimit, window)
	}
	captureLimiter = ratelimit.WithFallback(captureLimiter, ratelimit.NewMemoryLimiter(cfg.CaptureRateLimit, window))

	// ============================================
	// Initialize Email Service (optional)
	// ============================================
	var (
		emailSvc    *email.Service
		emailQueue  *email.EmailQueue
		emailSender email.Sender
	)
	if cfg.SMTPHost != "" {
		emailSvc = email.NewService(&email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			UseTLS:   cfg.SMTPUseTLS,
		})
		emailQueue = email.NewEmailQueue(emailSvc, 2)
		emailSender = emailQueue
		log.Println("📧 Email service initialized")
	} else {
		log.Println("⚠️  Email not configured (SMTP_HOST not set)")
	}

	// ============================================
	// Initialize WebSocket Hub
	// ============================================
	hub := socket.NewHub()
	go hub.Run()
	broadcaster := socket.NewBroadcaster(hub)
	wsHandler := socket.NewHandler(hub, cfg.JWTSecret, cfg.CORSOrigins)
	log.Println("🔌 WebSocket hub initialized")

	// ============================================
	// Seed Data (for development)
	// ============================================
	if cfg.Environment != "production" {
		if _, err := seed.SeedData(context.Background(), repos, cfg.DemoAccountEmail); err != nil {
			log.Printf("⚠️ Seeding failed: %v", err)
		}
	}

	// ============================================
	// Initialize Services
	// ============================================
	notificationSvc := notification.NewService(repos.NotificationRepo)
	notificationSvc.SetBroadcaster(broadcaster)

	services := service.NewServices(&service.ServiceDeps{
		Config:      cfg,
		Repos:       repos,
		NotifSvc:    notificationSvc,
		EmailSender: emailSender,
		Broadcaster: broadcaster,
	})
	h := handlers.NewHandlers(services)
	log.Println("✨ All services initialized")

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	cronScheduler := cron.NewScheduler(repos)
	if err := cronScheduler.Start(); err != nil {
		log.Fatalf("❌ Failed to start scheduler: %v", err)
	}

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Retry-After", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		code, health, database := http.StatusOK, "healthy", "connected"
		if err := pg.Ping(ctx); err != nil {
			code, health, database = http.StatusServiceUnavailable, "degraded", "unreachable"
		}
		c.JSON(code, gin.H{
			"status":     health,
			"timestamp":  time.Now(),
			"database":   database,
			"cache":      redisDB.Status(ctx),
			"websocket":  "active",
			"ws_clients": hub.GetConnectedClientsCount(),
			"email":      getEmailStatus(emailSvc),
		})
	})

	api := r.Group("/api")
	api.GET("/ws", wsHandler.HandleWebSocket)
	handlers.RegisterRoutes(api, h,
		middleware.AuthMiddleware(services.Auth),
		middleware.RateLimit(captureLimiter),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// ============================================
	// Graceful shutdown
	// ============================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	cronScheduler.Stop()
	hub.Stop()
	if emailQueue != nil {
		emailQueue.Stop()
	}

	log.Println("Server exited")
}

func getEmailStatus(emailSvc *email.Service) string {
	if emailSvc.Configured() {
		return "configured"
	}
	return "disabled"
}
