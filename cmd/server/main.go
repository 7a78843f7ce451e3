package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/odavaloshdz/estacionador/api/internal/config"
	"github.com/odavaloshdz/estacionador/api/internal/database"
	"github.com/odavaloshdz/estacionador/api/internal/handlers"
	"github.com/odavaloshdz/estacionador/api/internal/logger"
	"github.com/odavaloshdz/estacionador/api/internal/middleware"
	"github.com/odavaloshdz/estacionador/api/internal/realtime"
	"github.com/odavaloshdz/estacionador/api/internal/repository"
	"github.com/odavaloshdz/estacionador/api/internal/services"
	"github.com/redis/go-redis/v9"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting Estacionador API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	// Occupancy change feed: websocket hub always, Redis fan-out when
	// configured so events reach dashboards on other instances.
	hub := realtime.NewHub(log)
	var notifier services.Notifier = hub
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		notifier = realtime.NewFanout(hub, realtime.NewRedisPublisher(redisClient, log))
		log.Info("Redis event publishing enabled", map[string]interface{}{
			"addr":    cfg.Redis.Addr,
			"channel": realtime.EventChannel,
		})
	}

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Initialize repository and service layers
	lotRepo := repository.NewLotRepository(db)
	spaceRepo := repository.NewSpaceRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	lotService := services.NewLotService(db, lotRepo, spaceRepo, log)
	spaceService := services.NewSpaceService(db, lotRepo, spaceRepo, log)
	ticketService := services.NewTicketService(ticketRepo)
	occupancyService := services.NewOccupancyService(db, lotRepo, spaceRepo, ticketRepo, cfg.RateTable(), notifier, log)

	// Initialize handlers
	lotHandler := handlers.NewLotHandler(lotService, occupancyService)
	spaceHandler := handlers.NewSpaceHandler(spaceService, occupancyService)
	ticketHandler := handlers.NewTicketHandler(ticketService, lotService)

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.Auth.JWTSecret))
	{
		v1.GET("/ws", hub.ServeWS)

		lots := v1.Group("/lots")
		{
			lots.POST("", middleware.RequireRole("admin"), lotHandler.Create)
			lots.GET("", lotHandler.List)
			lots.GET("/:id", lotHandler.Get)
			lots.GET("/:id/availability", lotHandler.Availability)
			lots.GET("/:id/spaces", spaceHandler.ListByLot)
			lots.POST("/:id/empty", middleware.RequireRole("admin"), lotHandler.Empty)
		}

		spaces := v1.Group("/spaces")
		{
			spaces.GET("/:id", spaceHandler.Get)
			spaces.PATCH("/:id", spaceHandler.Update)
			spaces.DELETE("/:id", middleware.RequireRole("admin"), spaceHandler.Delete)
			spaces.POST("/:id/assign", spaceHandler.Assign)
			spaces.POST("/:id/release", spaceHandler.Release)
		}

		tickets := v1.Group("/tickets")
		{
			tickets.GET("", ticketHandler.List)
			tickets.GET("/:id", ticketHandler.Get)
			tickets.GET("/:id/receipt", ticketHandler.Receipt)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
