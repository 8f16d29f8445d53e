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

	"surplus-saver-api/internal/cache"
	"surplus-saver-api/internal/clock"
	"surplus-saver-api/internal/config"
	"surplus-saver-api/internal/handler"
	"surplus-saver-api/internal/middleware"
	"surplus-saver-api/internal/repository"
	"surplus-saver-api/internal/router"
	"surplus-saver-api/internal/service"

	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Surplus Saver API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize the relational store based on config
	var store *repository.SQLStore
	var err error
	switch cfg.Store.Type {
	case "mysql":
		store, err = repository.NewMySQLStore(cfg.Store.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		log.Println("MySQL store initialized")
	case "postgres", "postgresql":
		store, err = repository.NewPostgresStore(cfg.Store.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		log.Println("PostgreSQL store initialized")
	default: // sqlite
		store, err = repository.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		log.Println("SQLite store initialized")
	}
	defer store.Close()

	// Initialize Redis client (required for tokens)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddress(),
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("Redis connection failed: %v", err)
	}
	cancel()
	log.Println("Redis client initialized")

	// Initialize listing cache
	var listingCache cache.Cache
	switch cfg.Cache.Type {
	case "redis":
		listingCache = cache.NewRedisCache(redisClient, "surplus:cache:")
		log.Println("Redis listing cache initialized")
	default:
		memCache := cache.NewMemoryCache()
		defer memCache.Close()
		listingCache = memCache
		log.Println("Memory listing cache initialized")
	}

	// Initialize services
	clk := clock.NewSystem()
	tokenService := service.NewTokenService(redisClient)
	userService := service.NewUserService(store, clk)
	bagService := service.NewBagService(store, listingCache, cfg.Cache.TTL, clk)
	orderService := service.NewOrderService(store, clk)
	reportService := service.NewReportService(store, store, cfg.Report, clk)
	reportService.Start()
	defer reportService.Stop()

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(store)
	authHandler := handler.NewAuthHandler(userService, tokenService)
	userHandler := handler.NewUserHandler(userService)
	bagHandler := handler.NewBagHandler(bagService)
	orderHandler := handler.NewOrderHandler(orderService)
	storeHandler := handler.NewStoreHandler(bagService, orderService, reportService)

	// Create auth middleware with injected dependencies
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Create router
	r := router.New(router.Config{
		HealthHandler:  healthHandler,
		AuthHandler:    authHandler,
		UserHandler:    userHandler,
		BagHandler:     bagHandler,
		OrderHandler:   orderHandler,
		StoreHandler:   storeHandler,
		AuthMiddleware: authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
