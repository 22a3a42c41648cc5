package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vytor/dailyalbum/internal/api"
	"github.com/vytor/dailyalbum/internal/catalog"
	"github.com/vytor/dailyalbum/internal/config"
	"github.com/vytor/dailyalbum/internal/db"
	"github.com/vytor/dailyalbum/internal/logger"
	"github.com/vytor/dailyalbum/internal/repository/sqlite"
	"github.com/vytor/dailyalbum/internal/services"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("Daily Album Server Starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("challenge_tz=%s", cfg.ChallengeTZ)
	log.Debug("catalog_url=%s", cfg.CatalogURL)
	log.Debug("catalog_timeout=%v", cfg.CatalogTimeout())
	log.Debug("redis_addr=%s", cfg.RedisAddr)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	var entities catalog.Client = catalog.New(cfg.CatalogURL, cfg.CatalogTimeout())
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unreachable at %s, catalog cache will retry per request: %v", cfg.RedisAddr, err)
		} else {
			log.Info("catalog cache enabled: redis=%s, ttl=%v", cfg.RedisAddr, cfg.CatalogCacheTTL())
		}
		cancel()
		entities = catalog.NewCachedClient(entities, rdb, cfg.CatalogCacheTTL())
	}

	// Initialize services
	provider := services.NewChallengeProvider(sqlite.NewChallengeRepository(database.DB), cfg.Location(), time.Now)
	dailyService := services.NewDailyChallengeService(provider, sqlite.NewSessionRepository(database.DB), entities, time.Now)

	srv := &api.Server{
		DailyService:   dailyService,
		DB:             database,
		RequestTimeout: 15 * time.Second,
	}

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Info("===========================================")
	log.Info("Daily Album Server Stopped")
	log.Info("===========================================")
}
