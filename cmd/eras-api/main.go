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

	"eras-api/internal/api"
	"eras-api/internal/article"
	"eras-api/internal/cache"
	"eras-api/internal/config"
	"eras-api/internal/db"
	"eras-api/internal/event"
	"eras-api/internal/metrics"
	"eras-api/internal/search"
	"eras-api/internal/wiki"
)

func main() {
	// Root context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stdout, "[eras-api] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	metrics.MustRegister()

	// Mongo
	mongoClient, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatalf("failed to connect to db: %v", err)
	}
	dbInstance := mongoClient.Database(cfg.MongoDBName)

	// Repositories
	eventRepo, err := event.NewMongoRepository(dbInstance, logger)
	if err != nil {
		logger.Fatalf("failed to init event repository: %v", err)
	}
	articleRepo, err := article.NewMongoRepository(dbInstance, logger)
	if err != nil {
		logger.Fatalf("failed to init article repository: %v", err)
	}
	cacheRepo, err := cache.NewMongoRepository(dbInstance, logger)
	if err != nil {
		logger.Fatalf("failed to init cache repository: %v", err)
	}
	logger.Println("repositories initialised")

	// External content fetcher
	httpClient := &http.Client{Timeout: cfg.WikiTimeout}
	wikiClient := wiki.NewClient(cfg.WikiHostPattern, cfg.WikiUserAgent, httpClient)
	fetcher := wiki.NewFetcher(wikiClient, cacheRepo, logger)

	// Aggregation service + HTTP server
	searchSvc := search.NewService(eventRepo, fetcher, logger)
	handler := api.NewServer(searchSvc, fetcher, articleRepo, cfg.CORSOrigin, logger)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	go func() {
		logger.Printf("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("HTTP server error: %v", err)
		}
	}()

	logger.Println("service started")

	// Block until we receive a signal / ctx cancelled
	<-ctx.Done()
	logger.Println("shutdown signal received, shutting down...")

	// Unified shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Graceful HTTP shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("HTTP server shutdown error: %v", err)
	}

	// Graceful Mongo shutdown
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		logger.Printf("mongo disconnect error: %v", err)
	}

	logger.Println("shutdown complete")
}
