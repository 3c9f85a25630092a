package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dujoseaugusto/go-bolsas-crawler/api"
	"github.com/dujoseaugusto/go-bolsas-crawler/api/handler"
	"github.com/dujoseaugusto/go-bolsas-crawler/api/middleware"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/config"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/logger"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/repository"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
	}

	log := logger.NewLogger("api")
	if err := run(); err != nil {
		log.Fatal("API server stopped", err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger.SetGlobalLevel(logger.ParseLevel(cfg.LogLevel))
	log := logger.NewLogger("api")

	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo repository.ListingRepository
	if cfg.MongoURI != "" {
		mongoRepo, err := repository.NewMongoRepository(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoCollection)
		if err != nil {
			return err
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				log.Error("Failed to close MongoDB connection", err)
			}
		}()
		repo = mongoRepo
	} else {
		log.Warn("MONGO_URI not set, /listings will answer 503")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	limiter.StartCleanup(ctx, time.Minute)

	router := api.SetupRouter(handler.NewListingHandler(repo, sources), limiter, reg)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
