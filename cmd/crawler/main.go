package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dujoseaugusto/go-bolsas-crawler/internal/config"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/crawler"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/logger"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/metrics"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/output"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/repository"
	"github.com/dujoseaugusto/go-bolsas-crawler/internal/service"
)

var errRunFailed = errors.New("one or more sources failed")

func main() {
	sourceFlag := flag.String("source", "all", "fonte a coletar (capes, ipea, pci, uncareers ou all)")
	store := flag.Bool("store", false, "também grava os registros no MongoDB (MONGO_URI)")
	metricsAddr := flag.String("metrics-addr", "", "endereço para expor /metrics durante a execução (ex.: :9102)")
	flag.Parse()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
	}

	log := logger.NewLogger("main")
	if err := run(*sourceFlag, *store, *metricsAddr); err != nil {
		log.Fatal("Crawler finished with errors", err)
	}
}

func run(sourceFlag string, store bool, metricsAddr string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger.SetGlobalLevel(logger.ParseLevel(cfg.LogLevel))
	log := logger.NewLogger("main")

	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		return err
	}
	ids, err := selectSources(sourceFlag, sources)
	if err != nil {
		return err
	}

	today, err := cfg.ReferenceDate(time.Now())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	if metricsAddr != "" {
		go serveMetrics(metricsAddr, reg, log)
	}

	sinks := []service.Sink{output.NewJSONLWriter(os.Stdout)}
	if store {
		if cfg.MongoURI == "" {
			return errors.New("-store requires MONGO_URI")
		}
		repo, err := repository.NewMongoRepository(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoCollection)
		if err != nil {
			return err
		}
		defer func() {
			if err := repo.Close(context.Background()); err != nil {
				log.Error("Failed to close MongoDB connection", err)
			}
		}()
		sinks = append(sinks, repo)
	}

	svc := service.NewListingService(m, sinks...)
	opts := crawler.Options{
		UserAgent:  cfg.UserAgent,
		Timeout:    cfg.RequestTimeout,
		ChromePath: cfg.ChromePath,
	}

	log.WithFields(map[string]interface{}{
		"sources": ids,
		"today":   today.String(),
		"store":   store,
	}).Info("Starting crawler")

	failed := false
	for _, id := range ids {
		src, err := crawler.New(id, cfg.Apply(sources[id]), opts)
		if err != nil {
			return err
		}

		if _, err := svc.Run(ctx, src, today); err != nil {
			failed = true
			log.WithField("source", id).Error("Source run failed", err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}

	if failed {
		return errRunFailed
	}
	return nil
}

func selectSources(flagValue string, sources map[string]config.SourceProfile) ([]string, error) {
	if flagValue == "" || flagValue == "all" {
		return config.SourceIDs(sources), nil
	}

	var ids []string
	for _, id := range strings.Split(flagValue, ",") {
		id = strings.TrimSpace(strings.ToLower(id))
		if _, ok := sources[id]; !ok {
			return nil, fmt.Errorf("unknown source %q (known: %s)", id, strings.Join(config.SourceIDs(sources), ", "))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Metrics server stopped", err)
	}
}
