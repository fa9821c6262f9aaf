package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"lineage/internal/genealogy/handler"
	gmetrics "lineage/internal/genealogy/metrics"
	"lineage/internal/genealogy/service"
	"lineage/internal/genealogy/source"
	"lineage/internal/genealogy/store/navstate"
	httpapi "lineage/internal/http"
	"lineage/internal/platform/config"
	"lineage/internal/platform/httpserver"
	"lineage/internal/platform/logger"
	"lineage/internal/platform/metrics"
	"lineage/internal/platform/redis"
	"lineage/pkg/platform/circuit"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, loads the family tree once, and serves
// the API until SIGINT or SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	checks := map[string]httpapi.HealthCheck{}
	var sessions service.SessionStore
	if redisClient != nil {
		defer redisClient.Close()
		sessions = navstate.NewRedis(redisClient.Client, cfg.Session.TTL)
		checks["redis"] = redisClient.Health
		log.Info("navigation sessions stored in redis")
	} else {
		sessions = navstate.NewInMemory(cfg.Session.TTL)
		log.Info("navigation sessions stored in memory")
	}

	fetcher := newFetcher(cfg.Source, log)
	svc := service.New(fetcher, sessions,
		service.WithLogger(log),
		service.WithMetrics(gmetrics.New(prometheus.DefaultRegisterer)),
		service.WithRootAnchor(cfg.Tree.RootAnchor),
		service.WithSearchLimit(cfg.Tree.SearchLimit),
	)
	if _, err := svc.Reload(ctx); err != nil {
		return err
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Genealogy:  handler.New(svc, log),
		Logger:     log,
		Metrics:    metrics.New(prometheus.DefaultRegisterer),
		Gatherer:   prometheus.DefaultGatherer,
		AdminToken: cfg.AdminToken,
		Checks:     checks,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting lineage", "addr", cfg.Addr, "source", fetcher.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type namedFetcher interface {
	service.RecordFetcher
	String() string
}

func newFetcher(cfg config.SourceConfig, log *slog.Logger) namedFetcher {
	switch {
	case cfg.URL != "" && cfg.Path != "":
		breaker := circuit.New("record-source", circuit.WithFailureThreshold(cfg.FailureThreshold))
		return source.NewFallbackFetcher(
			source.NewHTTPFetcher(cfg.URL, cfg.Timeout),
			source.NewFileFetcher(cfg.Path),
			breaker, log,
		)
	case cfg.URL != "":
		return source.NewHTTPFetcher(cfg.URL, cfg.Timeout)
	default:
		return source.NewFileFetcher(cfg.Path)
	}
}
