package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/rodneyosodo/parfold/cli"
	"github.com/rodneyosodo/parfold/coordinator"
	"github.com/rodneyosodo/parfold/coordinator/api"
	"github.com/rodneyosodo/parfold/coordinator/middleware"
	"github.com/rodneyosodo/parfold/pkg/storage"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName     = "parfold"
	pathEnv     = ".env"
	stopTimeout = 5 * time.Second
)

type envConfig struct {
	LogLevel   string `env:"PARFOLD_LOG_LEVEL"  envDefault:"info"`
	InstanceID string `env:"PARFOLD_INSTANCE_ID"`
	HTTPHost   string `env:"PARFOLD_HTTP_HOST"  envDefault:"localhost"`
	HTTPPort   string `env:"PARFOLD_HTTP_PORT"  envDefault:"7070"`
}

func main() {
	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	tracer := noop.NewTracerProvider().Tracer(svcName)

	svc := coordinator.NewService(storage.NewInMemoryStorage(), logger)
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter := kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: svcName,
		Subsystem: "api",
		Name:      "request_count",
		Help:      "Number of requests received.",
	}, []string{"method"})
	latency := kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
		Namespace: svcName,
		Subsystem: "api",
		Name:      "request_latency_microseconds",
		Help:      "Total duration of requests in microseconds.",
	}, []string{"method"})
	svc = middleware.Metrics(counter, latency, svc)

	cli.SetCoordinator(svc)

	rootCmd := &cobra.Command{
		Use:   "parfold",
		Short: "Parallel training coordinator",
		Long:  `Parfold trains neural network folds in parallel and synchronizes multi-agent training runs.`,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the coordinator HTTP API",
		Long:  `Serve the coordinator HTTP API with health, metrics, and run endpoints.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg, svc, logger)
		},
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cli.NewRunCmd())
	rootCmd.AddCommand(cli.NewRunsCmd())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func serve(ctx context.Context, cfg envConfig, svc coordinator.Service, logger *slog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:    cfg.HTTPHost + ":" + cfg.HTTPPort,
		Handler: api.MakeHandler(svc, logger, cfg.InstanceID),
	}

	g.Go(func() error {
		logger.Info(svcName+" service HTTP server listening", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
		defer stopCancel()
		logger.Info(svcName + " service shutting down")

		return server.Shutdown(stopCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))

		return err
	}

	return nil
}
