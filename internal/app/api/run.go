package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	kitchenposserver "github.com/Apurer/kitchenpos-api/go"

	apporders "github.com/Apurer/kitchenpos-api/internal/app/orders"
	ordersworkflows "github.com/Apurer/kitchenpos-api/internal/domains/orders/adapters/workflows"
	ordersports "github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/kitchenpos-api/internal/platform/observability"
)

const serviceName = "kitchenpos-api"

// Run boots the kitchenpos HTTP API with observability, repositories, and workflows wired.
// It blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	deps, cleanup := apporders.Build(ctx, cfg.Orders, logger)
	defer cleanup()
	orderService := apporders.NewService(deps, instruments)
	orderWorkflows, closeWorkflows := newOrderWorkflows(cfg, deps.Durable, orderService, instruments)
	defer closeWorkflows()

	engine := gin.New()
	engine.Use(otelgin.Middleware(serviceName))
	router := kitchenposserver.NewRouterWithGinEngine(engine, kitchenposserver.ApiHandleFunctions{
		OrderAPI: kitchenposserver.NewOrderAPI(orderService, orderWorkflows),
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newCORS(cfg).Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("kitchenpos API listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("kitchenpos API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down kitchenpos API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func newCORS(cfg Config) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", kitchenposserver.IdempotencyKeyHeader},
		ExposedHeaders: []string{"Location"},
	})
}

// newOrderWorkflows routes creates through Temporal when orders are durable and a server is reachable.
// In-memory orders stay inline, since a worker process could not see them.
func newOrderWorkflows(cfg Config, durable bool, service ordersports.Service, instruments *platformobservability.Instruments) (ordersports.WorkflowOrchestrator, func()) {
	logger := effectiveLogger(instruments)
	inline := ordersworkflows.NewInlineOrderWorkflows(service)
	if !durable {
		logger.Warn("orders are kept in memory, creating orders inline without Temporal")
		return inline, func() {}
	}
	temporalClient, err := connectTemporalClient(cfg, instruments)
	if err != nil {
		logger.Warn("Temporal workflows unavailable, creating orders inline", slog.String("error", err.Error()))
		return inline, func() {}
	}
	logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	return ordersworkflows.NewTemporalOrderWorkflows(temporalClient), temporalClient.Close
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
