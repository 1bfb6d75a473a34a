package orders

import (
	"context"
	"errors"
	"log/slog"

	orderskafka "github.com/Apurer/kitchenpos-api/internal/domains/orders/adapters/events/kafka"
	ordersredis "github.com/Apurer/kitchenpos-api/internal/domains/orders/adapters/idempotency/redis"
	ordersmemory "github.com/Apurer/kitchenpos-api/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/kitchenpos-api/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/kitchenpos-api/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/kitchenpos-api/internal/domains/orders/application"
	"github.com/Apurer/kitchenpos-api/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/kitchenpos-api/internal/platform/observability"
	platformpostgres "github.com/Apurer/kitchenpos-api/internal/platform/postgres"
	platformredis "github.com/Apurer/kitchenpos-api/internal/platform/redis"
)

// Dependencies holds the adapters behind one order service instance.
type Dependencies struct {
	Orders      ports.OrderRepository
	Menus       ports.MenuRepository
	Tables      ports.OrderTableService
	Tx          ports.TxManager
	Idempotency ports.IdempotencyStore
	Events      ports.EventPublisher
	// Durable is set when orders live in PostgreSQL and are visible to every process.
	Durable bool
}

// Build picks PostgreSQL, Redis and Kafka adapters when configured and reachable and falls back
// to in-memory or no-op adapters otherwise. Redis keys are only used together with PostgreSQL,
// since in-memory orders do not outlive the process that the keys would point into.
func Build(ctx context.Context, cfg Config, logger *slog.Logger) (Dependencies, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	deps := memoryDependencies(cfg)
	db, closeDB, err := platformpostgres.Open(ctx, platformpostgres.Options{
		DSN:          cfg.PostgresDSN,
		MaxOpenConns: cfg.PostgresMaxOpenConns,
		Migrate:      true,
	})
	switch {
	case errors.Is(err, platformpostgres.ErrNotConfigured):
		logger.Warn("POSTGRES_DSN not set, orders are kept in memory",
			slog.Int("menus", len(cfg.MemoryMenuIDs)),
			slog.Int("order_tables", len(cfg.MemoryOrderTableIDs)),
		)
	case err != nil:
		logger.Warn("postgres unavailable, orders are kept in memory", slog.String("error", err.Error()))
	default:
		cleanups = append(cleanups, closeDB)
		deps = Dependencies{
			Orders:      orderspostgres.NewRepository(db),
			Menus:       orderspostgres.NewMenuRepository(db),
			Tables:      orderspostgres.NewOrderTableRepository(db),
			Tx:          platformpostgres.NewTxManager(db),
			Idempotency: orderspostgres.NewIdempotencyStore(db),
			Durable:     true,
		}
		logger.Info("order repositories configured with postgres")
	}

	switch {
	case cfg.RedisAddr == "":
	case !deps.Durable:
		logger.Warn("REDIS_ADDR ignored while orders are kept in memory")
	default:
		store, closeRedis, err := redisIdempotencyStore(ctx, cfg)
		if err != nil {
			logger.Warn("failed to connect to redis, idempotency keys stay in postgres", slog.String("error", err.Error()))
			break
		}
		cleanups = append(cleanups, closeRedis)
		deps.Idempotency = store
		logger.Info("idempotency keys stored in redis", slog.Duration("ttl", cfg.IdempotencyTTL))
	}

	deps.Events = ports.NoopEventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		writer := orderskafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		cleanups = append(cleanups, func() {
			if err := writer.Close(); err != nil {
				logger.Warn("failed to close kafka writer", slog.String("error", err.Error()))
			}
		})
		deps.Events = orderskafka.NewPublisher(writer, logger)
		logger.Info("order events published to kafka", slog.String("topic", cfg.KafkaOrderTopic))
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events are discarded")
	}
	return deps, cleanup
}

// NewService wires the order application service behind the observability decorator.
func NewService(deps Dependencies, instruments *platformobservability.Instruments) ports.Service {
	logger := slog.Default()
	if instruments != nil && instruments.Logger != nil {
		logger = instruments.Logger
	}
	core := ordersapp.NewService(
		deps.Orders,
		deps.Menus,
		deps.Tables,
		deps.Tx,
		ordersapp.WithIdempotencyStore(deps.Idempotency),
		ordersapp.WithEventPublisher(deps.Events),
	)
	return ordersobs.New(
		core,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
}

func memoryDependencies(cfg Config) Dependencies {
	repo := ordersmemory.NewRepository()
	keys := ordersmemory.NewIdempotencyStore()
	return Dependencies{
		Orders:      repo,
		Menus:       ordersmemory.NewMenuRepository(cfg.MemoryMenuIDs...),
		Tables:      ordersmemory.NewOrderTableRepository(cfg.MemoryOrderTableIDs...),
		Tx:          ordersmemory.NewTxManager(repo, keys),
		Idempotency: keys,
	}
}

func redisIdempotencyStore(ctx context.Context, cfg Config) (*ordersredis.Store, func(), error) {
	client, err := platformredis.Connect(ctx, platformredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}
	return ordersredis.NewStore(client, cfg.IdempotencyTTL), func() { _ = client.Close() }, nil
}
