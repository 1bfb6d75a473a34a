package orders

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config selects the adapters behind the order service. The API and the worker load the same values.
type Config struct {
	PostgresDSN          string
	PostgresMaxOpenConns int
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	IdempotencyTTL       time.Duration
	KafkaBrokers         []string
	KafkaOrderTopic      string
	// Memory* seed the in-memory collaborators when PostgreSQL is not configured.
	MemoryMenuIDs       []int64
	MemoryOrderTableIDs []int64
}

// LoadConfig reads the order adapter settings from the environment.
func LoadConfig() (Config, error) {
	cfg := Config{
		PostgresDSN:     strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisAddr:       strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		IdempotencyTTL:  24 * time.Hour,
		KafkaBrokers:    SplitList(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic: "kitchenpos.orders",
	}
	if topic := strings.TrimSpace(os.Getenv("KAFKA_ORDER_TOPIC")); topic != "" {
		cfg.KafkaOrderTopic = topic
	}
	var err error
	if cfg.PostgresMaxOpenConns, err = nonNegativeInt("POSTGRES_MAX_OPEN_CONNS"); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = nonNegativeInt("REDIS_DB"); err != nil {
		return Config{}, err
	}
	if raw := strings.TrimSpace(os.Getenv("IDEMPOTENCY_TTL_HOURS")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("IDEMPOTENCY_TTL_HOURS must be a positive integer")
		}
		cfg.IdempotencyTTL = time.Duration(hours) * time.Hour
	}
	if cfg.MemoryMenuIDs, err = parseIDList("MEMORY_MENU_IDS"); err != nil {
		return Config{}, err
	}
	if cfg.MemoryOrderTableIDs, err = parseIDList("MEMORY_ORDER_TABLE_IDS"); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SplitList splits a comma separated value, dropping blank entries.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func nonNegativeInt(key string) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return value, nil
}

func parseIDList(key string) ([]int64, error) {
	var ids []int64
	for _, part := range SplitList(os.Getenv(key)) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a comma separated list of integers", key)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
