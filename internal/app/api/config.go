package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.temporal.io/sdk/client"

	apporders "github.com/Apurer/kitchenpos-api/internal/app/orders"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port               string
	TemporalAddress    string
	TemporalNamespace  string
	TemporalDisabled   bool
	CORSAllowedOrigins []string
	// Orders selects the adapters behind the order service, shared with the worker.
	Orders apporders.Config
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	orders, err := apporders.LoadConfig()
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Port:               envDefault("PORT", "8080"),
		TemporalAddress:    envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:  envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:   isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		CORSAllowedOrigins: apporders.SplitList(envDefault("CORS_ALLOWED_ORIGINS", "*")),
		Orders:             orders,
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("PORT must be numeric, got %q", cfg.Port)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
