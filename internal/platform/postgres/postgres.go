package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Apurer/kitchenpos-api/internal/platform/migrations"
)

// ErrNotConfigured is returned by Open when no DSN is set.
var ErrNotConfigured = errors.New("postgres DSN is empty")

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
	defaultPingTimeout     = 5 * time.Second
)

// Options controls how Open dials and prepares the kitchenpos database.
type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
	// Migrate applies the kitchenpos schema before the handle is returned.
	Migrate bool
	// LogQueries enables gorm's statement logger.
	LogQueries bool
}

func (o Options) withDefaults() Options {
	o.DSN = strings.TrimSpace(o.DSN)
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = defaultMaxOpenConns
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = defaultMaxIdleConns
	}
	if o.MaxIdleConns > o.MaxOpenConns {
		o.MaxIdleConns = o.MaxOpenConns
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = defaultConnMaxLifetime
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = defaultPingTimeout
	}
	return o
}

// Open dials PostgreSQL, tunes the pool, verifies connectivity, and optionally migrates.
// The returned close func releases the pool; it is never nil.
func Open(ctx context.Context, opts Options) (*gorm.DB, func(), error) {
	noop := func() {}
	opts = opts.withDefaults()
	if opts.DSN == "" {
		return nil, noop, ErrNotConfigured
	}
	logLevel := gormlogger.Silent
	if opts.LogQueries {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(opts.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, noop, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, noop, fmt.Errorf("unwrap postgres pool: %w", err)
	}
	closeDB := func() { _ = sqlDB.Close() }
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		closeDB()
		return nil, noop, fmt.Errorf("ping postgres: %w", err)
	}
	if opts.Migrate {
		if err := migrations.Run(db.WithContext(ctx)); err != nil {
			closeDB()
			return nil, noop, fmt.Errorf("migrate kitchenpos schema: %w", err)
		}
	}
	return db, closeDB, nil
}
