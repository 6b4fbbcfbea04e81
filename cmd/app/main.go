package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/storefront-backend/internal/collections"
	"github.com/wichananm65/storefront-backend/internal/config"
	"github.com/wichananm65/storefront-backend/internal/lock"
	"github.com/wichananm65/storefront-backend/internal/logging"
	"github.com/wichananm65/storefront-backend/internal/product"
	"github.com/wichananm65/storefront-backend/internal/recordstore"
	"github.com/wichananm65/storefront-backend/internal/recordstore/migrations"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("storefront stopped")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	locker, closeLocker, err := openLocker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLocker()

	app, svc := newApp(cfg, store, locker, log)

	if cfg.DatabaseURL == "" {
		if err := svc.products.Seed(ctx, product.SampleCatalogue()); err != nil {
			return fmt.Errorf("seed catalogue: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("listening")
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}

// openStore connects to Postgres and migrates it, or falls back to the
// in-memory store when no DATABASE_URL is configured.
func openStore(cfg config.Config, log *logrus.Logger) (recordstore.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL is not set, using the in-memory record store")
		return recordstore.NewInMemoryStore(collections.Schema()), func() {}, nil
	}

	if err := migrations.Migrate(cfg.DatabaseURL); err != nil {
		return nil, nil, err
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open DB: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping DB: %w", err)
	}

	store := recordstore.NewPostgresStore(sqlx.NewDb(db, "pgx"), collections.Schema())
	return store, func() { db.Close() }, nil
}

// openLocker shares stock locks through Redis when REDIS_URL is set.
func openLocker(ctx context.Context, cfg config.Config, log *logrus.Logger) (lock.Locker, func(), error) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL is not set, stock locks are per process")
		return lock.NewKeyedMutex(), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return lock.NewRedisLocker(client, logging.Component(log, "lock")), func() { client.Close() }, nil
}
