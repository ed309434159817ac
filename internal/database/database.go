package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"

	appconfig "github.com/GTDGit/devhub_api/internal/config"
)

// Retry policy shared by the store connectors.
const (
	maxAttempts = 5
	baseDelay   = 500 * time.Millisecond
	maxDelay    = 5 * time.Second
)

// Connect establishes a PostgreSQL connection. The store container may still
// be starting, so opening and pinging are retried with exponential backoff.
func Connect(cfg *appconfig.DatabaseConfig) (*sqlx.DB, error) {
	if cfg == nil {
		return nil, errors.New("nil database config")
	}

	var db *sqlx.DB
	err := retry("postgres", func() error {
		conn, err := sqlx.Open("postgres", postgresDSN(cfg))
		if err != nil {
			return err
		}
		setPool(conn.DB)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			return err
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func postgresDSN(cfg *appconfig.DatabaseConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password), cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
	)
}

// setPool configures the connection pool for the database.
func setPool(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
}

// retry runs connect until it succeeds or maxAttempts is reached.
func retry(store string, connect func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if lastErr = connect(); lastErr == nil {
			return nil
		}
		log.Warn().Err(lastErr).Str("store", store).Int("attempt", attempt).Msg("store connection failed, retrying")
		if attempt < maxAttempts {
			time.Sleep(backoff(attempt))
		}
	}
	return fmt.Errorf("failed to connect to %s after %d attempts: %w", store, maxAttempts, lastErr)
}

// backoff returns baseDelay * 2^(attempt-1), capped at maxDelay.
func backoff(attempt int) time.Duration {
	if attempt < 1 {
		return baseDelay
	}
	if attempt > 8 {
		return maxDelay
	}
	return min(baseDelay<<(attempt-1), maxDelay)
}
