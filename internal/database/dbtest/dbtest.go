//go:build integration

// Package dbtest starts a disposable PostgreSQL for integration tests and
// applies the embedded migrations to it.
package dbtest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/BradenHooton/skilltrack/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB manages the PostgreSQL testcontainer and its connection pool
type TestDB struct {
	Container  *postgres.PostgresContainer
	ConnString string
	DB         *database.DB
}

// Start creates a PostgreSQL testcontainer and migrates it
func Start(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("skilltrack"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	db := database.NewFromPool(pool, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := db.HealthCheck(ctx); err != nil {
		db.Close()
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &TestDB{Container: container, ConnString: connStr, DB: db}, nil
}

// Teardown closes the pool and stops the container
func (t *TestDB) Teardown(ctx context.Context) error {
	if t.DB != nil {
		t.DB.Close()
	}
	if t.Container != nil {
		return t.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (t *TestDB) CleanupTables(ctx context.Context) error {
	if _, err := t.DB.Pool.Exec(ctx, `TRUNCATE TABLE skill_logs, skills, users CASCADE`); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}
