package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/grafolab/grafo-gate/internal/database"
	"github.com/grafolab/grafo-gate/internal/models"
	"github.com/grafolab/grafo-gate/internal/repositories"
)

// TestDB manages the PostgreSQL testcontainer and database operations
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SkipIfNoDocker skips integration tests in environments without Docker
func SkipIfNoDocker(t *testing.T) {
	t.Helper()
	if os.Getenv("SKIP_INTEGRATION_TESTS") != "" {
		t.Skip("integration tests disabled by SKIP_INTEGRATION_TESTS")
	}
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// SetupTestDatabase creates a PostgreSQL testcontainer, runs migrations, returns TestDB
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("grafogate"),
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
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         &database.DB{Pool: pool},
	}, nil
}

// Teardown stops the container and closes the connection pool
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"token_attempts",
		"human_challenges",
		"tokens",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// InitializeRepositories creates all repository instances from the database wrapper
func InitializeRepositories(db *database.DB) (
	*repositories.TokenRepository,
	*repositories.ChallengeRepository,
	*repositories.TokenAttemptRepository,
) {
	return repositories.NewTokenRepository(db),
		repositories.NewChallengeRepository(db),
		repositories.NewTokenAttemptRepository(db)
}

// SeedToken inserts an unused access token
func SeedToken(ctx context.Context, pool *pgxpool.Pool, phone, code string) (*models.Token, error) {
	query := `
		INSERT INTO tokens (phone, code)
		VALUES ($1, $2)
		RETURNING id, phone, code, used, used_at, device_id, created_at
	`

	var token models.Token
	err := pool.QueryRow(ctx, query, phone, code).Scan(
		&token.ID,
		&token.Phone,
		&token.Code,
		&token.Used,
		&token.UsedAt,
		&token.DeviceID,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert token: %w", err)
	}

	return &token, nil
}

// SeedExpiredChallenge inserts a challenge whose expiry is already in the past
func SeedExpiredChallenge(ctx context.Context, pool *pgxpool.Pool, answer int) (string, error) {
	query := `
		INSERT INTO human_challenges (answer, created_at, expires_at)
		VALUES ($1, NOW() - INTERVAL '5 minutes', NOW() - INTERVAL '3 minutes')
		RETURNING id
	`

	var id string
	if err := pool.QueryRow(ctx, query, answer).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to insert expired challenge: %w", err)
	}

	return id, nil
}
