package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDatabase creates a PostgreSQL testcontainer and runs migrations
func setupTestDatabase(t *testing.T) (*ProfileStore, func()) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("gridpulse_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	if err := runMigrations(connStr); err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	store, err := NewProfileStore(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create profile store: %v", err)
	}

	cleanup := func() {
		store.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return store, cleanup
}

// runMigrations applies the up migrations from the migrations directory
func runMigrations(connStr string) error {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	for _, name := range []string{"001_user_profiles.up.sql", "002_insert_meter_reading.up.sql"} {
		migrationPath := filepath.Join("..", "..", "migrations", name)
		migrationSQL, err := os.ReadFile(migrationPath)
		if err != nil {
			return fmt.Errorf("failed to read migration file: %w", err)
		}
		if _, err := db.Exec(string(migrationSQL)); err != nil {
			return fmt.Errorf("failed to execute %s: %w", name, err)
		}
	}

	return nil
}

func TestCreateProfile(t *testing.T) {
	store, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	profile := &Profile{
		MeterNumber: "MTR-00000001",
		FullName:    "Test User",
		Address:     "1 Test Street, Testville",
		CostPerKwh:  0.25,
	}

	err := store.CreateProfile(ctx, profile)
	if err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}

	if profile.UserID == "" {
		t.Error("expected a generated user ID")
	}
	if profile.CreatedAt.IsZero() {
		t.Error("expected created_at to be populated")
	}
}

func TestCreateProfile_DuplicateMeter(t *testing.T) {
	store, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	first := &Profile{MeterNumber: "MTR-00000002", FullName: "First", CostPerKwh: 0.25}
	if err := store.CreateProfile(ctx, first); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}

	second := &Profile{MeterNumber: "MTR-00000002", FullName: "Second", CostPerKwh: 0.30}
	err := store.CreateProfile(ctx, second)
	if !errors.Is(err, ErrProfileExists) {
		t.Errorf("expected ErrProfileExists, got %v", err)
	}
}

func TestGetProfile(t *testing.T) {
	store, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	created := &Profile{
		MeterNumber: "MTR-00000003",
		FullName:    "Test User",
		CostPerKwh:  0.18,
	}
	if err := store.CreateProfile(ctx, created); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}

	got, err := store.GetProfile(ctx, "MTR-00000003")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}

	if got.UserID != created.UserID {
		t.Errorf("user ID mismatch: got %s want %s", got.UserID, created.UserID)
	}
	if got.FullName != "Test User" {
		t.Errorf("full name mismatch: got %s", got.FullName)
	}
}

func TestInsertMeterReadingFunction(t *testing.T) {
	store, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	profile := &Profile{MeterNumber: "MTR-00000004", FullName: "Owner", CostPerKwh: 0.22}
	if err := store.CreateProfile(ctx, profile); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}

	var id int64
	err := store.pool.QueryRow(ctx,
		`SELECT insert_meter_reading($1, $2, $3, $4, $5)`,
		profile.UserID, profile.MeterNumber, 10.5, 0.22, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		t.Fatalf("insert_meter_reading failed: %v", err)
	}
	if id == 0 {
		t.Error("expected a reading id")
	}

	// Wrong owner must be rejected by the function
	err = store.pool.QueryRow(ctx,
		`SELECT insert_meter_reading($1, $2, $3, $4, $5)`,
		uuid.New().String(), profile.MeterNumber, 1.0, 0.22, time.Now().UTC(),
	).Scan(&id)
	if err == nil {
		t.Error("expected rejection for a meter that does not belong to the user")
	}
}
