package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProfileExists = errors.New("profile already exists")

// Profile is one user-profile row: who owns which meter and at what
// tariff. The backend validates incoming readings against it.
type Profile struct {
	UserID      string
	MeterNumber string
	FullName    string
	Address     string
	CostPerKwh  float64
	CreatedAt   time.Time
}

// ProfileStore writes user profiles to Postgres.
type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(ctx context.Context, connString string) (*ProfileStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &ProfileStore{pool: pool}, nil
}

func (s *ProfileStore) Close() {
	s.pool.Close()
}

// CreateProfile inserts one profile row. A zero UserID gets a fresh
// UUID; a duplicate meter number returns ErrProfileExists.
func (s *ProfileStore) CreateProfile(ctx context.Context, profile *Profile) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if profile.UserID == "" {
		profile.UserID = uuid.New().String()
	}

	query := `
		INSERT INTO user_profiles (user_id, meter_number, full_name, address, cost_per_kwh)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := s.pool.QueryRow(ctx, query,
		profile.UserID, profile.MeterNumber, profile.FullName,
		profile.Address, profile.CostPerKwh,
	).Scan(&profile.CreatedAt)

	if err != nil {
		// Unique constraint violation (23505)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrProfileExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetProfile fetches a profile by meter number.
func (s *ProfileStore) GetProfile(ctx context.Context, meterNumber string) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT user_id, meter_number, full_name, address, cost_per_kwh, created_at
		FROM user_profiles
		WHERE meter_number = $1
	`

	var profile Profile
	err := s.pool.QueryRow(ctx, query, meterNumber).Scan(
		&profile.UserID, &profile.MeterNumber, &profile.FullName,
		&profile.Address, &profile.CostPerKwh, &profile.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &profile, nil
}
