// Package repo contains all database access logic for the crewd server.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/crewlink/crewlink/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// Postgres error codes we translate into domain sentinels.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// pgErrCode returns the SQLSTATE of err, or "" when err is not a Postgres error.
func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// CrewRepo defines the persistence operations for Crews.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type CrewRepo interface {
	// Create inserts a new crew with the caller-chosen ID.
	// Returns domain.ErrConflict if the ID is already taken.
	Create(ctx context.Context, id string) (domain.Crew, error)

	// GetByID retrieves a crew by its ID.
	// Returns domain.ErrNotFound if no crew with that ID exists.
	GetByID(ctx context.Context, id string) (domain.Crew, error)
}

// pgCrewRepo is the Postgres implementation of CrewRepo.
type pgCrewRepo struct {
	db db
}

// NewCrewRepo constructs a CrewRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewCrewRepo(db db) CrewRepo {
	return &pgCrewRepo{db: db}
}

// Create inserts a new crew row. Crew IDs are caller-chosen (the client
// generates the human-readable form), so a duplicate is a conflict the client
// resolves by generating a fresh ID, not a server bug.
func (r *pgCrewRepo) Create(ctx context.Context, id string) (domain.Crew, error) {
	const q = `
		INSERT INTO crews (id)
		VALUES (@id)
		RETURNING id, created_at`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanCrew(row)
	if err != nil {
		if pgErrCode(err) == pgUniqueViolation {
			return domain.Crew{}, fmt.Errorf("repo.CrewRepo.Create: %w", domain.ErrConflict)
		}
		return domain.Crew{}, fmt.Errorf("repo.CrewRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a crew by primary key.
func (r *pgCrewRepo) GetByID(ctx context.Context, id string) (domain.Crew, error) {
	const q = `
		SELECT id, created_at
		FROM crews
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanCrew(row)
	if err != nil {
		return domain.Crew{}, fmt.Errorf("repo.CrewRepo.GetByID: %w", err)
	}
	return result, nil
}

// scanCrew maps a single database row into a domain.Crew.
func scanCrew(s scanner) (domain.Crew, error) {
	var c domain.Crew
	if err := s.Scan(&c.ID, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Crew{}, domain.ErrNotFound
		}
		return domain.Crew{}, err
	}
	return c, nil
}
