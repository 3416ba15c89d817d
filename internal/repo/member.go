package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/crewlink/crewlink/internal/domain"
)

// MemberRepo defines the persistence operations for crew members.
type MemberRepo interface {
	// Create inserts a brand-new member row.
	// Returns domain.ErrNotFound if the crew does not exist and
	// domain.ErrConflict if the member is already in the crew.
	Create(ctx context.Context, crewID string, memberID uuid.UUID, name, color string) (domain.Member, error)

	// Upsert inserts the member or, when the (crew, member) pair already
	// exists, updates the display name while preserving color and location.
	// Returns domain.ErrNotFound if the crew does not exist.
	Upsert(ctx context.Context, crewID string, memberID uuid.UUID, name string) (domain.Member, error)

	// UpdateLocation overwrites the member's position, speed, and last_update.
	// Returns domain.ErrNotFound if the member is not in the crew.
	UpdateLocation(ctx context.Context, crewID string, memberID uuid.UUID, loc domain.Location, speed float64) (domain.Member, error)

	// ListByCrew returns all members of a crew ordered by name.
	// Returns domain.ErrNotFound if the crew does not exist.
	ListByCrew(ctx context.Context, crewID string) ([]domain.Member, error)

	// Delete removes a member from a crew.
	// Returns domain.ErrNotFound if the member is not in the crew.
	Delete(ctx context.Context, crewID string, memberID uuid.UUID) error
}

// pgMemberRepo is the Postgres implementation of MemberRepo.
type pgMemberRepo struct {
	db db
}

// NewMemberRepo constructs a MemberRepo backed by the provided db connection.
func NewMemberRepo(db db) MemberRepo {
	return &pgMemberRepo{db: db}
}

const memberColumns = `id, name, color, lat, lng, speed, last_update`

// Create inserts a new member row. The foreign key to crews doubles as the
// existence check, so a missing crew surfaces as ErrNotFound without a
// separate roundtrip.
func (r *pgMemberRepo) Create(ctx context.Context, crewID string, memberID uuid.UUID, name, color string) (domain.Member, error) {
	const q = `
		INSERT INTO members (id, crew_id, name, color)
		VALUES (@id, @crew_id, @name, @color)
		RETURNING ` + memberColumns

	args := pgx.NamedArgs{
		"id":      memberID,
		"crew_id": crewID,
		"name":    name,
		"color":   color,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanMember(row)
	if err != nil {
		switch pgErrCode(err) {
		case pgForeignKeyViolation:
			return domain.Member{}, fmt.Errorf("repo.MemberRepo.Create: crew %q: %w", crewID, domain.ErrNotFound)
		case pgUniqueViolation:
			return domain.Member{}, fmt.Errorf("repo.MemberRepo.Create: %w", domain.ErrConflict)
		}
		return domain.Member{}, fmt.Errorf("repo.MemberRepo.Create: %w", err)
	}
	return result, nil
}

// Upsert inserts or updates the member in one statement. Rejoining keeps the
// original color and any previously pushed location — only the name follows
// the new join request.
func (r *pgMemberRepo) Upsert(ctx context.Context, crewID string, memberID uuid.UUID, name string) (domain.Member, error) {
	const q = `
		INSERT INTO members (id, crew_id, name)
		VALUES (@id, @crew_id, @name)
		ON CONFLICT (crew_id, id) DO UPDATE SET
			name        = EXCLUDED.name,
			last_update = now()
		RETURNING ` + memberColumns

	args := pgx.NamedArgs{
		"id":      memberID,
		"crew_id": crewID,
		"name":    name,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanMember(row)
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return domain.Member{}, fmt.Errorf("repo.MemberRepo.Upsert: crew %q: %w", crewID, domain.ErrNotFound)
		}
		return domain.Member{}, fmt.Errorf("repo.MemberRepo.Upsert: %w", err)
	}
	return result, nil
}

// UpdateLocation overwrites the member's latest position. last_update is
// stamped server-side so staleness labels are consistent across clients
// regardless of their clocks.
func (r *pgMemberRepo) UpdateLocation(ctx context.Context, crewID string, memberID uuid.UUID, loc domain.Location, speed float64) (domain.Member, error) {
	const q = `
		UPDATE members
		SET lat         = @lat,
		    lng         = @lng,
		    speed       = @speed,
		    last_update = now()
		WHERE crew_id = @crew_id AND id = @id
		RETURNING ` + memberColumns

	args := pgx.NamedArgs{
		"crew_id": crewID,
		"id":      memberID,
		"lat":     loc.Lat,
		"lng":     loc.Lng,
		"speed":   speed,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanMember(row)
	if err != nil {
		return domain.Member{}, fmt.Errorf("repo.MemberRepo.UpdateLocation: %w", err)
	}
	return result, nil
}

// ListByCrew returns every member of the crew. The crew existence check is a
// separate query so an empty crew and a missing crew are distinguishable.
func (r *pgMemberRepo) ListByCrew(ctx context.Context, crewID string) ([]domain.Member, error) {
	const existsQ = `SELECT EXISTS (SELECT 1 FROM crews WHERE id = @id)`

	var exists bool
	if err := r.db.QueryRow(ctx, existsQ, pgx.NamedArgs{"id": crewID}).Scan(&exists); err != nil {
		return nil, fmt.Errorf("repo.MemberRepo.ListByCrew: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("repo.MemberRepo.ListByCrew: crew %q: %w", crewID, domain.ErrNotFound)
	}

	const q = `
		SELECT ` + memberColumns + `
		FROM members
		WHERE crew_id = @crew_id
		ORDER BY name, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"crew_id": crewID})
	if err != nil {
		return nil, fmt.Errorf("repo.MemberRepo.ListByCrew: %w", err)
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.MemberRepo.ListByCrew: scan: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.MemberRepo.ListByCrew: rows: %w", err)
	}
	return members, nil
}

// Delete removes a member row by its composite key.
func (r *pgMemberRepo) Delete(ctx context.Context, crewID string, memberID uuid.UUID) error {
	const q = `DELETE FROM members WHERE crew_id = @crew_id AND id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"crew_id": crewID, "id": memberID})
	if err != nil {
		return fmt.Errorf("repo.MemberRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.MemberRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanMember maps a single database row into a domain.Member.
// lat/lng are nullable: a member who has never pushed a location scans to the
// zero Location.
func scanMember(s scanner) (domain.Member, error) {
	var (
		m        domain.Member
		id       pgtype.UUID
		lat, lng pgtype.Float8
	)

	err := s.Scan(&id, &m.Name, &m.Color, &lat, &lng, &m.Speed, &m.LastUpdate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Member{}, domain.ErrNotFound
		}
		return domain.Member{}, err
	}

	m.ID = uuid.UUID(id.Bytes)
	if lat.Valid && lng.Valid {
		m.CurrentLocation = domain.Location{Lat: lat.Float64, Lng: lng.Float64}
	}
	m.Path = []domain.Location{}

	return m, nil
}
