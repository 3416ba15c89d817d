package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/crewlink/crewlink/internal/domain"
	"github.com/crewlink/crewlink/internal/repo"
)

// maxMemberName bounds display names; long names break the crew panel layout.
const maxMemberName = 40

// colorPattern matches the #RRGGBB display colors clients assign members.
var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// MemberService implements business logic for member operations.
type MemberService struct {
	members repo.MemberRepo
}

// NewMemberService constructs a MemberService backed by the provided MemberRepo.
func NewMemberService(r repo.MemberRepo) *MemberService {
	return &MemberService{members: r}
}

// Create registers a brand-new member of an existing crew, typically the
// creator right after crew creation.
// Returns domain.ErrValidation for bad input, domain.ErrNotFound for a
// missing crew, and domain.ErrConflict if the member already exists.
func (s *MemberService) Create(ctx context.Context, crewID string, memberID uuid.UUID, name, color string) (domain.Member, error) {
	name = strings.TrimSpace(name)
	if err := validateMember(memberID, name); err != nil {
		return domain.Member{}, err
	}
	if color != "" && !colorPattern.MatchString(color) {
		return domain.Member{}, fmt.Errorf("%w: color must be #RRGGBB", domain.ErrValidation)
	}
	result, err := s.members.Create(ctx, crewID, memberID, name, color)
	if err != nil {
		return domain.Member{}, fmt.Errorf("service.MemberService.Create: %w", err)
	}
	return result, nil
}

// Upsert inserts or updates a member — the join operation. Rejoining an
// already-joined crew updates the name rather than duplicating the member.
// Returns domain.ErrValidation for bad input and domain.ErrNotFound for a
// missing crew.
func (s *MemberService) Upsert(ctx context.Context, crewID string, memberID uuid.UUID, name string) (domain.Member, error) {
	name = strings.TrimSpace(name)
	if err := validateMember(memberID, name); err != nil {
		return domain.Member{}, err
	}
	result, err := s.members.Upsert(ctx, crewID, memberID, name)
	if err != nil {
		return domain.Member{}, fmt.Errorf("service.MemberService.Upsert: %w", err)
	}
	return result, nil
}

// UpdateLocation records a member's latest position and speed.
// Returns domain.ErrValidation when the coordinates are outside WGS84 range
// or speed is negative, domain.ErrNotFound when the member is not in the crew.
func (s *MemberService) UpdateLocation(ctx context.Context, crewID string, memberID uuid.UUID, loc domain.Location, speed float64) (domain.Member, error) {
	if loc.Lat < -90 || loc.Lat > 90 {
		return domain.Member{}, fmt.Errorf("%w: lat out of range", domain.ErrValidation)
	}
	if loc.Lng < -180 || loc.Lng > 180 {
		return domain.Member{}, fmt.Errorf("%w: lng out of range", domain.ErrValidation)
	}
	if speed < 0 {
		return domain.Member{}, fmt.Errorf("%w: speed must not be negative", domain.ErrValidation)
	}
	result, err := s.members.UpdateLocation(ctx, crewID, memberID, loc, speed)
	if err != nil {
		return domain.Member{}, fmt.Errorf("service.MemberService.UpdateLocation: %w", err)
	}
	return result, nil
}

// ListByCrew returns all members of a crew ordered by name.
// Always returns a non-nil slice so callers can safely range over it.
// Returns domain.ErrNotFound if the crew does not exist.
func (s *MemberService) ListByCrew(ctx context.Context, crewID string) ([]domain.Member, error) {
	members, err := s.members.ListByCrew(ctx, crewID)
	if err != nil {
		return nil, fmt.Errorf("service.MemberService.ListByCrew: %w", err)
	}
	if members == nil {
		return []domain.Member{}, nil
	}
	return members, nil
}

// Delete removes a member from a crew — the leave operation.
// Returns domain.ErrNotFound if the member is not in the crew.
func (s *MemberService) Delete(ctx context.Context, crewID string, memberID uuid.UUID) error {
	if err := s.members.Delete(ctx, crewID, memberID); err != nil {
		return fmt.Errorf("service.MemberService.Delete: %w", err)
	}
	return nil
}

// validateMember enforces rules common to Create and Upsert.
//   - memberID must be a real UUID, not the zero value.
//   - Name must be non-empty after trimming and fit the crew panel.
func validateMember(memberID uuid.UUID, name string) error {
	if memberID == uuid.Nil {
		return fmt.Errorf("%w: member id is required", domain.ErrValidation)
	}
	if name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if len(name) > maxMemberName {
		return fmt.Errorf("%w: name must be at most %d characters", domain.ErrValidation, maxMemberName)
	}
	return nil
}
