// Package service contains the business logic for the crewd server.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"

	"github.com/crewlink/crewlink/internal/domain"
	"github.com/crewlink/crewlink/internal/repo"
)

// CrewService implements business logic for Crew operations.
type CrewService struct {
	crews repo.CrewRepo
}

// NewCrewService constructs a CrewService backed by the provided CrewRepo.
func NewCrewService(r repo.CrewRepo) *CrewService {
	return &CrewService{crews: r}
}

// Create validates and persists a new crew. The ID is client-generated (the
// human-readable adjective-noun-digits form); the server only checks its
// shape and uniqueness.
// Returns domain.ErrValidation for a malformed ID and domain.ErrConflict if
// the ID is already taken — the client retries with a fresh ID on conflict.
func (s *CrewService) Create(ctx context.Context, id string) (domain.Crew, error) {
	if !domain.ValidCrewID(id) {
		return domain.Crew{}, fmt.Errorf("%w: crew id must look like quick-river-482", domain.ErrValidation)
	}
	result, err := s.crews.Create(ctx, id)
	if err != nil {
		return domain.Crew{}, fmt.Errorf("service.CrewService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single crew by ID.
// Returns domain.ErrNotFound if no crew with that ID exists.
func (s *CrewService) GetByID(ctx context.Context, id string) (domain.Crew, error) {
	result, err := s.crews.GetByID(ctx, id)
	if err != nil {
		return domain.Crew{}, fmt.Errorf("service.CrewService.GetByID: %w", err)
	}
	return result, nil
}
