package services

import (
	"context"
	"fmt"

	"github.com/nmoreira/prode-server/models"
	"github.com/nmoreira/prode-server/repositories"
)

// ReferenceService exposes the static lookup tables consumed by the
// registration and admin forms.
type ReferenceService interface {
	ListTeams(ctx context.Context) ([]*models.Team, error)
	ListPhases(ctx context.Context) ([]*models.Phase, error)
	ListCareers(ctx context.Context) ([]*models.Career, error)
}

type referenceService struct {
	teamRepo   repositories.TeamRepository
	phaseRepo  repositories.PhaseRepository
	careerRepo repositories.CareerRepository
}

func NewReferenceService(
	teamRepo repositories.TeamRepository,
	phaseRepo repositories.PhaseRepository,
	careerRepo repositories.CareerRepository,
) ReferenceService {
	return &referenceService{
		teamRepo:   teamRepo,
		phaseRepo:  phaseRepo,
		careerRepo: careerRepo,
	}
}

func (s *referenceService) ListTeams(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (s *referenceService) ListPhases(ctx context.Context) ([]*models.Phase, error) {
	phases, err := s.phaseRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list phases: %w", err)
	}
	return phases, nil
}

func (s *referenceService) ListCareers(ctx context.Context) ([]*models.Career, error) {
	careers, err := s.careerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list careers: %w", err)
	}
	return careers, nil
}
