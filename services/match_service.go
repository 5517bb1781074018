package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nmoreira/prode-server/db"
	"github.com/nmoreira/prode-server/models"
	"github.com/nmoreira/prode-server/repositories"
)

// CreateMatchInput carries the validated fields for a new fixture.
// Matches are always created pendiente and without goals.
type CreateMatchInput struct {
	HomeTeamID int
	AwayTeamID int
	StartTime  time.Time
	PhaseID    int
	GroupName  *string
}

// UpdateMatchInput carries the validated fields of an admin match update.
// Champion and RunnerUp are only meaningful when the update finalizes a
// final-phase match.
type UpdateMatchInput struct {
	HomeTeamID    int
	AwayTeamID    int
	HomeTeamGoals *int
	AwayTeamGoals *int
	StartTime     time.Time
	PhaseID       int
	GroupName     *string
	Status        models.MatchStatus
	Champion      *int
	RunnerUp      *int
}

// RankingInvalidator lets the orchestrator drop the cached standings
// after a finalize or a score recalculation.
type RankingInvalidator interface {
	Invalidate(ctx context.Context)
}

type MatchService interface {
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetAdminMatchByID(ctx context.Context, id int) (*models.Match, error)
	FetchMatchesDisplayed(ctx context.Context, userID string) ([]*models.MatchDisplayed, error)
	UpdateMatch(ctx context.Context, id int, input UpdateMatchInput) (*models.Match, error)
	DeleteMatch(ctx context.Context, id int) error
	CalculateScoresByMatchID(ctx context.Context, id int) error
}

type matchService struct {
	txRunner       db.TxRunner
	matchRepo      repositories.MatchRepository
	predictionRepo repositories.PredictionRepository
	phaseRepo      repositories.PhaseRepository
	scoring        ScoringEngine
	ranking        RankingInvalidator
}

func NewMatchService(
	txRunner db.TxRunner,
	matchRepo repositories.MatchRepository,
	predictionRepo repositories.PredictionRepository,
	phaseRepo repositories.PhaseRepository,
	scoring ScoringEngine,
	ranking RankingInvalidator,
) MatchService {
	return &matchService{
		txRunner:       txRunner,
		matchRepo:      matchRepo,
		predictionRepo: predictionRepo,
		phaseRepo:      phaseRepo,
		scoring:        scoring,
		ranking:        ranking,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	phase, err := s.loadPhase(ctx, input.PhaseID)
	if err != nil {
		return nil, err
	}
	if err := validateGroupName(phase, input.GroupName); err != nil {
		return nil, err
	}
	if input.HomeTeamID == input.AwayTeamID {
		return nil, fmt.Errorf("%w: a team cannot play against itself", ErrValidationFailed)
	}

	match := &models.Match{
		HomeTeamID: input.HomeTeamID,
		AwayTeamID: input.AwayTeamID,
		StartTime:  input.StartTime,
		PhaseID:    input.PhaseID,
		GroupName:  input.GroupName,
		Status:     models.StatusPendiente,
	}

	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.matchRepo.Create(ctx, exec, match)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrMatchTeamInvalid) {
			return nil, ErrTeamNotFound
		}
		if errors.Is(err, repositories.ErrMatchPhaseInvalid) {
			return nil, ErrPhaseNotFound
		}
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return match, nil
}

func (s *matchService) GetAdminMatchByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", id, err)
	}
	return match, nil
}

func (s *matchService) FetchMatchesDisplayed(ctx context.Context, userID string) ([]*models.MatchDisplayed, error) {
	matches, err := s.matchRepo.ListDisplayed(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list displayed matches: %w", err)
	}
	return matches, nil
}

// UpdateMatch validates the requested change against the status state
// machine and applies it atomically. The match row stays locked for the
// whole transaction, so two concurrent finalizes of the same match
// serialize and the loser fails the immutability check.
func (s *matchService) UpdateMatch(ctx context.Context, id int, input UpdateMatchInput) (*models.Match, error) {
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	var (
		updated    *models.Match
		finalizing bool
	)

	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		current, err := s.matchRepo.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return fmt.Errorf("failed to load match %d: %w", id, err)
		}

		if current.Status == models.StatusFinalizado {
			return ErrMatchImmutable
		}
		if !current.Status.CanTransitionTo(input.Status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, current.Status, input.Status)
		}

		candidate, err := s.applyUpdate(ctx, current, input)
		if err != nil {
			return err
		}

		finalizing = input.Status == models.StatusFinalizado

		var champion, runnerUp int
		if finalizing {
			phase, err := s.loadPhase(ctx, candidate.PhaseID)
			if err != nil {
				return err
			}
			if phase.IsFinal {
				champion, runnerUp, err = validateFinalDeclaration(candidate, input.Champion, input.RunnerUp)
				if err != nil {
					return err
				}
			}
		}

		if err := s.matchRepo.Update(ctx, exec, candidate); err != nil {
			return fmt.Errorf("failed to persist match %d: %w", id, err)
		}

		if finalizing {
			if err := s.scoring.ScoreMatch(ctx, exec, candidate); err != nil {
				return fmt.Errorf("%w: %w", ErrFinalizeFailed, err)
			}
			if champion != 0 {
				if err := s.scoring.AwardFinalBonuses(ctx, exec, champion, runnerUp); err != nil {
					return fmt.Errorf("%w: %w", ErrFinalizeFailed, err)
				}
			}
		}

		updated = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	if finalizing && s.ranking != nil {
		s.ranking.Invalidate(ctx)
	}
	return updated, nil
}

// applyUpdate checks the per-status mutability contract and builds the
// resulting match. Identity fields (teams, phase, group, start time) are
// only editable while the match both is and stays pendiente; goals are
// validated against the requested status, which is what makes the
// pendiente to jugándose edge able to introduce a live score.
func (s *matchService) applyUpdate(ctx context.Context, current *models.Match, input UpdateMatchInput) (*models.Match, error) {
	candidate := *current
	candidate.Status = input.Status

	identityEditable := current.Status == models.StatusPendiente && input.Status == models.StatusPendiente
	if identityEditable {
		phase, err := s.loadPhase(ctx, input.PhaseID)
		if err != nil {
			return nil, err
		}
		if err := validateGroupName(phase, input.GroupName); err != nil {
			return nil, err
		}
		if input.HomeTeamID == input.AwayTeamID {
			return nil, fmt.Errorf("%w: a team cannot play against itself", ErrValidationFailed)
		}
		candidate.HomeTeamID = input.HomeTeamID
		candidate.AwayTeamID = input.AwayTeamID
		candidate.PhaseID = input.PhaseID
		candidate.GroupName = input.GroupName
		candidate.StartTime = input.StartTime
	} else {
		switch {
		case input.HomeTeamID != current.HomeTeamID:
			return nil, fmt.Errorf("%w: home_team_id", ErrFieldLocked)
		case input.AwayTeamID != current.AwayTeamID:
			return nil, fmt.Errorf("%w: away_team_id", ErrFieldLocked)
		case input.PhaseID != current.PhaseID:
			return nil, fmt.Errorf("%w: phase", ErrFieldLocked)
		case !equalStringPtr(input.GroupName, current.GroupName):
			return nil, fmt.Errorf("%w: group_name", ErrFieldLocked)
		case !input.StartTime.Equal(current.StartTime):
			return nil, fmt.Errorf("%w: start_time", ErrFieldLocked)
		}
	}

	if input.Status == models.StatusPendiente {
		if input.HomeTeamGoals != nil || input.AwayTeamGoals != nil {
			return nil, fmt.Errorf("%w: goals", ErrFieldLocked)
		}
		candidate.HomeTeamGoals = nil
		candidate.AwayTeamGoals = nil
		return &candidate, nil
	}

	if input.HomeTeamGoals == nil || input.AwayTeamGoals == nil {
		return nil, ErrGoalsRequired
	}
	if *input.HomeTeamGoals < 0 || *input.AwayTeamGoals < 0 {
		return nil, fmt.Errorf("%w: goals cannot be negative", ErrValidationFailed)
	}
	candidate.HomeTeamGoals = input.HomeTeamGoals
	candidate.AwayTeamGoals = input.AwayTeamGoals
	return &candidate, nil
}

func (s *matchService) DeleteMatch(ctx context.Context, id int) error {
	return s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		current, err := s.matchRepo.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return fmt.Errorf("failed to load match %d: %w", id, err)
		}
		if current.Status == models.StatusFinalizado {
			return ErrMatchImmutable
		}

		if err := s.predictionRepo.DeleteByMatch(ctx, exec, id); err != nil {
			return err
		}
		if err := s.matchRepo.Delete(ctx, exec, id); err != nil {
			return fmt.Errorf("failed to delete match %d: %w", id, err)
		}
		return nil
	})
}

// CalculateScoresByMatchID re-runs the scoring engine over an already
// finalized match. Predictions scored during finalize keep their points,
// so this is a repair hook, not a way to change results.
func (s *matchService) CalculateScoresByMatchID(ctx context.Context, id int) error {
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByIDForUpdate(ctx, exec, id)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return fmt.Errorf("failed to load match %d: %w", id, err)
		}
		if match.Status != models.StatusFinalizado {
			return ErrMatchNotFinalized
		}
		return s.scoring.ScoreMatch(ctx, exec, match)
	})
	if err != nil {
		return err
	}

	if s.ranking != nil {
		s.ranking.Invalidate(ctx)
	}
	return nil
}

func (s *matchService) loadPhase(ctx context.Context, phaseID int) (*models.Phase, error) {
	phase, err := s.phaseRepo.GetByID(ctx, phaseID)
	if err != nil {
		if errors.Is(err, repositories.ErrPhaseNotFound) {
			return nil, ErrPhaseNotFound
		}
		return nil, fmt.Errorf("failed to load phase %d: %w", phaseID, err)
	}
	return phase, nil
}

// validateFinalDeclaration checks the champion/runner-up declaration
// against the two finalists before anything is persisted.
func validateFinalDeclaration(match *models.Match, champion, runnerUp *int) (int, int, error) {
	if champion == nil || runnerUp == nil {
		return 0, 0, ErrFinalDeclarationRequired
	}
	c, r := *champion, *runnerUp
	if c == r {
		return 0, 0, ErrInvalidFinalDeclaration
	}
	if !isParticipant(match, c) || !isParticipant(match, r) {
		return 0, 0, ErrInvalidFinalDeclaration
	}
	return c, r, nil
}

func isParticipant(match *models.Match, teamID int) bool {
	return teamID == match.HomeTeamID || teamID == match.AwayTeamID
}

func validateGroupName(phase *models.Phase, groupName *string) error {
	if phase.IsGroup {
		if groupName == nil || *groupName == "" {
			return ErrGroupNameRequired
		}
		return nil
	}
	if groupName != nil && *groupName != "" {
		return ErrGroupNameNotAllowed
	}
	return nil
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
