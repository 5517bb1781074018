package services

import (
	"context"
	"fmt"

	"github.com/nmoreira/prode-server/models"
	"github.com/nmoreira/prode-server/repositories"
)

// ScoringEngine computes and persists prediction points. Both methods are
// meant to run inside the finalize transaction owned by the orchestrator
// and are idempotent: already-scored predictions are skipped, and the
// bonus write is absolute.
type ScoringEngine interface {
	ScoreMatch(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error
	AwardFinalBonuses(ctx context.Context, exec repositories.SQLExecutor, championTeamID, runnerUpTeamID int) error
}

type scoringEngine struct {
	predictionRepo repositories.PredictionRepository
	userRepo       repositories.UserRepository
	policy         models.ScoringPolicy
}

func NewScoringEngine(
	predictionRepo repositories.PredictionRepository,
	userRepo repositories.UserRepository,
	policy models.ScoringPolicy,
) ScoringEngine {
	return &scoringEngine{
		predictionRepo: predictionRepo,
		userRepo:       userRepo,
		policy:         policy,
	}
}

func (s *scoringEngine) ScoreMatch(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	if match.Status != models.StatusFinalizado || match.HomeTeamGoals == nil || match.AwayTeamGoals == nil {
		return fmt.Errorf("%w: match %d has no final score", ErrMatchNotFinalized, match.ID)
	}

	predictions, err := s.predictionRepo.ListByMatch(ctx, exec, match.ID)
	if err != nil {
		return fmt.Errorf("failed to load predictions for match %d: %w", match.ID, err)
	}

	for _, prediction := range predictions {
		// Points freeze on first write; a re-run must not double-award.
		if prediction.Points != nil {
			continue
		}
		points := PredictionPoints(s.policy, prediction.HomeTeamGoals, prediction.AwayTeamGoals, *match.HomeTeamGoals, *match.AwayTeamGoals)
		if err := s.predictionRepo.SetPoints(ctx, exec, prediction.UserID, match.ID, points); err != nil {
			return fmt.Errorf("failed to persist points for user %s match %d: %w", prediction.UserID, match.ID, err)
		}
	}
	return nil
}

func (s *scoringEngine) AwardFinalBonuses(ctx context.Context, exec repositories.SQLExecutor, championTeamID, runnerUpTeamID int) error {
	err := s.userRepo.AwardFinalBonus(ctx, exec, championTeamID, runnerUpTeamID, s.policy.ChampionBonus, s.policy.RunnerUpBonus)
	if err != nil {
		return fmt.Errorf("failed to award champion/runner-up bonuses: %w", err)
	}
	return nil
}

// PredictionPoints applies the tiered scoring rule: exact score beats
// correct outcome beats everything else.
func PredictionPoints(policy models.ScoringPolicy, predictedHome, predictedAway, actualHome, actualAway int) int {
	if predictedHome == actualHome && predictedAway == actualAway {
		return policy.ExactScore
	}
	if outcome(predictedHome, predictedAway) == outcome(actualHome, actualAway) {
		return policy.CorrectOutcome
	}
	return 0
}

func outcome(home, away int) int {
	switch {
	case home > away:
		return 1
	case home < away:
		return -1
	}
	return 0
}
