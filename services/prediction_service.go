package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nmoreira/prode-server/db"
	"github.com/nmoreira/prode-server/models"
	"github.com/nmoreira/prode-server/repositories"
)

type PredictionService interface {
	// UpsertPrediction stores or replaces the caller's guess for a match.
	// Allowed only while the match is pendiente.
	UpsertPrediction(ctx context.Context, userID string, matchID, homeGoals, awayGoals int) (*models.Prediction, error)
	// GetPredictionForUser returns nil without error when the user has no
	// prediction for the match.
	GetPredictionForUser(ctx context.Context, userID string, matchID int) (*models.Prediction, error)
	ListPredictionsForMatch(ctx context.Context, matchID int) ([]*models.Prediction, error)
}

type predictionService struct {
	txRunner       db.TxRunner
	matchRepo      repositories.MatchRepository
	predictionRepo repositories.PredictionRepository
}

func NewPredictionService(
	txRunner db.TxRunner,
	matchRepo repositories.MatchRepository,
	predictionRepo repositories.PredictionRepository,
) PredictionService {
	return &predictionService{
		txRunner:       txRunner,
		matchRepo:      matchRepo,
		predictionRepo: predictionRepo,
	}
}

func (s *predictionService) UpsertPrediction(ctx context.Context, userID string, matchID, homeGoals, awayGoals int) (*models.Prediction, error) {
	if homeGoals < 0 || awayGoals < 0 {
		return nil, fmt.Errorf("%w: predicted goals cannot be negative", ErrValidationFailed)
	}

	prediction := &models.Prediction{
		UserID:        userID,
		MatchID:       matchID,
		HomeTeamGoals: homeGoals,
		AwayTeamGoals: awayGoals,
	}

	// The status check and the write share a transaction holding the
	// match row lock, so a concurrent transition to jugándose cannot
	// slip in between them.
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByIDForUpdate(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return fmt.Errorf("failed to load match %d: %w", matchID, err)
		}
		if match.Status != models.StatusPendiente {
			return ErrPredictionsLocked
		}
		return s.predictionRepo.Upsert(ctx, exec, prediction)
	})
	if err != nil {
		return nil, err
	}
	return prediction, nil
}

func (s *predictionService) GetPredictionForUser(ctx context.Context, userID string, matchID int) (*models.Prediction, error) {
	prediction, err := s.predictionRepo.GetByUserAndMatch(ctx, userID, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrPredictionNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load prediction: %w", err)
	}
	return prediction, nil
}

func (s *predictionService) ListPredictionsForMatch(ctx context.Context, matchID int) ([]*models.Prediction, error) {
	var predictions []*models.Prediction
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		predictions, err = s.predictionRepo.ListByMatch(ctx, exec, matchID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return predictions, nil
}
