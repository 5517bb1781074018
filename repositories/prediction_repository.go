package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nmoreira/prode-server/models"
)

var ErrPredictionNotFound = errors.New("prediction not found")

type PredictionRepository interface {
	// Upsert writes the guessed goals for (user_id, match_id), replacing
	// any previous guess. It never touches points.
	Upsert(ctx context.Context, exec SQLExecutor, prediction *models.Prediction) error
	GetByUserAndMatch(ctx context.Context, userID string, matchID int) (*models.Prediction, error)
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.Prediction, error)
	SetPoints(ctx context.Context, exec SQLExecutor, userID string, matchID int, points int) error
	DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error
}

type postgresPredictionRepository struct {
	db *sql.DB
}

func NewPostgresPredictionRepository(db *sql.DB) PredictionRepository {
	return &postgresPredictionRepository{db: db}
}

func (r *postgresPredictionRepository) Upsert(ctx context.Context, exec SQLExecutor, prediction *models.Prediction) error {
	query := `
		INSERT INTO predictions (user_id, match_id, home_team_goals, away_team_goals)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, match_id)
		DO UPDATE SET home_team_goals = EXCLUDED.home_team_goals,
		              away_team_goals = EXCLUDED.away_team_goals`

	_, err := exec.ExecContext(ctx, query,
		prediction.UserID,
		prediction.MatchID,
		prediction.HomeTeamGoals,
		prediction.AwayTeamGoals,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert prediction for user %s match %d: %w", prediction.UserID, prediction.MatchID, err)
	}
	return nil
}

func (r *postgresPredictionRepository) GetByUserAndMatch(ctx context.Context, userID string, matchID int) (*models.Prediction, error) {
	query := `
		SELECT user_id, match_id, home_team_goals, away_team_goals, points
		FROM predictions
		WHERE user_id = $1 AND match_id = $2`

	prediction := &models.Prediction{}
	err := r.db.QueryRowContext(ctx, query, userID, matchID).Scan(
		&prediction.UserID,
		&prediction.MatchID,
		&prediction.HomeTeamGoals,
		&prediction.AwayTeamGoals,
		&prediction.Points,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPredictionNotFound
		}
		return nil, fmt.Errorf("failed to scan prediction for user %s match %d: %w", userID, matchID, err)
	}
	return prediction, nil
}

func (r *postgresPredictionRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.Prediction, error) {
	query := `
		SELECT user_id, match_id, home_team_goals, away_team_goals, points
		FROM predictions
		WHERE match_id = $1
		ORDER BY user_id ASC`

	rows, err := exec.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions for match %d: %w", matchID, err)
	}
	defer rows.Close()

	predictions := make([]*models.Prediction, 0)
	for rows.Next() {
		var prediction models.Prediction
		if scanErr := rows.Scan(
			&prediction.UserID,
			&prediction.MatchID,
			&prediction.HomeTeamGoals,
			&prediction.AwayTeamGoals,
			&prediction.Points,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan prediction row: %w", scanErr)
		}
		predictions = append(predictions, &prediction)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during prediction rows iteration: %w", err)
	}
	return predictions, nil
}

func (r *postgresPredictionRepository) SetPoints(ctx context.Context, exec SQLExecutor, userID string, matchID int, points int) error {
	query := `UPDATE predictions SET points = $1 WHERE user_id = $2 AND match_id = $3`

	result, err := exec.ExecContext(ctx, query, points, userID, matchID)
	if err != nil {
		return fmt.Errorf("failed to set points for user %s match %d: %w", userID, matchID, err)
	}
	return checkAffectedRows(result, ErrPredictionNotFound)
}

func (r *postgresPredictionRepository) DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID int) error {
	query := `DELETE FROM predictions WHERE match_id = $1`

	// Zero affected rows is fine here, a match can have no predictions.
	if _, err := exec.ExecContext(ctx, query, matchID); err != nil {
		return fmt.Errorf("failed to delete predictions for match %d: %w", matchID, err)
	}
	return nil
}
