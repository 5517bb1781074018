package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/nmoreira/prode-server/models"
)

var (
	ErrMatchNotFound     = errors.New("match not found")
	ErrMatchTeamInvalid  = errors.New("match team conflict or invalid")
	ErrMatchPhaseInvalid = errors.New("match phase conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	// GetByIDForUpdate takes a row lock so concurrent updates of the same
	// match serialize on the database.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	ListDisplayed(ctx context.Context, userID string) ([]*models.MatchDisplayed, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(home_team_id, away_team_id, home_team_goals, away_team_goals, start_time, phase, group_name, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := exec.QueryRowContext(ctx, query,
		match.HomeTeamID,
		match.AwayTeamID,
		match.HomeTeamGoals,
		match.AwayTeamGoals,
		match.StartTime,
		match.PhaseID,
		match.GroupName,
		match.Status,
	).Scan(&match.ID)

	return r.handleMatchError(err)
}

const matchColumns = `id, home_team_id, away_team_id, home_team_goals, away_team_goals, start_time, phase, group_name, status`

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(r.db.QueryRowContext(ctx, query, id), id)
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
	return r.scanMatch(exec.QueryRowContext(ctx, query, id), id)
}

func (r *postgresMatchRepository) scanMatch(row *sql.Row, id int) (*models.Match, error) {
	match := &models.Match{}
	err := row.Scan(
		&match.ID,
		&match.HomeTeamID,
		&match.AwayTeamID,
		&match.HomeTeamGoals,
		&match.AwayTeamGoals,
		&match.StartTime,
		&match.PhaseID,
		&match.GroupName,
		&match.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET home_team_id = $1, away_team_id = $2, home_team_goals = $3, away_team_goals = $4,
		    start_time = $5, phase = $6, group_name = $7, status = $8
		WHERE id = $9`

	result, err := exec.ExecContext(ctx, query,
		match.HomeTeamID,
		match.AwayTeamID,
		match.HomeTeamGoals,
		match.AwayTeamGoals,
		match.StartTime,
		match.PhaseID,
		match.GroupName,
		match.Status,
		match.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	query := `DELETE FROM matches WHERE id = $1`
	result, err := exec.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// ListDisplayed returns every match joined with both team names and the
// requesting user's own prediction, when one exists.
func (r *postgresMatchRepository) ListDisplayed(ctx context.Context, userID string) ([]*models.MatchDisplayed, error) {
	query := `
		SELECT
			m.id,
			m.home_team_id,
			ht.name AS home_team_name,
			ht.code AS home_team_code,
			m.away_team_id,
			at.name AS away_team_name,
			at.code AS away_team_code,
			m.home_team_goals,
			m.away_team_goals,
			m.start_time,
			m.phase,
			ph.name AS phase_name,
			m.group_name,
			m.status,
			p.home_team_goals AS prediction_home_team_goals,
			p.away_team_goals AS prediction_away_team_goals
		FROM matches m
		JOIN teams ht ON m.home_team_id = ht.id
		JOIN teams at ON m.away_team_id = at.id
		JOIN phases ph ON m.phase = ph.id
		LEFT JOIN predictions p ON m.id = p.match_id AND p.user_id = $1
		ORDER BY m.start_time ASC, m.id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query displayed matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.MatchDisplayed, 0)
	for rows.Next() {
		var m models.MatchDisplayed
		if scanErr := rows.Scan(
			&m.ID,
			&m.HomeTeamID,
			&m.HomeTeamName,
			&m.HomeTeamCode,
			&m.AwayTeamID,
			&m.AwayTeamName,
			&m.AwayTeamCode,
			&m.HomeTeamGoals,
			&m.AwayTeamGoals,
			&m.StartTime,
			&m.PhaseID,
			&m.PhaseName,
			&m.GroupName,
			&m.Status,
			&m.PredictionHomeTeamGoals,
			&m.PredictionAwayTeamGoals,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan displayed match row: %w", scanErr)
		}
		matches = append(matches, &m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during displayed match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_home_team_id_fkey", "matches_away_team_id_fkey":
			return ErrMatchTeamInvalid
		case "matches_phase_fkey":
			return ErrMatchPhaseInvalid
		}
	}
	return err
}
