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
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("email address is already in use")
	ErrUserPicksInvalid  = errors.New("champion or runner-up pick conflict or invalid")
	ErrUserCareerInvalid = errors.New("career conflict or invalid")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateAvatarURL(ctx context.Context, id string, avatarURL string) error
	// SetRoleByEmail is the admin bootstrap: the single tournament admin is
	// promoted from an already-registered account.
	SetRoleByEmail(ctx context.Context, email string, role models.UserRole) error
	// AwardFinalBonus sets bonus_points for every user whose registration
	// picks match the declared champion/runner-up. The write is absolute,
	// so running it again produces the same stored values.
	AwardFinalBonus(ctx context.Context, exec SQLExecutor, championTeamID, runnerUpTeamID, championPoints, runnerUpPoints int) error
	ListRanking(ctx context.Context) ([]*models.RankingEntry, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users
			(id, name, lastname, email, password_hash, career_id, role, champion_team_id, runnerup_team_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Name,
		user.Lastname,
		user.Email,
		user.PasswordHash,
		user.CareerID,
		user.Role,
		user.ChampionTeamID,
		user.RunnerUpTeamID,
	).Scan(&user.CreatedAt)

	return r.handleUserError(err)
}

const userColumns = `id, name, lastname, email, password_hash, career_id, role, champion_team_id, runnerup_team_id, bonus_points, avatar_url, created_at`

func (r *postgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *postgresUserRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Lastname,
		&user.Email,
		&user.PasswordHash,
		&user.CareerID,
		&user.Role,
		&user.ChampionTeamID,
		&user.RunnerUpTeamID,
		&user.BonusPoints,
		&user.AvatarURL,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

func (r *postgresUserRepository) UpdateAvatarURL(ctx context.Context, id string, avatarURL string) error {
	query := `UPDATE users SET avatar_url = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, avatarURL, id)
	if err != nil {
		return fmt.Errorf("failed to update avatar for user %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) SetRoleByEmail(ctx context.Context, email string, role models.UserRole) error {
	query := `UPDATE users SET role = $1 WHERE email = $2`

	result, err := r.db.ExecContext(ctx, query, role, email)
	if err != nil {
		return fmt.Errorf("failed to set role for %s: %w", email, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) AwardFinalBonus(ctx context.Context, exec SQLExecutor, championTeamID, runnerUpTeamID, championPoints, runnerUpPoints int) error {
	query := `
		UPDATE users
		SET bonus_points =
			(CASE WHEN champion_team_id = $1 THEN $3 ELSE 0 END) +
			(CASE WHEN runnerup_team_id = $2 THEN $4 ELSE 0 END)`

	if _, err := exec.ExecContext(ctx, query, championTeamID, runnerUpTeamID, championPoints, runnerUpPoints); err != nil {
		return fmt.Errorf("failed to award final bonuses: %w", err)
	}
	return nil
}

// ListRanking aggregates scored predictions and the final bonus per user,
// best totals first. Ties break on name to keep the order stable.
func (r *postgresUserRepository) ListRanking(ctx context.Context) ([]*models.RankingEntry, error) {
	query := `
		SELECT
			u.id,
			u.name,
			u.lastname,
			COALESCE(SUM(p.points), 0) AS match_points,
			u.bonus_points
		FROM users u
		LEFT JOIN predictions p ON p.user_id = u.id
		GROUP BY u.id, u.name, u.lastname, u.bonus_points
		ORDER BY COALESCE(SUM(p.points), 0) + u.bonus_points DESC, u.lastname ASC, u.name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.RankingEntry, 0)
	for rows.Next() {
		var entry models.RankingEntry
		if scanErr := rows.Scan(
			&entry.UserID,
			&entry.Name,
			&entry.Lastname,
			&entry.MatchPoints,
			&entry.BonusPoints,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", scanErr)
		}
		entry.TotalPoints = entry.MatchPoints + entry.BonusPoints
		entry.Position = len(entries) + 1
		entries = append(entries, &entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during ranking rows iteration: %w", err)
	}
	return entries, nil
}

func (r *postgresUserRepository) handleUserError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "users_email_key":
			return ErrUserEmailConflict
		case "users_champion_team_id_fkey", "users_runnerup_team_id_fkey", "users_distinct_picks":
			return ErrUserPicksInvalid
		case "users_career_id_fkey":
			return ErrUserCareerInvalid
		}
	}
	return err
}
