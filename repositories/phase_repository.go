package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nmoreira/prode-server/models"
)

var ErrPhaseNotFound = errors.New("phase not found")

type PhaseRepository interface {
	List(ctx context.Context) ([]*models.Phase, error)
	GetByID(ctx context.Context, id int) (*models.Phase, error)
}

type postgresPhaseRepository struct {
	db *sql.DB
}

func NewPostgresPhaseRepository(db *sql.DB) PhaseRepository {
	return &postgresPhaseRepository{db: db}
}

func (r *postgresPhaseRepository) List(ctx context.Context) ([]*models.Phase, error) {
	query := `SELECT id, name, is_group, is_final FROM phases ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query phases: %w", err)
	}
	defer rows.Close()

	phases := make([]*models.Phase, 0)
	for rows.Next() {
		var phase models.Phase
		if scanErr := rows.Scan(&phase.ID, &phase.Name, &phase.IsGroup, &phase.IsFinal); scanErr != nil {
			return nil, fmt.Errorf("failed to scan phase row: %w", scanErr)
		}
		phases = append(phases, &phase)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during phase rows iteration: %w", err)
	}
	return phases, nil
}

func (r *postgresPhaseRepository) GetByID(ctx context.Context, id int) (*models.Phase, error) {
	query := `SELECT id, name, is_group, is_final FROM phases WHERE id = $1`

	phase := &models.Phase{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&phase.ID, &phase.Name, &phase.IsGroup, &phase.IsFinal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPhaseNotFound
		}
		return nil, fmt.Errorf("failed to scan phase by id %d: %w", id, err)
	}
	return phase, nil
}
