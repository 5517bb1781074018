package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nmoreira/prode-server/models"
)

var ErrCareerNotFound = errors.New("career not found")

type CareerRepository interface {
	List(ctx context.Context) ([]*models.Career, error)
}

type postgresCareerRepository struct {
	db *sql.DB
}

func NewPostgresCareerRepository(db *sql.DB) CareerRepository {
	return &postgresCareerRepository{db: db}
}

func (r *postgresCareerRepository) List(ctx context.Context) ([]*models.Career, error) {
	query := `SELECT id, name FROM careers ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query careers: %w", err)
	}
	defer rows.Close()

	careers := make([]*models.Career, 0)
	for rows.Next() {
		var career models.Career
		if scanErr := rows.Scan(&career.ID, &career.Name); scanErr != nil {
			return nil, fmt.Errorf("failed to scan career row: %w", scanErr)
		}
		careers = append(careers, &career)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during career rows iteration: %w", err)
	}
	return careers, nil
}
