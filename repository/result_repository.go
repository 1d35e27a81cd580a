package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"betbook/database"
	"betbook/models"
	"betbook/service"
)

// ResultRepository implements the service.ResultRepository interface
type ResultRepository struct {
	q queryable
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *database.DB) *ResultRepository {
	return &ResultRepository{q: db.Pool}
}

// newResultRepositoryWithTx creates a new result repository with a transaction
func newResultRepositoryWithTx(tx queryable) *ResultRepository {
	return &ResultRepository{q: tx}
}

// Create records a result. The unique constraint on bet_id enforces at most
// one result per bet.
func (r *ResultRepository) Create(ctx context.Context, result *models.BetResult) error {
	query := `
		INSERT INTO bet_results (bet_id, winning_option)
		VALUES ($1, $2)
		RETURNING id, declared_at
	`

	err := r.q.QueryRow(ctx, query, result.BetID, result.WinningOption).
		Scan(&result.ID, &result.DeclaredAt)
	if err != nil {
		if isUniqueViolation(err) {
			return service.ErrResultDeclared
		}
		return fmt.Errorf("failed to record result for bet %d: %w", result.BetID, err)
	}
	return nil
}

// GetByBet returns the bet's declared result
func (r *ResultRepository) GetByBet(ctx context.Context, betID int64) (*models.BetResult, error) {
	query := `
		SELECT id, bet_id, winning_option, declared_at
		FROM bet_results
		WHERE bet_id = $1
	`

	var result models.BetResult
	err := r.q.QueryRow(ctx, query, betID).Scan(
		&result.ID,
		&result.BetID,
		&result.WinningOption,
		&result.DeclaredAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result for bet %d: %w", betID, err)
	}
	return &result, nil
}
