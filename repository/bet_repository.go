package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"betbook/database"
	"betbook/models"
)

// BetRepository implements the service.BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

func scanBet(row pgx.Row) (*models.Bet, error) {
	var bet models.Bet
	var optionsJSON []byte
	err := row.Scan(
		&bet.ID,
		&bet.Title,
		&bet.Weekday,
		&optionsJSON,
		&bet.ClosingTime,
		&bet.IsActive,
		&bet.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(optionsJSON, &bet.Options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bet options: %w", err)
	}
	return &bet, nil
}

// GetByID retrieves a bet by id
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	query := `
		SELECT id, title, weekday, options, closing_time, is_active, created_at
		FROM bets
		WHERE id = $1
	`

	bet, err := scanBet(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %d: %w", id, err)
	}
	return bet, nil
}

// ListActive returns all active bets, newest first
func (r *BetRepository) ListActive(ctx context.Context) ([]*models.Bet, error) {
	query := `
		SELECT id, title, weekday, options, closing_time, is_active, created_at
		FROM bets
		WHERE is_active
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active bets: %w", err)
	}
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}
	return bets, nil
}

// Create creates a new bet
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	if len(bet.Options) == 0 {
		return fmt.Errorf("bet must have at least one option")
	}
	if bet.Weekday < 0 || bet.Weekday > 6 {
		return fmt.Errorf("weekday must be between 0 and 6")
	}

	optionsJSON, err := json.Marshal(bet.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal bet options: %w", err)
	}

	query := `
		INSERT INTO bets (title, weekday, options, closing_time, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		bet.Title,
		bet.Weekday,
		optionsJSON,
		bet.ClosingTime,
		bet.IsActive,
	).Scan(&bet.ID, &bet.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bet %q: %w", bet.Title, err)
	}
	return nil
}

// SetActive toggles a bet's active flag
func (r *BetRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE bets SET is_active = $2 WHERE id = $1`

	result, err := r.q.Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to update bet %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("bet %d not found", id)
	}
	return nil
}
