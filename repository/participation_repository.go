package repository

import (
	"context"
	"fmt"

	"betbook/database"
	"betbook/models"
)

// ParticipationRepository implements the service.ParticipationRepository interface
type ParticipationRepository struct {
	q queryable
}

// NewParticipationRepository creates a new participation repository
func NewParticipationRepository(db *database.DB) *ParticipationRepository {
	return &ParticipationRepository{q: db.Pool}
}

// newParticipationRepositoryWithTx creates a new participation repository with a transaction
func newParticipationRepositoryWithTx(tx queryable) *ParticipationRepository {
	return &ParticipationRepository{q: tx}
}

// Create records a participation and fills in its id and placement time
func (r *ParticipationRepository) Create(ctx context.Context, participation *models.BetParticipation) error {
	query := `
		INSERT INTO bet_participations (user_id, bet_id, option, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, placed_at
	`

	err := r.q.QueryRow(ctx, query,
		participation.UserID,
		participation.BetID,
		participation.Option,
		participation.Amount,
	).Scan(&participation.ID, &participation.PlacedAt)
	if err != nil {
		return fmt.Errorf("failed to create participation for user %d on bet %d: %w",
			participation.UserID, participation.BetID, mapConflict(err))
	}
	return nil
}

// GetByUser returns a user's participations joined with bet titles and any
// declared results, newest first
func (r *ParticipationRepository) GetByUser(ctx context.Context, userID int64) ([]*models.ParticipationEntry, error) {
	query := `
		SELECT p.id, p.user_id, p.bet_id, p.option, p.amount, p.placed_at,
		       b.title, res.winning_option
		FROM bet_participations p
		JOIN bets b ON b.id = p.bet_id
		LEFT JOIN bet_results res ON res.bet_id = p.bet_id
		WHERE p.user_id = $1
		ORDER BY p.placed_at DESC
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participations for user %d: %w", userID, err)
	}
	defer rows.Close()

	var entries []*models.ParticipationEntry
	for rows.Next() {
		var entry models.ParticipationEntry
		err := rows.Scan(
			&entry.Participation.ID,
			&entry.Participation.UserID,
			&entry.Participation.BetID,
			&entry.Participation.Option,
			&entry.Participation.Amount,
			&entry.Participation.PlacedAt,
			&entry.BetTitle,
			&entry.WinningOption,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participations: %w", err)
	}
	return entries, nil
}

// GetByBet returns all participations on a bet
func (r *ParticipationRepository) GetByBet(ctx context.Context, betID int64) ([]*models.BetParticipation, error) {
	query := `
		SELECT id, user_id, bet_id, option, amount, placed_at
		FROM bet_participations
		WHERE bet_id = $1
		ORDER BY placed_at
	`

	rows, err := r.q.Query(ctx, query, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participations for bet %d: %w", betID, err)
	}
	defer rows.Close()

	var participations []*models.BetParticipation
	for rows.Next() {
		var p models.BetParticipation
		err := rows.Scan(&p.ID, &p.UserID, &p.BetID, &p.Option, &p.Amount, &p.PlacedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		participations = append(participations, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participations: %w", err)
	}
	return participations, nil
}
