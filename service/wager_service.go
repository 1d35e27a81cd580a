package service

import (
	"context"
	"errors"
	"fmt"

	"betbook/events"
	"betbook/models"
)

// maxWagerAttempts bounds retries when concurrent wagers collide at the
// storage layer before ErrConcurrencyConflict is surfaced.
const maxWagerAttempts = 3

type wagerService struct {
	uowFactory UnitOfWorkFactory
}

// NewWagerService creates a new wager service
func NewWagerService(uowFactory UnitOfWorkFactory) WagerService {
	return &wagerService{
		uowFactory: uowFactory,
	}
}

// PlaceWager validates the wager, then debits the user's points and records
// the participation inside one transaction. Either both effects land or
// neither does.
func (s *wagerService) PlaceWager(ctx context.Context, userID, betID int64, option string, amount int64) (*models.BetParticipation, error) {
	var participation *models.BetParticipation
	var err error

	for attempt := 1; attempt <= maxWagerAttempts; attempt++ {
		participation, err = s.placeWagerOnce(ctx, userID, betID, option, amount)
		if err == nil || !errors.Is(err, ErrConcurrencyConflict) {
			return participation, err
		}
	}
	return nil, err
}

func (s *wagerService) placeWagerOnce(ctx context.Context, userID, betID int64, option string, amount int64) (*models.BetParticipation, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	bet, err := uow.BetRepository().GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, ErrBetNotFound
	}
	if !bet.IsActive {
		return nil, ErrBetInactive
	}
	if option == "" || !bet.IsValidOption(option) {
		return nil, ErrInvalidOption
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Points < amount {
		return nil, ErrInsufficientBalance
	}

	// The conditional update inside DeductPoints is the authoritative
	// balance check; the read above only produces a friendlier early error.
	if err := uow.UserRepository().DeductPoints(ctx, userID, amount); err != nil {
		return nil, fmt.Errorf("failed to deduct points: %w", err)
	}

	participation := &models.BetParticipation{
		UserID: userID,
		BetID:  betID,
		Option: option,
		Amount: amount,
	}
	if err := uow.ParticipationRepository().Create(ctx, participation); err != nil {
		return nil, fmt.Errorf("failed to record participation: %w", err)
	}

	uow.EventBus().Publish(events.WagerPlacedEvent{
		UserID:    userID,
		BetID:     betID,
		Option:    option,
		Amount:    amount,
		NewPoints: user.Points - amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return participation, nil
}
