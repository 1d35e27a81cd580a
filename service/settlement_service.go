package service

import (
	"context"
	"fmt"

	"betbook/events"
	"betbook/models"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
	}
}

// DeclareResult records the winning option for a bet and credits every
// winning participation in the same transaction. Declaring twice for one bet
// fails with ErrResultDeclared and pays nothing out.
func (s *settlementService) DeclareResult(ctx context.Context, betID int64, winningOption string) (*models.BetResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bet, err := uow.BetRepository().GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, ErrBetNotFound
	}
	if !bet.IsValidOption(winningOption) {
		return nil, ErrInvalidOption
	}

	result := &models.BetResult{
		BetID:         betID,
		WinningOption: winningOption,
	}
	if err := uow.ResultRepository().Create(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to record result: %w", err)
	}

	participations, err := uow.ParticipationRepository().GetByBet(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participations: %w", err)
	}

	deltas := models.Payout(participations, result)
	var paid int64
	for userID, delta := range deltas {
		if delta <= 0 {
			continue
		}
		if err := uow.UserRepository().AddPoints(ctx, userID, delta); err != nil {
			return nil, fmt.Errorf("failed to credit user %d: %w", userID, err)
		}
		paid += delta
	}

	uow.EventBus().Publish(events.ResultDeclaredEvent{
		BetID:         betID,
		WinningOption: winningOption,
		Winners:       len(deltas),
		PointsPaid:    paid,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}
