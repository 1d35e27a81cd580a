package service

import (
	"context"
	"fmt"

	"betbook/models"
)

type historyService struct {
	uowFactory UnitOfWorkFactory
}

// NewHistoryService creates a new history service
func NewHistoryService(uowFactory UnitOfWorkFactory) HistoryService {
	return &historyService{
		uowFactory: uowFactory,
	}
}

func (s *historyService) ListActiveBets(ctx context.Context) ([]*models.Bet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active bets: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return bets, nil
}

func (s *historyService) UserHistory(ctx context.Context, userID int64) ([]*models.ParticipationEntry, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.ParticipationRepository().GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participations for user %d: %w", userID, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return entries, nil
}
