package service

import (
	"context"
	"errors"
	"os"
	"testing"

	"betbook/events"
	"betbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	// The config singleton must not demand DATABASE_URL in unit tests.
	os.Setenv("ENVIRONMENT", "test")
	os.Exit(m.Run())
}

func newWagerTestMocks() (*MockUnitOfWorkFactory, *MockUnitOfWork, *MockUserRepository, *MockBetRepository, *MockParticipationRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockBetRepo := new(MockBetRepository)
	mockParticipationRepo := new(MockParticipationRepository)

	mockUoW.SetRepositories(mockUserRepo, mockBetRepo, mockParticipationRepo, nil)
	mockFactory.On("Create").Return(mockUoW)

	return mockFactory, mockUoW, mockUserRepo, mockBetRepo, mockParticipationRepo
}

func activeBet() *models.Bet {
	return &models.Bet{
		ID:       7,
		Title:    "Show starts late",
		Weekday:  4,
		Options:  []string{"Yes", "No"},
		IsActive: true,
	}
}

func TestWagerService_PlaceWager_Success(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockUserRepo, mockBetRepo, mockParticipationRepo := newWagerTestMocks()

	service := NewWagerService(mockFactory)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockBetRepo.On("GetByID", ctx, int64(7)).Return(activeBet(), nil)
	mockUserRepo.On("GetByID", ctx, int64(42)).Return(&models.User{
		ID:       42,
		Username: "alice",
		Points:   1000,
	}, nil)
	mockUserRepo.On("DeductPoints", ctx, int64(42), int64(200)).Return(nil)
	mockParticipationRepo.On("Create", ctx, mock.MatchedBy(func(p *models.BetParticipation) bool {
		return p.UserID == 42 && p.BetID == 7 && p.Option == "Yes" && p.Amount == 200
	})).Return(nil)

	participation, err := service.PlaceWager(ctx, 42, 7, "Yes", 200)

	assert.NoError(t, err)
	assert.NotNil(t, participation)
	assert.Equal(t, int64(200), participation.Amount)
	assert.Equal(t, "Yes", participation.Option)

	published := mockUoW.PublishedEvents()
	if assert.Len(t, published, 1) {
		placed := published[0].(events.WagerPlacedEvent)
		assert.Equal(t, int64(800), placed.NewPoints)
	}

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockBetRepo.AssertExpectations(t)
	mockParticipationRepo.AssertExpectations(t)
}

func TestWagerService_PlaceWager_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockUserRepo, mockBetRepo, mockParticipationRepo := newWagerTestMocks()

	service := NewWagerService(mockFactory)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	// No Commit expected: the wager must leave no trace.

	mockBetRepo.On("GetByID", ctx, int64(7)).Return(activeBet(), nil)
	mockUserRepo.On("GetByID", ctx, int64(42)).Return(&models.User{
		ID:       42,
		Username: "alice",
		Points:   100,
	}, nil)

	participation, err := service.PlaceWager(ctx, 42, 7, "Yes", 200)

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Nil(t, participation)
	assert.Empty(t, mockUoW.PublishedEvents())

	mockUserRepo.AssertNotCalled(t, "DeductPoints", mock.Anything, mock.Anything, mock.Anything)
	mockParticipationRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestWagerService_PlaceWager_ValidationOrder(t *testing.T) {
	ctx := context.Background()

	inactive := activeBet()
	inactive.IsActive = false

	tests := []struct {
		name    string
		bet     *models.Bet
		option  string
		amount  int64
		wantErr error
	}{
		{"unknown bet", nil, "Yes", 100, ErrBetNotFound},
		{"inactive bet", inactive, "Yes", 100, ErrBetInactive},
		{"empty option", activeBet(), "", 100, ErrInvalidOption},
		{"unknown option", activeBet(), "Maybe", 100, ErrInvalidOption},
		{"zero amount", activeBet(), "Yes", 0, ErrInvalidAmount},
		{"negative amount", activeBet(), "Yes", -50, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockFactory, mockUoW, mockUserRepo, mockBetRepo, mockParticipationRepo := newWagerTestMocks()
			service := NewWagerService(mockFactory)

			mockUoW.On("Begin", ctx).Return(nil)
			mockUoW.On("Rollback").Return(nil)
			if tt.bet == nil {
				mockBetRepo.On("GetByID", ctx, int64(7)).Return(nil, nil)
			} else {
				mockBetRepo.On("GetByID", ctx, int64(7)).Return(tt.bet, nil)
			}

			participation, err := service.PlaceWager(ctx, 42, 7, tt.option, tt.amount)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, participation)

			mockUserRepo.AssertNotCalled(t, "DeductPoints", mock.Anything, mock.Anything, mock.Anything)
			mockParticipationRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			mockUoW.AssertNotCalled(t, "Commit")
		})
	}
}

func TestWagerService_PlaceWager_RetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockUserRepo, mockBetRepo, mockParticipationRepo := newWagerTestMocks()

	service := NewWagerService(mockFactory)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockBetRepo.On("GetByID", ctx, int64(7)).Return(activeBet(), nil)
	mockUserRepo.On("GetByID", ctx, int64(42)).Return(&models.User{
		ID:     42,
		Points: 1000,
	}, nil)
	// First attempt loses a race, second goes through.
	mockUserRepo.On("DeductPoints", ctx, int64(42), int64(200)).Return(ErrConcurrencyConflict).Once()
	mockUserRepo.On("DeductPoints", ctx, int64(42), int64(200)).Return(nil).Once()
	mockParticipationRepo.On("Create", ctx, mock.Anything).Return(nil)

	participation, err := service.PlaceWager(ctx, 42, 7, "Yes", 200)

	assert.NoError(t, err)
	assert.NotNil(t, participation)
	mockUserRepo.AssertNumberOfCalls(t, "DeductPoints", 2)
}

func TestWagerService_PlaceWager_ConflictExhaustsRetries(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, mockUserRepo, mockBetRepo, _ := newWagerTestMocks()

	service := NewWagerService(mockFactory)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockBetRepo.On("GetByID", ctx, int64(7)).Return(activeBet(), nil)
	mockUserRepo.On("GetByID", ctx, int64(42)).Return(&models.User{
		ID:     42,
		Points: 1000,
	}, nil)
	mockUserRepo.On("DeductPoints", ctx, int64(42), int64(200)).Return(ErrConcurrencyConflict)

	participation, err := service.PlaceWager(ctx, 42, 7, "Yes", 200)

	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.Nil(t, participation)
	mockUserRepo.AssertNumberOfCalls(t, "DeductPoints", maxWagerAttempts)
}

func TestWagerService_PlaceWager_RepositoryError(t *testing.T) {
	ctx := context.Background()
	mockFactory, mockUoW, _, mockBetRepo, _ := newWagerTestMocks()

	service := NewWagerService(mockFactory)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	storageErr := errors.New("connection reset")
	mockBetRepo.On("GetByID", ctx, int64(7)).Return(nil, storageErr)

	participation, err := service.PlaceWager(ctx, 42, 7, "Yes", 200)

	assert.ErrorIs(t, err, storageErr)
	assert.Nil(t, participation)
	mockUoW.AssertNotCalled(t, "Commit")
}
