package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betbook/events"
	"betbook/repository/testutil"
	"betbook/service"
)

// TestWagerFlow exercises the full wager path against a real database:
// services, unit of work, conditional balance update and participation insert.
func TestWagerFlow(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	userRepo := NewUserRepository(testDB.DB)
	betRepo := NewBetRepository(testDB.DB)
	participationRepo := NewParticipationRepository(testDB.DB)

	uowFactory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	wagers := service.NewWagerService(uowFactory)

	user, err := userRepo.Create(ctx, "dave", nil, nil, 1000)
	require.NoError(t, err)

	bet := testutil.CreateTestBet("Friday game", "home", "away")
	require.NoError(t, betRepo.Create(ctx, bet))
	require.NotZero(t, bet.ID)

	t.Run("successful wager debits and records", func(t *testing.T) {
		participation, err := wagers.PlaceWager(ctx, user.ID, bet.ID, "home", 300)
		require.NoError(t, err)
		require.NotNil(t, participation)
		assert.NotZero(t, participation.ID)
		assert.False(t, participation.PlacedAt.IsZero())

		found, err := userRepo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(700), found.Points)

		placed, err := participationRepo.GetByBet(ctx, bet.ID)
		require.NoError(t, err)
		require.Len(t, placed, 1)
		assert.Equal(t, "home", placed[0].Option)
		assert.Equal(t, int64(300), placed[0].Amount)
	})

	t.Run("insufficient balance leaves no trace", func(t *testing.T) {
		_, err := wagers.PlaceWager(ctx, user.ID, bet.ID, "away", 800)
		assert.ErrorIs(t, err, service.ErrInsufficientBalance)

		found, err := userRepo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(700), found.Points)

		placed, err := participationRepo.GetByBet(ctx, bet.ID)
		require.NoError(t, err)
		assert.Len(t, placed, 1)
	})

	t.Run("inactive bet rejects wagers", func(t *testing.T) {
		closed := testutil.CreateTestBet("Closed game")
		closed.IsActive = false
		require.NoError(t, betRepo.Create(ctx, closed))

		_, err := wagers.PlaceWager(ctx, user.ID, closed.ID, "yes", 100)
		assert.ErrorIs(t, err, service.ErrBetInactive)
	})
}

// TestWagerFlow_ConcurrentWagers runs two wagers that together exceed the
// balance; exactly one may win the race.
func TestWagerFlow_ConcurrentWagers(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	userRepo := NewUserRepository(testDB.DB)
	betRepo := NewBetRepository(testDB.DB)

	uowFactory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	wagers := service.NewWagerService(uowFactory)

	user, err := userRepo.Create(ctx, "erin", nil, nil, 1000)
	require.NoError(t, err)

	bet := testutil.CreateTestBet("Derby", "home", "away")
	require.NoError(t, betRepo.Create(ctx, bet))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = wagers.PlaceWager(ctx, user.ID, bet.ID, "home", 600)
		}(i)
	}
	wg.Wait()

	var succeeded, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			assert.ErrorIs(t, err, service.ErrInsufficientBalance)
			insufficient++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)

	found, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(400), found.Points)
}

// TestSettlementFlow declares a result and verifies the payout lands.
func TestSettlementFlow(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	userRepo := NewUserRepository(testDB.DB)
	betRepo := NewBetRepository(testDB.DB)

	uowFactory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	wagers := service.NewWagerService(uowFactory)
	settlement := service.NewSettlementService(uowFactory)
	history := service.NewHistoryService(uowFactory)

	winner, err := userRepo.Create(ctx, "frank", nil, nil, 1000)
	require.NoError(t, err)
	loser, err := userRepo.Create(ctx, "grace", nil, nil, 1000)
	require.NoError(t, err)

	bet := testutil.CreateTestBet("Cup final", "home", "away")
	require.NoError(t, betRepo.Create(ctx, bet))

	_, err = wagers.PlaceWager(ctx, winner.ID, bet.ID, "home", 200)
	require.NoError(t, err)
	_, err = wagers.PlaceWager(ctx, loser.ID, bet.ID, "away", 300)
	require.NoError(t, err)

	result, err := settlement.DeclareResult(ctx, bet.ID, "home")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "home", result.WinningOption)

	// Winner staked 200 and gets 400 back; loser gets nothing
	found, err := userRepo.GetByID(ctx, winner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), found.Points)

	found, err = userRepo.GetByID(ctx, loser.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(700), found.Points)

	t.Run("second declaration is refused", func(t *testing.T) {
		_, err := settlement.DeclareResult(ctx, bet.ID, "away")
		assert.ErrorIs(t, err, service.ErrResultDeclared)
	})

	t.Run("history reflects settlement", func(t *testing.T) {
		entries, err := history.UserHistory(ctx, winner.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].Settled())
		assert.True(t, entries[0].Won())

		entries, err = history.UserHistory(ctx, loser.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].Settled())
		assert.False(t, entries[0].Won())
	})
}

// TestAccountFlow covers the guest lifecycle end to end: choose a name,
// rebind to it, promote it to a registered account.
func TestAccountFlow(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	uowFactory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	accounts := service.NewAccountService(uowFactory)

	guest, err := accounts.ChooseName(ctx, "henry")
	require.NoError(t, err)
	require.NotNil(t, guest)
	assert.False(t, guest.IsRegistered())

	t.Run("choose name rebinds to the same guest", func(t *testing.T) {
		again, err := accounts.ChooseName(ctx, "henry")
		require.NoError(t, err)
		assert.Equal(t, guest.ID, again.ID)
	})

	registered, err := accounts.RegisterGuest(ctx, guest.ID, nil, "hunter2longer", "hunter2longer")
	require.NoError(t, err)
	assert.Equal(t, guest.ID, registered.ID)
	assert.True(t, registered.IsRegistered())

	t.Run("choose name refuses a registered name", func(t *testing.T) {
		_, err := accounts.ChooseName(ctx, "henry")
		assert.ErrorIs(t, err, service.ErrPasswordRequired)
	})

	t.Run("login works after registration", func(t *testing.T) {
		user, err := accounts.Login(ctx, "henry", "hunter2longer")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})
}
