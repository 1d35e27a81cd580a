package service

import (
	"context"

	"betbook/events"
	"betbook/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, username string, email, passwordHash *string, points int64) (*models.User, error) {
	args := m.Called(ctx, username, email, passwordHash, points)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Promote(ctx context.Context, id int64, email *string, passwordHash string) (*models.User, error) {
	args := m.Called(ctx, id, email, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) AddPoints(ctx context.Context, id int64, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DeductPoints(ctx context.Context, id int64, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bet), args.Error(1)
}

func (m *MockBetRepository) ListActive(ctx context.Context) ([]*models.Bet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) Create(ctx context.Context, bet *models.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) SetActive(ctx context.Context, id int64, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

// MockParticipationRepository is a mock implementation of ParticipationRepository
type MockParticipationRepository struct {
	mock.Mock
}

func (m *MockParticipationRepository) Create(ctx context.Context, participation *models.BetParticipation) error {
	args := m.Called(ctx, participation)
	return args.Error(0)
}

func (m *MockParticipationRepository) GetByUser(ctx context.Context, userID int64) ([]*models.ParticipationEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ParticipationEntry), args.Error(1)
}

func (m *MockParticipationRepository) GetByBet(ctx context.Context, betID int64) ([]*models.BetParticipation, error) {
	args := m.Called(ctx, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BetParticipation), args.Error(1)
}

// MockResultRepository is a mock implementation of ResultRepository
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Create(ctx context.Context, result *models.BetResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockResultRepository) GetByBet(ctx context.Context, betID int64) (*models.BetResult, error) {
	args := m.Called(ctx, betID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetResult), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// capturingPublisher records published events without expectations; handy
// when a test only cares that nothing was published.
type capturingPublisher struct {
	published []events.Event
}

func (p *capturingPublisher) Publish(event events.Event) {
	p.published = append(p.published, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// attached with SetRepositories rather than mocked call-by-call.
type MockUnitOfWork struct {
	mock.Mock

	userRepo          UserRepository
	betRepo           BetRepository
	participationRepo ParticipationRepository
	resultRepo        ResultRepository
	eventBus          EventPublisher
}

// SetRepositories attaches the repositories this unit of work hands out
func (m *MockUnitOfWork) SetRepositories(users UserRepository, bets BetRepository, participations ParticipationRepository, results ResultRepository) {
	m.userRepo = users
	m.betRepo = bets
	m.participationRepo = participations
	m.resultRepo = results
	m.eventBus = &capturingPublisher{}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) BetRepository() BetRepository {
	return m.betRepo
}

func (m *MockUnitOfWork) ParticipationRepository() ParticipationRepository {
	return m.participationRepo
}

func (m *MockUnitOfWork) ResultRepository() ResultRepository {
	return m.resultRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventBus == nil {
		m.eventBus = &capturingPublisher{}
	}
	return m.eventBus
}

// PublishedEvents returns events captured by the default event bus
func (m *MockUnitOfWork) PublishedEvents() []events.Event {
	if p, ok := m.eventBus.(*capturingPublisher); ok {
		return p.published
	}
	return nil
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
