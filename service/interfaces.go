package service

import (
	"context"

	"betbook/events"
	"betbook/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by id, or (nil, nil) when absent
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByUsername retrieves a user by username, or (nil, nil) when absent
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Create creates a new user. Email and passwordHash are nil for guests.
	// Returns ErrUsernameTaken when the username is already claimed.
	Create(ctx context.Context, username string, email, passwordHash *string, points int64) (*models.User, error)

	// Promote sets email and password hash on a guest user, preserving id and
	// points. Fails when the user is already registered.
	Promote(ctx context.Context, id int64, email *string, passwordHash string) (*models.User, error)

	// AddPoints credits a user's balance atomically
	AddPoints(ctx context.Context, id int64, amount int64) error

	// DeductPoints debits a user's balance atomically, returning
	// ErrInsufficientBalance when points would go negative
	DeductPoints(ctx context.Context, id int64, amount int64) error
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// GetByID retrieves a bet by id, or (nil, nil) when absent
	GetByID(ctx context.Context, id int64) (*models.Bet, error)

	// ListActive returns all active bets, newest first
	ListActive(ctx context.Context) ([]*models.Bet, error)

	// Create creates a new bet
	Create(ctx context.Context, bet *models.Bet) error

	// SetActive toggles a bet's active flag
	SetActive(ctx context.Context, id int64, active bool) error
}

// ParticipationRepository defines the interface for wager records
type ParticipationRepository interface {
	// Create records a participation and fills in its id and placement time
	Create(ctx context.Context, participation *models.BetParticipation) error

	// GetByUser returns a user's participations joined with bet titles and
	// declared results, newest first
	GetByUser(ctx context.Context, userID int64) ([]*models.ParticipationEntry, error)

	// GetByBet returns all participations on a bet
	GetByBet(ctx context.Context, betID int64) ([]*models.BetParticipation, error)
}

// ResultRepository defines the interface for declared results
type ResultRepository interface {
	// Create records a result, returning ErrResultDeclared when the bet
	// already has one
	Create(ctx context.Context, result *models.BetResult) error

	// GetByBet returns the bet's declared result, or (nil, nil) when absent
	GetByBet(ctx context.Context, betID int64) (*models.BetResult, error)
}

// EventPublisher publishes events that are held until the surrounding
// transaction commits
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork bundles the repositories over one database transaction
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() UserRepository
	BetRepository() BetRepository
	ParticipationRepository() ParticipationRepository
	ResultRepository() ResultRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// WagerService defines the interface for wager placement
type WagerService interface {
	// PlaceWager validates and atomically records a wager, debiting the
	// user's points
	PlaceWager(ctx context.Context, userID, betID int64, option string, amount int64) (*models.BetParticipation, error)
}

// AccountService defines the interface for identity workflows
type AccountService interface {
	// GetUser loads a user by id, or (nil, nil) when absent; used to resolve
	// session bindings
	GetUser(ctx context.Context, id int64) (*models.User, error)

	// ChooseName binds to an existing guest or creates a new one. Registered
	// usernames are refused with ErrPasswordRequired.
	ChooseName(ctx context.Context, username string) (*models.User, error)

	// Login verifies a registered user's password
	Login(ctx context.Context, username, password string) (*models.User, error)

	// RegisterGuest promotes an existing guest user, preserving id and points
	RegisterGuest(ctx context.Context, guestID int64, email *string, password, confirm string) (*models.User, error)

	// RegisterNew creates a registered user for a name never persisted as a
	// guest
	RegisterNew(ctx context.Context, username string, email *string, password, confirm string) (*models.User, error)
}

// SettlementService defines the interface for declaring results
type SettlementService interface {
	// DeclareResult records the winning option and credits all winners
	DeclareResult(ctx context.Context, betID int64, winningOption string) (*models.BetResult, error)
}

// HistoryService defines the interface for read-side queries
type HistoryService interface {
	// ListActiveBets returns the bets open for wagering
	ListActiveBets(ctx context.Context) ([]*models.Bet, error)

	// UserHistory returns a user's participations with settlement status
	UserHistory(ctx context.Context, userID int64) ([]*models.ParticipationEntry, error)
}
