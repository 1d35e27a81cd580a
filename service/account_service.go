package service

import (
	"context"
	"errors"
	"fmt"

	"betbook/config"
	"betbook/events"
	"betbook/models"

	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 2
	minPasswordLength = 7
)

type accountService struct {
	uowFactory UnitOfWorkFactory
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory) AccountService {
	return &accountService{
		uowFactory: uowFactory,
	}
}

// GetUser loads a user by id. Stale session bindings resolve to (nil, nil)
// and the caller treats the session as anonymous.
func (s *accountService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return user, nil
}

// ChooseName resolves a username to a guest identity. Names held by
// registered accounts are refused so a session can never be bound to an
// account without its password.
func (s *accountService) ChooseName(ctx context.Context, username string) (*models.User, error) {
	if len(username) < minUsernameLength {
		return nil, ErrUsernameTooShort
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}
	if user != nil {
		if user.IsRegistered() {
			return nil, ErrPasswordRequired
		}
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return user, nil
	}

	points := config.Get().StartingBalance
	user, err = uow.UserRepository().Create(ctx, username, nil, nil, points)
	if err != nil {
		return nil, fmt.Errorf("failed to create guest user: %w", err)
	}

	uow.EventBus().Publish(events.UserCreatedEvent{
		UserID:        user.ID,
		Username:      user.Username,
		Registered:    false,
		InitialPoints: points,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return user, nil
}

// Login verifies a registered user's password. Guests and unknown names get
// ErrUserNotFound so the caller can fall back to the guest flow.
func (s *accountService) Login(ctx context.Context, username, password string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}
	if user == nil || !user.IsRegistered() {
		return nil, ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrIncorrectPassword
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return user, nil
}

// RegisterGuest promotes an existing guest to a registered account. The
// user's id and accumulated points carry over unchanged.
func (s *accountService) RegisterGuest(ctx context.Context, guestID int64, email *string, password, confirm string) (*models.User, error) {
	if err := validatePassword(password, confirm); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	guest, err := uow.UserRepository().GetByID(ctx, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guest user: %w", err)
	}
	if guest == nil {
		return nil, ErrUserNotFound
	}
	if guest.IsRegistered() {
		return nil, ErrUsernameTaken
	}

	user, err := uow.UserRepository().Promote(ctx, guestID, email, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to promote guest: %w", err)
	}

	uow.EventBus().Publish(events.UserRegisteredEvent{
		UserID:   user.ID,
		Username: user.Username,
		Points:   user.Points,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return user, nil
}

// RegisterNew creates a registered account for a username that was never
// persisted as a guest. A concurrent claim of the same name surfaces as
// ErrUsernameTaken from the storage layer's uniqueness constraint.
func (s *accountService) RegisterNew(ctx context.Context, username string, email *string, password, confirm string) (*models.User, error) {
	if len(username) < minUsernameLength {
		return nil, ErrUsernameTooShort
	}
	if err := validatePassword(password, confirm); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	points := config.Get().StartingBalance
	user, err := uow.UserRepository().Create(ctx, username, email, &hash, points)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	uow.EventBus().Publish(events.UserCreatedEvent{
		UserID:        user.ID,
		Username:      user.Username,
		Registered:    true,
		InitialPoints: points,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return user, nil
}

func validatePassword(password, confirm string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
