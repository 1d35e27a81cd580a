package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"betbook/database"
	"betbook/models"
	"betbook/service"
)

// UserRepository implements the service.UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `id, username, email, password_hash, points, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Points,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return user, nil
}

// Create creates a new user. The username uniqueness constraint resolves
// races between concurrent signups.
func (r *UserRepository) Create(ctx context.Context, username string, email, passwordHash *string, points int64) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, points)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, username, email, passwordHash, points))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, service.ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user %q: %w", username, err)
	}
	return user, nil
}

// Promote registers a guest user in place, keeping id and points. The
// password_hash IS NULL guard makes promotion a no-op race loser when the
// account was registered concurrently.
func (r *UserRepository) Promote(ctx context.Context, id int64, email *string, passwordHash string) (*models.User, error) {
	query := `
		UPDATE users
		SET email = $2, password_hash = $3, updated_at = NOW()
		WHERE id = $1 AND (password_hash IS NULL OR password_hash = '')
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, id, email, passwordHash))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, service.ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to promote user %d: %w", id, mapConflict(err))
	}
	if user == nil {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check user %d: %w", id, err)
		}
		if existing == nil {
			return nil, service.ErrUserNotFound
		}
		return nil, service.ErrUsernameTaken
	}
	return user, nil
}

// AddPoints credits a user's balance atomically
func (r *UserRepository) AddPoints(ctx context.Context, id int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET points = points + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to add points for user %d: %w", id, mapConflict(err))
	}
	if result.RowsAffected() == 0 {
		return service.ErrUserNotFound
	}
	return nil
}

// DeductPoints debits a user's balance atomically. The points >= amount
// guard is what keeps a balance from ever going negative under concurrent
// wagers.
func (r *UserRepository) DeductPoints(ctx context.Context, id int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET points = points - $1, updated_at = NOW()
		WHERE id = $2 AND points >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, id)
	if err != nil {
		return fmt.Errorf("failed to deduct points for user %d: %w", id, mapConflict(err))
	}
	if result.RowsAffected() == 0 {
		user, err := r.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check user %d: %w", id, err)
		}
		if user == nil {
			return service.ErrUserNotFound
		}
		return service.ErrInsufficientBalance
	}
	return nil
}
