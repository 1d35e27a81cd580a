package service

import "errors"

// Workflow errors. All of these are expected, user-recoverable conditions;
// handlers match them with errors.Is and turn them into messages. Anything
// else coming out of a service is an infrastructure failure.
var (
	// Wager validation, in the order the workflow checks them.
	ErrBetNotFound         = errors.New("bet not found")
	ErrBetInactive         = errors.New("bet is not active")
	ErrInvalidOption       = errors.New("invalid betting option")
	ErrInvalidAmount       = errors.New("wager must be a positive number")
	ErrInsufficientBalance = errors.New("insufficient points balance")

	// Account and identity.
	ErrUsernameTooShort  = errors.New("username must be at least 2 characters")
	ErrPasswordTooShort  = errors.New("password must be at least 7 characters")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrPasswordRequired  = errors.New("username belongs to a registered account")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrUserNotFound      = errors.New("user not found")

	// Settlement.
	ErrResultDeclared = errors.New("result already declared for this bet")

	// Transient conflict between concurrent transactions. The whole workflow
	// was rolled back and may be retried once by the caller.
	ErrConcurrencyConflict = errors.New("conflicting concurrent update")
)
