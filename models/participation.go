package models

import (
	"time"
)

// BetParticipation records one user's wager on one occurrence of a bet.
// Created exclusively by the wager workflow and immutable afterwards.
type BetParticipation struct {
	ID       int64     `db:"id"`
	UserID   int64     `db:"user_id"`
	BetID    int64     `db:"bet_id"`
	Option   string    `db:"option"`
	Amount   int64     `db:"amount"`
	PlacedAt time.Time `db:"placed_at"`
}

// ParticipationEntry is a participation joined with its bet and any declared
// result, as shown in a user's bet history.
type ParticipationEntry struct {
	Participation BetParticipation
	BetTitle      string
	// WinningOption is nil while the occurrence is unsettled.
	WinningOption *string
}

// Won reports whether the entry's wager matched a declared result.
func (e *ParticipationEntry) Won() bool {
	return e.WinningOption != nil && *e.WinningOption == e.Participation.Option
}

// Settled reports whether a result has been declared for the entry's bet.
func (e *ParticipationEntry) Settled() bool {
	return e.WinningOption != nil
}
