package models

import (
	"time"
)

// BetResult is the declared winning option for a bet occurrence. At most one
// result exists per bet.
type BetResult struct {
	ID            int64     `db:"id"`
	BetID         int64     `db:"bet_id"`
	WinningOption string    `db:"winning_option"`
	DeclaredAt    time.Time `db:"declared_at"`
}

// Payout computes the points credited to each user for a declared result.
// Stakes were already debited at placement time, so a winning participation
// pays back twice its amount (the stake plus equal winnings) and a losing
// one pays nothing. Users without winnings are absent from the map.
func Payout(participations []*BetParticipation, result *BetResult) map[int64]int64 {
	deltas := make(map[int64]int64)
	for _, p := range participations {
		if p.BetID != result.BetID {
			continue
		}
		if p.Option == result.WinningOption {
			deltas[p.UserID] += 2 * p.Amount
		}
	}
	return deltas
}
