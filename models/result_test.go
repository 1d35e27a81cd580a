package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayout(t *testing.T) {
	result := &BetResult{BetID: 7, WinningOption: "Yes"}

	t.Run("winners receive twice their stake", func(t *testing.T) {
		participations := []*BetParticipation{
			{UserID: 1, BetID: 7, Option: "Yes", Amount: 200},
			{UserID: 2, BetID: 7, Option: "No", Amount: 500},
			{UserID: 3, BetID: 7, Option: "Yes", Amount: 50},
		}

		deltas := Payout(participations, result)

		assert.Equal(t, map[int64]int64{1: 400, 3: 100}, deltas)
	})

	t.Run("repeat wagers by one user accumulate", func(t *testing.T) {
		participations := []*BetParticipation{
			{UserID: 1, BetID: 7, Option: "Yes", Amount: 100},
			{UserID: 1, BetID: 7, Option: "Yes", Amount: 300},
		}

		deltas := Payout(participations, result)

		assert.Equal(t, map[int64]int64{1: 800}, deltas)
	})

	t.Run("participations on other bets are ignored", func(t *testing.T) {
		participations := []*BetParticipation{
			{UserID: 1, BetID: 8, Option: "Yes", Amount: 100},
		}

		deltas := Payout(participations, result)

		assert.Empty(t, deltas)
	})

	t.Run("no participations yields empty map", func(t *testing.T) {
		assert.Empty(t, Payout(nil, result))
	})
}

func TestUser_IsRegistered(t *testing.T) {
	hash := "$2a$10$abcdefghijklmnopqrstuv"
	empty := ""

	assert.True(t, (&User{PasswordHash: &hash}).IsRegistered())
	assert.False(t, (&User{PasswordHash: nil}).IsRegistered())
	assert.False(t, (&User{PasswordHash: &empty}).IsRegistered())
}
