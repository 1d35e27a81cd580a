package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBet_NextOccurrence(t *testing.T) {
	// 2024-01-03 is a Wednesday (weekday index 2).
	wednesday := time.Date(2024, 1, 3, 15, 30, 0, 0, time.UTC)

	t.Run("same weekday returns today, not next week", func(t *testing.T) {
		bet := &Bet{Weekday: 2}
		got := bet.NextOccurrence(wednesday)
		assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("earlier weekday wraps to next week", func(t *testing.T) {
		// Monday(0) seen from Wednesday(2): (0-2+7)%7 = 5 days out.
		bet := &Bet{Weekday: 0}
		got := bet.NextOccurrence(wednesday)
		assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("later weekday stays within the week", func(t *testing.T) {
		bet := &Bet{Weekday: 5} // Saturday
		got := bet.NextOccurrence(wednesday)
		assert.Equal(t, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("result always lands on the configured weekday", func(t *testing.T) {
		for betDay := 0; betDay < 7; betDay++ {
			bet := &Bet{Weekday: betDay}
			for offset := 0; offset < 7; offset++ {
				today := wednesday.AddDate(0, 0, offset)
				got := bet.NextOccurrence(today)

				gotWeekday := (int(got.Weekday()) + 6) % 7
				assert.Equal(t, betDay, gotWeekday,
					"bet weekday %d, today %s", betDay, today.Format("2006-01-02"))
				assert.False(t, got.Before(today.Truncate(24*time.Hour)),
					"occurrence must not be in the past")
			}
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		bet := &Bet{Weekday: 4}
		assert.Equal(t, bet.NextOccurrence(wednesday), bet.NextOccurrence(wednesday))
	})
}

func TestBet_ClosesAt(t *testing.T) {
	wednesday := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)

	t.Run("combines occurrence date and closing time", func(t *testing.T) {
		bet := &Bet{Weekday: 2, ClosingTime: "18:30"}
		got := bet.ClosesAt(wednesday)
		assert.Equal(t, time.Date(2024, 1, 3, 18, 30, 0, 0, time.UTC), got)
	})

	t.Run("malformed closing time falls back to midnight", func(t *testing.T) {
		bet := &Bet{Weekday: 2, ClosingTime: "whenever"}
		got := bet.ClosesAt(wednesday)
		assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), got)
	})
}

func TestBet_IsValidOption(t *testing.T) {
	bet := &Bet{
		Title:   "Show starts late",
		Options: []string{"Yes", "No", "Cancelled"},
	}

	tests := []struct {
		option string
		valid  bool
	}{
		{"Yes", true},
		{"No", true},
		{"Cancelled", true},
		{"yes", false}, // options are case-sensitive labels
		{"Maybe", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("option %q", tt.option), func(t *testing.T) {
			assert.Equal(t, tt.valid, bet.IsValidOption(tt.option))
		})
	}
}
