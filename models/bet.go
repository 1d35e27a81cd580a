package models

import (
	"time"
)

// Weekday names indexed the way bets store them: 0=Monday through 6=Sunday.
var WeekdayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// Bet represents a recurring weekly event users can wager on. Weekday is
// 0=Monday through 6=Sunday. Options is a non-empty set of distinct labels.
type Bet struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Weekday     int       `db:"weekday"`
	Options     []string  `db:"options"`
	ClosingTime string    `db:"closing_time"` // "15:04" wall clock on the event day
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}

// IsValidOption reports whether option is one of the bet's options.
func (b *Bet) IsValidOption(option string) bool {
	for _, o := range b.Options {
		if o == option {
			return true
		}
	}
	return false
}

// NextOccurrence returns the date of the bet's next occurrence on or after
// today. When today already is the bet's weekday the result is today, not a
// week later.
func (b *Bet) NextOccurrence(today time.Time) time.Time {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	// time.Weekday counts from Sunday; bets count from Monday.
	todayWeekday := (int(day.Weekday()) + 6) % 7
	delta := (b.Weekday - todayWeekday + 7) % 7
	return day.AddDate(0, 0, delta)
}

// ClosesAt combines the next occurrence with the bet's closing time of day.
// A malformed closing time yields midnight of the occurrence date.
func (b *Bet) ClosesAt(today time.Time) time.Time {
	occurrence := b.NextOccurrence(today)
	t, err := time.Parse("15:04", b.ClosingTime)
	if err != nil {
		return occurrence
	}
	return occurrence.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}
