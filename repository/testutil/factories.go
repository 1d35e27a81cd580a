package testutil

import (
	"time"

	"betbook/models"
)

// CreateTestGuest creates a guest user with default values
func CreateTestGuest(username string) *models.User {
	now := time.Now()
	return &models.User{
		Username:  username,
		Points:    1000,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestGuestWithPoints creates a guest user with a specific balance
func CreateTestGuestWithPoints(username string, points int64) *models.User {
	user := CreateTestGuest(username)
	user.Points = points
	return user
}

// CreateTestBet creates an active weekly bet with default values
func CreateTestBet(title string, options ...string) *models.Bet {
	if len(options) == 0 {
		options = []string{"yes", "no"}
	}
	return &models.Bet{
		Title:       title,
		Weekday:     4, // Friday
		Options:     options,
		ClosingTime: "18:00",
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
}

// CreateTestParticipation creates a participation on the given bet
func CreateTestParticipation(userID, betID int64, option string, amount int64) *models.BetParticipation {
	return &models.BetParticipation{
		UserID:   userID,
		BetID:    betID,
		Option:   option,
		Amount:   amount,
		PlacedAt: time.Now(),
	}
}
