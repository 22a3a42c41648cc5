package models

import "time"

// DateLayout is the calendar-date format used to key challenges.
const DateLayout = "2006-01-02"

// Challenge is one day's puzzle with its rolling counters.
type Challenge struct {
	ID             string    `json:"id"`
	Date           string    `json:"date"`
	TargetEntityID string    `json:"-"`
	MaxAttempts    int       `json:"max_attempts"`
	TotalPlays     int       `json:"total_plays"`
	TotalWins      int       `json:"total_wins"`
	AvgAttempts    *float64  `json:"avg_attempts"` // nil until the first win
	CreatedAt      time.Time `json:"created_at"`
}

// ChallengeStats is the public view of a challenge's aggregates.
type ChallengeStats struct {
	ChallengeID string   `json:"challenge_id"`
	Date        string   `json:"date"`
	MaxAttempts int      `json:"max_attempts"`
	TotalPlays  int      `json:"total_plays"`
	TotalWins   int      `json:"total_wins"`
	AvgAttempts *float64 `json:"avg_attempts"`
	WinRate     float64  `json:"win_rate"`
}
