package game

import "github.com/vytor/dailyalbum/internal/models"

// RecordWin folds one winning attempt count into the challenge's counters
// using an incremental mean, so no per-session history is needed.
func RecordWin(challenge models.Challenge, attemptsUsed int) models.Challenge {
	newTotalWins := challenge.TotalWins + 1

	avg := float64(attemptsUsed)
	if challenge.TotalWins > 0 && challenge.AvgAttempts != nil {
		avg = (*challenge.AvgAttempts*float64(challenge.TotalWins) + float64(attemptsUsed)) / float64(newTotalWins)
	}

	challenge.TotalWins = newTotalWins
	challenge.AvgAttempts = &avg
	return challenge
}

// WinRate is wins over plays, or 0 before anyone has played.
func WinRate(challenge models.Challenge) float64 {
	if challenge.TotalPlays == 0 {
		return 0
	}
	return float64(challenge.TotalWins) / float64(challenge.TotalPlays)
}

// Stats builds the public aggregate view of a challenge.
func Stats(challenge models.Challenge) models.ChallengeStats {
	return models.ChallengeStats{
		ChallengeID: challenge.ID,
		Date:        challenge.Date,
		MaxAttempts: challenge.MaxAttempts,
		TotalPlays:  challenge.TotalPlays,
		TotalWins:   challenge.TotalWins,
		AvgAttempts: challenge.AvgAttempts,
		WinRate:     WinRate(challenge),
	}
}
