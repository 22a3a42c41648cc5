package game

import "github.com/vytor/dailyalbum/internal/models"

// Outcome is the session state an accepted action leads to.
type Outcome struct {
	Status     models.SessionStatus
	IsGameOver bool
}

// Resolve maps an accepted action to the session's next status.
// A correct guess wins even on the last allowed attempt.
func Resolve(isCorrect bool, newAttemptCount, maxAttempts int) Outcome {
	switch {
	case isCorrect:
		return Outcome{Status: models.StatusWon, IsGameOver: true}
	case newAttemptCount >= maxAttempts:
		return Outcome{Status: models.StatusLost, IsGameOver: true}
	default:
		return Outcome{Status: models.StatusInProgress}
	}
}
