// Package game holds the pure rules of the daily challenge: which actions are
// legal, what status an action leads to, and how winning attempts feed the
// challenge average. Nothing here performs I/O.
package game

import (
	"github.com/vytor/dailyalbum/internal/errors"
	"github.com/vytor/dailyalbum/internal/models"
)

// ValidateGuess decides whether candidateID may be submitted as the next guess.
// Checks run in order and the first failure is returned; nil means valid.
func ValidateGuess(session models.Session, history []models.Guess, candidateID string) error {
	if err := ValidateSkip(session); err != nil {
		return err
	}
	for _, g := range history {
		if g.GuessedEntityID != nil && *g.GuessedEntityID == candidateID {
			return errors.NewDuplicateGuessError(candidateID)
		}
	}
	return nil
}

// ValidateSkip decides whether the session accepts another action at all.
// Skips carry no entity, so they never collide with earlier guesses.
func ValidateSkip(session models.Session) error {
	if session.Status != models.StatusInProgress {
		return errors.NewSessionAlreadyCompleteError(session.ID)
	}
	if session.AttemptCount >= session.MaxAttempts {
		return errors.NewMaxAttemptsExceededError(session.MaxAttempts)
	}
	return nil
}
