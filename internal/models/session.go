package models

import "time"

type SessionStatus string

const (
	StatusInProgress SessionStatus = "IN_PROGRESS"
	StatusWon        SessionStatus = "WON"
	StatusLost       SessionStatus = "LOST"
)

// Terminal reports whether no further transitions are allowed.
func (s SessionStatus) Terminal() bool {
	return s == StatusWon || s == StatusLost
}

// Session is one player's single attempt at one challenge.
type Session struct {
	ID           string        `json:"id"`
	ChallengeID  string        `json:"challenge_id"`
	PlayerID     string        `json:"player_id"`
	Status       SessionStatus `json:"status"`
	AttemptCount int           `json:"attempt_count"`
	MaxAttempts  int           `json:"max_attempts"` // captured from the challenge at creation
	Won          bool          `json:"won"`
	CompletedAt  *time.Time    `json:"completed_at"`
	CreatedAt    time.Time     `json:"created_at"`
}

// AttemptsLeft is the number of guesses or skips still accepted.
func (s Session) AttemptsLeft() int {
	if s.Status.Terminal() || s.AttemptCount >= s.MaxAttempts {
		return 0
	}
	return s.MaxAttempts - s.AttemptCount
}

// Guess is one numbered action within a session. A nil GuessedEntityID is a skip.
type Guess struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"session_id"`
	GuessNumber     int       `json:"guess_number"`
	GuessedEntityID *string   `json:"guessed_entity_id"`
	IsCorrect       bool      `json:"is_correct"`
	GuessedAt       time.Time `json:"guessed_at"`
}

func (g Guess) IsSkip() bool {
	return g.GuessedEntityID == nil
}

// SessionDetail is a session with its ordered history and challenge.
// RevealedTarget is set only once the session is terminal.
type SessionDetail struct {
	Session        Session         `json:"session"`
	Guesses        []Guess         `json:"guesses"`
	Challenge      Challenge       `json:"challenge"`
	RevealedTarget *RevealedTarget `json:"revealed_target,omitempty"`
}

// StartResult is returned by StartOrResume.
type StartResult struct {
	Session   Session   `json:"session"`
	Challenge Challenge `json:"challenge"`
	IsNew     bool      `json:"is_new"`
}

// GuessResult is returned by SubmitGuess and SubmitSkip.
type GuessResult struct {
	Guess          Guess           `json:"guess"`
	Entity         *EntitySummary  `json:"entity,omitempty"`
	Session        Session         `json:"session"`
	IsGameOver     bool            `json:"is_game_over"`
	RevealedTarget *RevealedTarget `json:"revealed_target,omitempty"`
}

// RevealedTarget is only populated once a session is terminal.
type RevealedTarget struct {
	EntityID string         `json:"entity_id"`
	Summary  *EntitySummary `json:"summary,omitempty"`
}
