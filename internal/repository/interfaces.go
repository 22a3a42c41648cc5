package repository

import (
	"context"
	"errors"

	"github.com/vytor/dailyalbum/internal/models"
)

var (
	// ErrDuplicate is returned when a write hits a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleWrite is returned when a guarded update matched no row.
	ErrStaleWrite = errors.New("record changed concurrently")
)

// ChallengeRepository handles challenge data access
type ChallengeRepository interface {
	Get(ctx context.Context, id string) (*models.Challenge, error)
	GetByDate(ctx context.Context, date string) (*models.Challenge, error)
	Insert(ctx context.Context, challenge models.Challenge) error
}

// SessionRepository handles game session and guess data access
type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListGuesses(ctx context.Context, sessionID string) ([]models.Guess, error)
	// StartSession inserts session unless its (challenge, player) pair already
	// has one, and counts the play on the challenge only when it inserted.
	// It returns the stored row and whether it was created by this call.
	StartSession(ctx context.Context, session models.Session) (*models.Session, bool, error)
	// InTx runs fn inside one write transaction; any error rolls back.
	InTx(ctx context.Context, fn func(SessionTx) error) error
}

// SessionTx is the transaction-scoped view used to apply a guess or skip.
type SessionTx interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListGuesses(ctx context.Context, sessionID string) ([]models.Guess, error)
	GetChallenge(ctx context.Context, id string) (*models.Challenge, error)
	InsertGuess(ctx context.Context, guess models.Guess) error
	// UpdateSession writes session only if it is still in progress at prevAttemptCount.
	UpdateSession(ctx context.Context, session models.Session, prevAttemptCount int) error
	UpdateChallengeStats(ctx context.Context, challenge models.Challenge) error
}
