package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/dailyalbum/internal/models"
	"github.com/vytor/dailyalbum/internal/repository"
)

// MockChallengeRepository is a mock implementation of repository.ChallengeRepository
type MockChallengeRepository struct {
	mock.Mock
}

func (m *MockChallengeRepository) Get(ctx context.Context, id string) (*models.Challenge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) GetByDate(ctx context.Context, date string) (*models.Challenge, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) Insert(ctx context.Context, challenge models.Challenge) error {
	args := m.Called(ctx, challenge)
	return args.Error(0)
}

// MockSessionRepository is a mock implementation of repository.SessionRepository.
// InTx hands Tx to the callback and returns the callback's error unless an
// error is configured on the InTx expectation.
type MockSessionRepository struct {
	mock.Mock
	Tx *MockSessionTx
}

func (m *MockSessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) ListGuesses(ctx context.Context, sessionID string) ([]models.Guess, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Guess), args.Error(1)
}

func (m *MockSessionRepository) StartSession(ctx context.Context, session models.Session) (*models.Session, bool, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Session), args.Bool(1), args.Error(2)
}

func (m *MockSessionRepository) InTx(ctx context.Context, fn func(repository.SessionTx) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m.Tx)
}

// MockSessionTx is a mock implementation of repository.SessionTx
type MockSessionTx struct {
	mock.Mock
}

func (m *MockSessionTx) GetSession(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionTx) ListGuesses(ctx context.Context, sessionID string) ([]models.Guess, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Guess), args.Error(1)
}

func (m *MockSessionTx) GetChallenge(ctx context.Context, id string) (*models.Challenge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challenge), args.Error(1)
}

func (m *MockSessionTx) InsertGuess(ctx context.Context, guess models.Guess) error {
	args := m.Called(ctx, guess)
	return args.Error(0)
}

func (m *MockSessionTx) UpdateSession(ctx context.Context, session models.Session, prevAttemptCount int) error {
	args := m.Called(ctx, session, prevAttemptCount)
	return args.Error(0)
}

func (m *MockSessionTx) UpdateChallengeStats(ctx context.Context, challenge models.Challenge) error {
	args := m.Called(ctx, challenge)
	return args.Error(0)
}
