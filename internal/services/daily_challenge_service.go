package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/dailyalbum/internal/catalog"
	"github.com/vytor/dailyalbum/internal/errors"
	"github.com/vytor/dailyalbum/internal/game"
	"github.com/vytor/dailyalbum/internal/logger"
	"github.com/vytor/dailyalbum/internal/models"
	"github.com/vytor/dailyalbum/internal/repository"
)

// DailyChallengeService runs the daily guessing game for individual players.
type DailyChallengeService interface {
	StartOrResume(ctx context.Context, playerID string) (*models.StartResult, error)
	GetSession(ctx context.Context, sessionID, playerID string) (*models.SessionDetail, error)
	SubmitGuess(ctx context.Context, sessionID, playerID, candidateID string) (*models.GuessResult, error)
	SubmitSkip(ctx context.Context, sessionID, playerID string) (*models.GuessResult, error)
	GetTodaysStats(ctx context.Context) (*models.ChallengeStats, error)
}

type dailyChallengeService struct {
	challenges ChallengeProvider
	sessions   repository.SessionRepository
	entities   catalog.Client
	now        func() time.Time
}

// NewDailyChallengeService creates a DailyChallengeService. A nil now means time.Now.
func NewDailyChallengeService(challenges ChallengeProvider, sessions repository.SessionRepository, entities catalog.Client, now func() time.Time) DailyChallengeService {
	if now == nil {
		now = time.Now
	}
	return &dailyChallengeService{
		challenges: challenges,
		sessions:   sessions,
		entities:   entities,
		now:        now,
	}
}

func (s *dailyChallengeService) StartOrResume(ctx context.Context, playerID string) (*models.StartResult, error) {
	log := logger.FromContext(ctx).WithField("player_id", playerID)

	if strings.TrimSpace(playerID) == "" {
		return nil, errors.NewBadRequestError("player id is required")
	}

	challenge, err := s.challenges.TodaysChallenge(ctx)
	if err != nil {
		return nil, err
	}

	session, created, err := s.sessions.StartSession(ctx, models.Session{
		ID:          uuid.NewString(),
		ChallengeID: challenge.ID,
		PlayerID:    playerID,
		MaxAttempts: challenge.MaxAttempts,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		log.Error("failed to start session: %v", err)
		return nil, errors.NewInternalError(err)
	}

	if created {
		// The play was counted inside StartSession; reflect it without a second read.
		challenge.TotalPlays++
		log.Info("session started: id=%s, challenge=%s", session.ID, challenge.Date)
	} else {
		log.Debug("session resumed: id=%s, status=%s", session.ID, session.Status)
	}

	return &models.StartResult{
		Session:   *session,
		Challenge: *challenge,
		IsNew:     created,
	}, nil
}

func (s *dailyChallengeService) GetSession(ctx context.Context, sessionID, playerID string) (*models.SessionDetail, error) {
	log := logger.FromContext(ctx).WithField("session_id", sessionID)

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		log.Error("failed to load session: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if session == nil {
		return nil, errors.NewSessionNotFoundError(sessionID)
	}
	if session.PlayerID != playerID {
		return nil, errors.NewNotOwnerError(sessionID)
	}

	guesses, err := s.sessions.ListGuesses(ctx, sessionID)
	if err != nil {
		log.Error("failed to load guesses: %v", err)
		return nil, errors.NewInternalError(err)
	}

	challenge, err := s.challenges.Challenge(ctx, session.ChallengeID)
	if err != nil {
		return nil, err
	}

	detail := &models.SessionDetail{
		Session:   *session,
		Guesses:   guesses,
		Challenge: *challenge,
	}
	if session.Status.Terminal() {
		detail.RevealedTarget = s.reveal(ctx, challenge.TargetEntityID, nil)
	}
	return detail, nil
}

func (s *dailyChallengeService) SubmitGuess(ctx context.Context, sessionID, playerID, candidateID string) (*models.GuessResult, error) {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"session_id": sessionID,
		"entity_id":  candidateID,
	})

	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" {
		return nil, errors.NewBadRequestError("entity id is required")
	}

	// Resolved before the transaction so no network call holds the write lock.
	summary, err := s.entities.FetchEntitySummary(ctx, candidateID)
	if err != nil {
		log.Error("entity lookup failed: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if summary == nil {
		return nil, errors.NewEntityNotFoundError(candidateID)
	}

	result, err := s.submit(ctx, sessionID, playerID, &candidateID)
	if err != nil {
		return nil, err
	}
	result.Entity = summary
	if result.IsGameOver {
		var known *models.EntitySummary
		if result.Guess.IsCorrect {
			known = summary
		}
		result.RevealedTarget = s.reveal(ctx, result.RevealedTarget.EntityID, known)
	}
	return result, nil
}

func (s *dailyChallengeService) SubmitSkip(ctx context.Context, sessionID, playerID string) (*models.GuessResult, error) {
	result, err := s.submit(ctx, sessionID, playerID, nil)
	if err != nil {
		return nil, err
	}
	if result.IsGameOver {
		result.RevealedTarget = s.reveal(ctx, result.RevealedTarget.EntityID, nil)
	}
	return result, nil
}

// submit applies one guess, or a skip when candidateID is nil, as a single
// transaction. On game over the returned RevealedTarget carries only the id.
func (s *dailyChallengeService) submit(ctx context.Context, sessionID, playerID string, candidateID *string) (*models.GuessResult, error) {
	log := logger.FromContext(ctx).WithField("session_id", sessionID)

	var result models.GuessResult
	err := s.sessions.InTx(ctx, func(tx repository.SessionTx) error {
		session, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return errors.NewSessionNotFoundError(sessionID)
		}
		if session.PlayerID != playerID {
			return errors.NewNotOwnerError(sessionID)
		}

		history, err := tx.ListGuesses(ctx, sessionID)
		if err != nil {
			return err
		}
		if candidateID != nil {
			err = game.ValidateGuess(*session, history, *candidateID)
		} else {
			err = game.ValidateSkip(*session)
		}
		if err != nil {
			return err
		}

		challenge, err := tx.GetChallenge(ctx, session.ChallengeID)
		if err != nil {
			return err
		}
		if challenge == nil {
			return stderrors.New("session references a missing challenge")
		}

		isCorrect := candidateID != nil && *candidateID == challenge.TargetEntityID
		prevAttemptCount := session.AttemptCount
		newAttemptCount := prevAttemptCount + 1
		outcome := game.Resolve(isCorrect, newAttemptCount, session.MaxAttempts)
		now := s.now().UTC()

		guess := models.Guess{
			ID:              uuid.NewString(),
			SessionID:       sessionID,
			GuessNumber:     newAttemptCount,
			GuessedEntityID: candidateID,
			IsCorrect:       isCorrect,
			GuessedAt:       now,
		}
		if err := tx.InsertGuess(ctx, guess); err != nil {
			return err
		}

		updated := *session
		updated.AttemptCount = newAttemptCount
		updated.Status = outcome.Status
		updated.Won = outcome.Status == models.StatusWon
		if outcome.IsGameOver {
			updated.CompletedAt = &now
		}
		if err := tx.UpdateSession(ctx, updated, prevAttemptCount); err != nil {
			return err
		}

		if outcome.IsGameOver && isCorrect {
			if err := recordWin(ctx, tx, challenge.ID, newAttemptCount); err != nil {
				return err
			}
		}

		result = models.GuessResult{
			Guess:      guess,
			Session:    updated,
			IsGameOver: outcome.IsGameOver,
		}
		if outcome.IsGameOver {
			result.RevealedTarget = &models.RevealedTarget{EntityID: challenge.TargetEntityID}
		}
		return nil
	})
	if err != nil {
		if errors.IsDomain(err) {
			log.Debug("action rejected: %v", err)
			return nil, err
		}
		if stderrors.Is(err, repository.ErrStaleWrite) {
			log.Warn("session changed concurrently: %v", err)
		} else {
			log.Error("failed to apply action: %v", err)
		}
		return nil, errors.NewInternalError(err)
	}

	log.Info("action applied: guess_number=%d, skip=%t, status=%s",
		result.Guess.GuessNumber, result.Guess.IsSkip(), result.Session.Status)
	return &result, nil
}

// reveal builds the revealed target, fetching its summary unless known is
// already the target's. Lookup failures leave the summary empty.
func (s *dailyChallengeService) reveal(ctx context.Context, targetID string, known *models.EntitySummary) *models.RevealedTarget {
	revealed := &models.RevealedTarget{EntityID: targetID, Summary: known}
	if known != nil {
		return revealed
	}

	summary, err := s.entities.FetchEntitySummary(ctx, targetID)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to fetch target summary: %v", err)
		return revealed
	}
	revealed.Summary = summary
	return revealed
}

func (s *dailyChallengeService) GetTodaysStats(ctx context.Context) (*models.ChallengeStats, error) {
	challenge, err := s.challenges.TodaysChallenge(ctx)
	if err != nil {
		return nil, err
	}
	stats := game.Stats(*challenge)
	return &stats, nil
}
