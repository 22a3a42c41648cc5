package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/dailyalbum/internal/errors"
	"github.com/vytor/dailyalbum/internal/logger"
	"github.com/vytor/dailyalbum/internal/models"
	"github.com/vytor/dailyalbum/internal/repository"
)

// ChallengeProvider resolves and schedules daily challenges.
type ChallengeProvider interface {
	// Today is the calendar date, in the provider's location, challenges are keyed by.
	Today() string
	TodaysChallenge(ctx context.Context) (*models.Challenge, error)
	Challenge(ctx context.Context, id string) (*models.Challenge, error)
	Schedule(ctx context.Context, date, targetEntityID string, maxAttempts int) (*models.Challenge, error)
}

type challengeProvider struct {
	repo repository.ChallengeRepository
	loc  *time.Location
	now  func() time.Time
}

// NewChallengeProvider creates a ChallengeProvider. A nil loc means UTC and a
// nil now means time.Now.
func NewChallengeProvider(repo repository.ChallengeRepository, loc *time.Location, now func() time.Time) ChallengeProvider {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &challengeProvider{repo: repo, loc: loc, now: now}
}

func (p *challengeProvider) Today() string {
	return p.now().In(p.loc).Format(models.DateLayout)
}

func (p *challengeProvider) TodaysChallenge(ctx context.Context) (*models.Challenge, error) {
	log := logger.FromContext(ctx)
	date := p.Today()
	log.Debug("resolving challenge for %s", date)

	challenge, err := p.repo.GetByDate(ctx, date)
	if err != nil {
		log.Error("failed to load challenge: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if challenge == nil {
		return nil, errors.NewChallengeNotFoundError(date)
	}
	return challenge, nil
}

func (p *challengeProvider) Challenge(ctx context.Context, id string) (*models.Challenge, error) {
	challenge, err := p.repo.Get(ctx, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load challenge %s: %v", id, err)
		return nil, errors.NewInternalError(err)
	}
	if challenge == nil {
		return nil, errors.NewNotFoundError("challenge", id)
	}
	return challenge, nil
}

func (p *challengeProvider) Schedule(ctx context.Context, date, targetEntityID string, maxAttempts int) (*models.Challenge, error) {
	log := logger.FromContext(ctx)

	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, errors.NewValidationError("date", "must be formatted YYYY-MM-DD")
	}
	targetEntityID = strings.TrimSpace(targetEntityID)
	if targetEntityID == "" {
		return nil, errors.NewValidationError("target", "must not be empty")
	}
	if maxAttempts <= 0 {
		return nil, errors.NewValidationError("max_attempts", "must be positive")
	}

	challenge := models.Challenge{
		ID:             uuid.NewString(),
		Date:           date,
		TargetEntityID: targetEntityID,
		MaxAttempts:    maxAttempts,
		CreatedAt:      p.now().UTC(),
	}
	if err := p.repo.Insert(ctx, challenge); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.NewBadRequestError(fmt.Sprintf("a challenge is already scheduled for %s", date))
		}
		log.Error("failed to schedule challenge: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("scheduled challenge: id=%s, date=%s, max_attempts=%d", challenge.ID, date, maxAttempts)
	return &challenge, nil
}
