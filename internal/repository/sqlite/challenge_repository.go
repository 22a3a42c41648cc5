package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/dailyalbum/internal/logger"
	"github.com/vytor/dailyalbum/internal/models"
	"github.com/vytor/dailyalbum/internal/repository"
)

var challengeColumns = []string{
	"id", "challenge_date", "target_entity_id", "max_attempts",
	"total_plays", "total_wins", "avg_attempts", "created_at",
}

type challengeRepository struct {
	db *sql.DB
}

// NewChallengeRepository creates a new ChallengeRepository implementation
func NewChallengeRepository(db *sql.DB) repository.ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) Get(ctx context.Context, id string) (*models.Challenge, error) {
	return getChallenge(ctx, r.db, squirrel.Eq{"id": id})
}

func (r *challengeRepository) GetByDate(ctx context.Context, date string) (*models.Challenge, error) {
	return getChallenge(ctx, r.db, squirrel.Eq{"challenge_date": date})
}

func (r *challengeRepository) Insert(ctx context.Context, c models.Challenge) error {
	log := logger.FromContext(ctx).WithPrefix("challenge_repo")
	log.Debug("inserting challenge: date=%s, max_attempts=%d", c.Date, c.MaxAttempts)

	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query, args, err := sqlBuilder.Insert("challenges").
		Columns(challengeColumns...).
		Values(c.ID, c.Date, c.TargetEntityID, c.MaxAttempts, c.TotalPlays, c.TotalWins, nullableFloat(c.AvgAttempts), createdAt).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		err = mapConstraintError(err)
		if errors.Is(err, repository.ErrDuplicate) {
			log.Warn("challenge already scheduled: date=%s", c.Date)
		} else {
			log.Error("failed to insert challenge: %v", err)
		}
		return err
	}
	log.Debug("challenge inserted: id=%s", c.ID)
	return nil
}

func getChallenge(ctx context.Context, q queryer, where squirrel.Eq) (*models.Challenge, error) {
	log := logger.FromContext(ctx).WithPrefix("challenge_repo")

	query, args, err := sqlBuilder.Select(challengeColumns...).From("challenges").Where(where).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	var c models.Challenge
	var avg sql.NullFloat64
	err = q.QueryRowContext(ctx, query, args...).Scan(
		&c.ID, &c.Date, &c.TargetEntityID, &c.MaxAttempts,
		&c.TotalPlays, &c.TotalWins, &avg, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("challenge not found: %v", where)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get challenge: %v", err)
		return nil, err
	}
	if avg.Valid {
		v := avg.Float64
		c.AvgAttempts = &v
	}
	return &c, nil
}

func updateChallengeStats(ctx context.Context, q queryer, c models.Challenge) error {
	log := logger.FromContext(ctx).WithPrefix("challenge_repo")
	log.Debug("updating challenge stats: id=%s, total_wins=%d", c.ID, c.TotalWins)

	query, args, err := sqlBuilder.Update("challenges").
		Set("total_wins", c.TotalWins).
		Set("avg_attempts", nullableFloat(c.AvgAttempts)).
		Where(squirrel.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update challenge stats: %v", err)
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return repository.ErrStaleWrite
	}
	return nil
}
