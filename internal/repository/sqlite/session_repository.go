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

var sessionColumns = []string{
	"id", "challenge_id", "player_id", "status", "attempt_count",
	"max_attempts", "won", "completed_at", "created_at",
}

var guessColumns = []string{
	"id", "session_id", "guess_number", "guessed_entity_id", "is_correct", "guessed_at",
}

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository implementation
func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	return getSession(ctx, r.db, squirrel.Eq{"id": id})
}

func (r *sessionRepository) ListGuesses(ctx context.Context, sessionID string) ([]models.Guess, error) {
	return listGuesses(ctx, r.db, sessionID)
}

func (r *sessionRepository) StartSession(ctx context.Context, s models.Session) (*models.Session, bool, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("starting session: challenge_id=%s, player_id=%s", s.ChallengeID, s.PlayerID)

	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var stored *models.Session
	var created bool
	err := tx(ctx, r.db, func(t *sql.Tx) error {
		query, args, err := sqlBuilder.Insert("game_sessions").
			Columns("id", "challenge_id", "player_id", "status", "attempt_count", "max_attempts", "won", "created_at").
			Values(s.ID, s.ChallengeID, s.PlayerID, string(models.StatusInProgress), 0, s.MaxAttempts, false, createdAt).
			Suffix("ON CONFLICT (challenge_id, player_id) DO NOTHING").
			ToSql()
		if err != nil {
			return err
		}

		res, err := t.ExecContext(ctx, query, args...)
		if err != nil {
			log.Error("failed to insert session: %v", err)
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n == 1

		if created {
			query, args, err := sqlBuilder.Update("challenges").
				Set("total_plays", squirrel.Expr("total_plays + 1")).
				Where(squirrel.Eq{"id": s.ChallengeID}).
				ToSql()
			if err != nil {
				return err
			}
			res, err := t.ExecContext(ctx, query, args...)
			if err != nil {
				log.Error("failed to count play: %v", err)
				return err
			}
			if n, err := res.RowsAffected(); err != nil {
				return err
			} else if n == 0 {
				return repository.ErrStaleWrite
			}
		}

		stored, err = getSession(ctx, t, squirrel.Eq{"challenge_id": s.ChallengeID, "player_id": s.PlayerID})
		if err != nil {
			return err
		}
		if stored == nil {
			return errors.New("session vanished after insert")
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	log.Debug("session ready: id=%s, created=%t", stored.ID, created)
	return stored, created, nil
}

func (r *sessionRepository) InTx(ctx context.Context, fn func(repository.SessionTx) error) error {
	return tx(ctx, r.db, func(t *sql.Tx) error {
		return fn(&sessionTx{q: t})
	})
}

type sessionTx struct {
	q queryer
}

func (t *sessionTx) GetSession(ctx context.Context, id string) (*models.Session, error) {
	return getSession(ctx, t.q, squirrel.Eq{"id": id})
}

func (t *sessionTx) ListGuesses(ctx context.Context, sessionID string) ([]models.Guess, error) {
	return listGuesses(ctx, t.q, sessionID)
}

func (t *sessionTx) GetChallenge(ctx context.Context, id string) (*models.Challenge, error) {
	return getChallenge(ctx, t.q, squirrel.Eq{"id": id})
}

func (t *sessionTx) InsertGuess(ctx context.Context, g models.Guess) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("inserting guess: session_id=%s, guess_number=%d, skip=%t", g.SessionID, g.GuessNumber, g.IsSkip())

	query, args, err := sqlBuilder.Insert("guesses").
		Columns(guessColumns...).
		Values(g.ID, g.SessionID, g.GuessNumber, nullableString(g.GuessedEntityID), g.IsCorrect, g.GuessedAt).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}

	if _, err := t.q.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to insert guess: %v", err)
		return mapConstraintError(err)
	}
	return nil
}

func (t *sessionTx) UpdateSession(ctx context.Context, s models.Session, prevAttemptCount int) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("updating session: id=%s, status=%s, attempt_count=%d", s.ID, s.Status, s.AttemptCount)

	var completedAt any
	if s.CompletedAt != nil {
		completedAt = *s.CompletedAt
	}

	query, args, err := sqlBuilder.Update("game_sessions").
		Set("status", string(s.Status)).
		Set("attempt_count", s.AttemptCount).
		Set("won", s.Won).
		Set("completed_at", completedAt).
		Where(squirrel.Eq{
			"id":            s.ID,
			"status":        string(models.StatusInProgress),
			"attempt_count": prevAttemptCount,
		}).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}

	res, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update session: %v", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		log.Warn("session changed underneath update: id=%s", s.ID)
		return repository.ErrStaleWrite
	}
	return nil
}

func (t *sessionTx) UpdateChallengeStats(ctx context.Context, c models.Challenge) error {
	return updateChallengeStats(ctx, t.q, c)
}

func getSession(ctx context.Context, q queryer, where squirrel.Eq) (*models.Session, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")

	query, args, err := sqlBuilder.Select(sessionColumns...).From("game_sessions").Where(where).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	var s models.Session
	var completedAt sql.NullTime
	err = q.QueryRowContext(ctx, query, args...).Scan(
		&s.ID, &s.ChallengeID, &s.PlayerID, &s.Status, &s.AttemptCount,
		&s.MaxAttempts, &s.Won, &completedAt, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("session not found: %v", where)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get session: %v", err)
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	return &s, nil
}

func listGuesses(ctx context.Context, q queryer, sessionID string) ([]models.Guess, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("fetching guesses: session_id=%s", sessionID)

	query, args, err := sqlBuilder.Select(guessColumns...).
		From("guesses").
		Where(squirrel.Eq{"session_id": sessionID}).
		OrderBy("guess_number").
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query guesses: %v", err)
		return nil, err
	}
	defer rows.Close()

	var guesses []models.Guess
	for rows.Next() {
		var g models.Guess
		var entityID sql.NullString
		if err := rows.Scan(&g.ID, &g.SessionID, &g.GuessNumber, &entityID, &g.IsCorrect, &g.GuessedAt); err != nil {
			log.Error("failed to scan guess: %v", err)
			return nil, err
		}
		if entityID.Valid {
			v := entityID.String
			g.GuessedEntityID = &v
		}
		guesses = append(guesses, g)
	}
	log.Debug("found %d guesses", len(guesses))
	return guesses, rows.Err()
}
