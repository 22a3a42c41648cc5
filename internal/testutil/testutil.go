package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/vytor/dailyalbum/internal/db"
	"github.com/vytor/dailyalbum/internal/models"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// It is limited to one connection, so every caller sees the same database and
// transactions are serialized the same way as in production.
func NewTestDB(t *testing.T) *sql.DB {
	sqlDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on&_txlock=immediate&_busy_timeout=5000")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.ApplyMigrations(context.Background(), sqlDB))
	return sqlDB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// InsertChallenge stores a challenge for date and returns it.
func InsertChallenge(t *testing.T, sqlDB *sql.DB, date, targetEntityID string, maxAttempts int) models.Challenge {
	c := models.Challenge{
		ID:             uuid.NewString(),
		Date:           date,
		TargetEntityID: targetEntityID,
		MaxAttempts:    maxAttempts,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := sqlDB.Exec(
		`INSERT INTO challenges (id, challenge_date, target_entity_id, max_attempts, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Date, c.TargetEntityID, c.MaxAttempts, c.CreatedAt,
	)
	require.NoError(t, err)
	return c
}

// FixedClock returns a clock that always reports at.
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
