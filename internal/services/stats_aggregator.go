package services

import (
	"context"
	"fmt"

	"github.com/vytor/dailyalbum/internal/game"
	"github.com/vytor/dailyalbum/internal/logger"
	"github.com/vytor/dailyalbum/internal/repository"
)

// recordWin folds a winning attempt count into the challenge row. It must run
// inside the transaction that completed the session; the row is re-read there
// so concurrent winners never overwrite each other's update.
func recordWin(ctx context.Context, tx repository.SessionTx, challengeID string, attemptsUsed int) error {
	log := logger.FromContext(ctx).WithPrefix("stats")

	current, err := tx.GetChallenge(ctx, challengeID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("challenge %s disappeared during win update", challengeID)
	}

	updated := game.RecordWin(*current, attemptsUsed)
	if err := tx.UpdateChallengeStats(ctx, updated); err != nil {
		return err
	}

	log.Debug("win recorded: challenge_id=%s, total_wins=%d, avg_attempts=%.3f",
		challengeID, updated.TotalWins, *updated.AvgAttempts)
	return nil
}
