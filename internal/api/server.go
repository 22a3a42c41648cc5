package api

import (
	"context"
	"time"

	"github.com/vytor/dailyalbum/internal/services"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	DailyService   services.DailyChallengeService
	DB             Pinger
	RequestTimeout time.Duration
}
