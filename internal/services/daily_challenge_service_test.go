package services

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/vytor/dailyalbum/internal/errors"
	"github.com/vytor/dailyalbum/internal/models"
	"github.com/vytor/dailyalbum/internal/repository/sqlite"
	"github.com/vytor/dailyalbum/internal/testutil"
	"github.com/vytor/dailyalbum/internal/testutil/mocks"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	today  = "2026-10-14"
	target = "album-target"
)

var fixedNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

type DailyChallengeSuite struct {
	suite.Suite
	db        *sql.DB
	catalog   *mocks.MockCatalogClient
	service   DailyChallengeService
	challenge models.Challenge
}

func (s *DailyChallengeSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.catalog = new(mocks.MockCatalogClient)
	s.catalog.On("FetchEntitySummary", mock.Anything, mock.AnythingOfType("string")).
		Return(func(_ context.Context, id string) *models.EntitySummary {
			if id == "unknown" {
				return nil
			}
			return &models.EntitySummary{ID: id, Title: "Title of " + id}
		}, nil)

	provider := NewChallengeProvider(sqlite.NewChallengeRepository(s.db), time.UTC, testutil.FixedClock(fixedNow))
	s.service = NewDailyChallengeService(provider, sqlite.NewSessionRepository(s.db), s.catalog, testutil.FixedClock(fixedNow))
	s.challenge = testutil.InsertChallenge(s.T(), s.db, today, target, 6)
}

func (s *DailyChallengeSuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *DailyChallengeSuite) useChallenge(maxAttempts int) {
	_, err := s.db.Exec(`DELETE FROM challenges`)
	s.Require().NoError(err)
	s.challenge = testutil.InsertChallenge(s.T(), s.db, today, target, maxAttempts)
}

func (s *DailyChallengeSuite) start(playerID string) models.Session {
	res, err := s.service.StartOrResume(context.Background(), playerID)
	s.Require().NoError(err)
	return res.Session
}

func (s *DailyChallengeSuite) loadChallenge() models.Challenge {
	var c models.Challenge
	var avg sql.NullFloat64
	err := s.db.QueryRow(`SELECT total_plays, total_wins, avg_attempts FROM challenges WHERE id = ?`, s.challenge.ID).
		Scan(&c.TotalPlays, &c.TotalWins, &avg)
	s.Require().NoError(err)
	if avg.Valid {
		c.AvgAttempts = &avg.Float64
	}
	return c
}

func (s *DailyChallengeSuite) countRows(query string, args ...any) int {
	var n int
	s.Require().NoError(s.db.QueryRow(query, args...).Scan(&n))
	return n
}

func (s *DailyChallengeSuite) assertCode(err error, code string) {
	s.T().Helper()
	s.Require().Error(err)
	appErr, ok := errors.As(err)
	s.Require().True(ok, "expected AppError, got %T: %v", err, err)
	s.Assert().Equal(code, appErr.Code)
}

// assertSessionInvariants checks the stored session against its guess rows.
func (s *DailyChallengeSuite) assertSessionInvariants(sessionID string) {
	var status string
	var attemptCount, maxAttempts int
	var won bool
	var completedAt sql.NullTime
	err := s.db.QueryRow(`SELECT status, attempt_count, max_attempts, won, completed_at FROM game_sessions WHERE id = ?`, sessionID).
		Scan(&status, &attemptCount, &maxAttempts, &won, &completedAt)
	s.Require().NoError(err)

	s.Assert().GreaterOrEqual(attemptCount, 0)
	s.Assert().LessOrEqual(attemptCount, maxAttempts)
	switch models.SessionStatus(status) {
	case models.StatusWon:
		s.Assert().True(won)
		s.Assert().True(completedAt.Valid)
	case models.StatusLost:
		s.Assert().False(won)
		s.Assert().True(completedAt.Valid)
	case models.StatusInProgress:
		s.Assert().False(won)
		s.Assert().False(completedAt.Valid)
	default:
		s.Failf("unexpected status", "status=%s", status)
	}

	rows, err := s.db.Query(`SELECT guess_number, guessed_entity_id FROM guesses WHERE session_id = ?`, sessionID)
	s.Require().NoError(err)
	defer rows.Close()

	var numbers []int
	seen := map[string]bool{}
	for rows.Next() {
		var n int
		var entity sql.NullString
		s.Require().NoError(rows.Scan(&n, &entity))
		numbers = append(numbers, n)
		if entity.Valid {
			s.Assert().False(seen[entity.String], "entity %s guessed twice", entity.String)
			seen[entity.String] = true
		}
	}
	s.Require().NoError(rows.Err())

	sort.Ints(numbers)
	s.Require().Len(numbers, attemptCount)
	for i, n := range numbers {
		s.Assert().Equal(i+1, n)
	}
}

func (s *DailyChallengeSuite) TestStartOrResume_NewSession() {
	res, err := s.service.StartOrResume(context.Background(), "p1")
	s.Require().NoError(err)

	s.Assert().True(res.IsNew)
	s.Assert().Equal(models.StatusInProgress, res.Session.Status)
	s.Assert().Equal(0, res.Session.AttemptCount)
	s.Assert().Equal(6, res.Session.MaxAttempts)
	s.Assert().Equal(s.challenge.ID, res.Challenge.ID)
	s.Assert().Equal(1, res.Challenge.TotalPlays)
	s.Assert().Equal(1, s.loadChallenge().TotalPlays)
}

func (s *DailyChallengeSuite) TestStartOrResume_Idempotent() {
	ctx := context.Background()

	first, err := s.service.StartOrResume(ctx, "p1")
	s.Require().NoError(err)
	second, err := s.service.StartOrResume(ctx, "p1")
	s.Require().NoError(err)

	s.Assert().Equal(first.Session.ID, second.Session.ID)
	s.Assert().False(second.IsNew)
	s.Assert().Equal(1, second.Challenge.TotalPlays)
	s.Assert().Equal(1, s.loadChallenge().TotalPlays)
}

func (s *DailyChallengeSuite) TestStartOrResume_ResumesInProgressState() {
	ctx := context.Background()
	session := s.start("p1")

	_, err := s.service.SubmitGuess(ctx, session.ID, "p1", "album-wrong")
	s.Require().NoError(err)

	res, err := s.service.StartOrResume(ctx, "p1")
	s.Require().NoError(err)
	s.Assert().False(res.IsNew)
	s.Assert().Equal(1, res.Session.AttemptCount)
}

func (s *DailyChallengeSuite) TestStartOrResume_NoChallengeToday() {
	_, err := s.db.Exec(`DELETE FROM challenges`)
	s.Require().NoError(err)

	_, err = s.service.StartOrResume(context.Background(), "p1")
	s.assertCode(err, errors.ErrCodeChallengeNotFound)
}

func (s *DailyChallengeSuite) TestStartOrResume_EmptyPlayer() {
	_, err := s.service.StartOrResume(context.Background(), "  ")
	s.assertCode(err, errors.ErrCodeBadRequest)
}

func (s *DailyChallengeSuite) TestScenarioA_WinOnSecondGuess() {
	ctx := context.Background()
	session := s.start("p1")

	first, err := s.service.SubmitGuess(ctx, session.ID, "p1", "album-wrong")
	s.Require().NoError(err)
	s.Assert().False(first.IsGameOver)
	s.Assert().False(first.Guess.IsCorrect)
	s.Assert().Nil(first.RevealedTarget)
	s.Require().NotNil(first.Entity)
	s.Assert().Equal("album-wrong", first.Entity.ID)

	second, err := s.service.SubmitGuess(ctx, session.ID, "p1", target)
	s.Require().NoError(err)
	s.Assert().True(second.IsGameOver)
	s.Assert().True(second.Guess.IsCorrect)
	s.Assert().Equal(2, second.Guess.GuessNumber)
	s.Assert().Equal(models.StatusWon, second.Session.Status)
	s.Assert().Equal(2, second.Session.AttemptCount)
	s.Assert().True(second.Session.Won)
	s.Require().NotNil(second.Session.CompletedAt)
	s.Require().NotNil(second.RevealedTarget)
	s.Assert().Equal(target, second.RevealedTarget.EntityID)
	s.Require().NotNil(second.RevealedTarget.Summary)
	s.Assert().Equal(target, second.RevealedTarget.Summary.ID)

	s.assertSessionInvariants(session.ID)
}

func (s *DailyChallengeSuite) TestScenarioB_LoseAfterMaxAttempts() {
	s.useChallenge(3)
	ctx := context.Background()
	session := s.start("p1")

	var last *models.GuessResult
	for i := 1; i <= 3; i++ {
		res, err := s.service.SubmitGuess(ctx, session.ID, "p1", fmt.Sprintf("album-%d", i))
		s.Require().NoError(err)
		s.Assert().Equal(i == 3, res.IsGameOver)
		last = res
	}

	s.Assert().Equal(models.StatusLost, last.Session.Status)
	s.Assert().Equal(3, last.Session.AttemptCount)
	s.Assert().False(last.Session.Won)
	s.Require().NotNil(last.RevealedTarget)
	s.Assert().Equal(target, last.RevealedTarget.EntityID)

	c := s.loadChallenge()
	s.Assert().Equal(0, c.TotalWins)
	s.Assert().Nil(c.AvgAttempts)
	s.assertSessionInvariants(session.ID)
}

func (s *DailyChallengeSuite) TestScenarioC_GuessAfterWinRejected() {
	ctx := context.Background()
	session := s.start("p1")

	for _, id := range []string{"album-1", "album-2", target} {
		_, err := s.service.SubmitGuess(ctx, session.ID, "p1", id)
		s.Require().NoError(err)
	}

	_, err := s.service.SubmitGuess(ctx, session.ID, "p1", "album-4")
	s.assertCode(err, errors.ErrCodeSessionAlreadyComplete)
	s.Assert().False(err.(*errors.AppError).Retryable())

	_, err = s.service.SubmitSkip(ctx, session.ID, "p1")
	s.assertCode(err, errors.ErrCodeSessionAlreadyComplete)

	s.Assert().Equal(3, s.countRows(`SELECT COUNT(*) FROM guesses WHERE session_id = ?`, session.ID))
	s.assertSessionInvariants(session.ID)
}

func (s *DailyChallengeSuite) TestScenarioD_DuplicateGuessRejected() {
	ctx := context.Background()
	session := s.start("p1")

	_, err := s.service.SubmitGuess(ctx, session.ID, "p1", "album-x")
	s.Require().NoError(err)

	_, err = s.service.SubmitGuess(ctx, session.ID, "p1", "album-x")
	s.assertCode(err, errors.ErrCodeDuplicateGuess)

	detail, err := s.service.GetSession(ctx, session.ID, "p1")
	s.Require().NoError(err)
	s.Assert().Equal(1, detail.Session.AttemptCount)
	s.Assert().Len(detail.Guesses, 1)
}

func (s *DailyChallengeSuite) TestScenarioE_RollingAverage() {
	ctx := context.Background()

	c := s.loadChallenge()
	s.Require().Equal(0, c.TotalWins)
	s.Require().Nil(c.AvgAttempts)

	win := func(playerID string, wrong int) {
		session := s.start(playerID)
		for i := 0; i < wrong; i++ {
			_, err := s.service.SubmitGuess(ctx, session.ID, playerID, fmt.Sprintf("album-%d", i))
			s.Require().NoError(err)
		}
		res, err := s.service.SubmitGuess(ctx, session.ID, playerID, target)
		s.Require().NoError(err)
		s.Require().Equal(models.StatusWon, res.Session.Status)
	}

	win("p1", 2)
	c = s.loadChallenge()
	s.Assert().Equal(1, c.TotalWins)
	s.Require().NotNil(c.AvgAttempts)
	s.Assert().InDelta(3.0, *c.AvgAttempts, 1e-9)

	win("p2", 4)
	c = s.loadChallenge()
	s.Assert().Equal(2, c.TotalWins)
	s.Require().NotNil(c.AvgAttempts)
	s.Assert().InDelta(4.0, *c.AvgAttempts, 1e-9)
	s.Assert().Equal(2, c.TotalPlays)
}

func (s *DailyChallengeSuite) TestScenarioF_ConcurrentStart() {
	const callers = 8
	ids := make([]string, callers)
	newCount := 0
	var mu sync.Mutex

	var g errgroup.Group
	for i := 0; i < callers; i++ {
		i := i
		g.Go(func() error {
			res, err := s.service.StartOrResume(context.Background(), "p-race")
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			ids[i] = res.Session.ID
			if res.IsNew {
				newCount++
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	for _, id := range ids {
		s.Assert().Equal(ids[0], id)
	}
	s.Assert().Equal(1, newCount)
	s.Assert().Equal(1, s.countRows(`SELECT COUNT(*) FROM game_sessions WHERE player_id = ?`, "p-race"))
	s.Assert().Equal(1, s.loadChallenge().TotalPlays)
}

func (s *DailyChallengeSuite) TestConcurrentGuesses_SerializedOnSession() {
	ctx := context.Background()
	session := s.start("p1")

	var g errgroup.Group
	var mu sync.Mutex
	var duplicates int
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			_, err := s.service.SubmitGuess(ctx, session.ID, "p1", "album-same")
			if errors.HasCode(err, errors.ErrCodeDuplicateGuess) {
				mu.Lock()
				duplicates++
				mu.Unlock()
				return nil
			}
			return err
		})
	}
	s.Require().NoError(g.Wait())

	s.Assert().Equal(3, duplicates)
	s.assertSessionInvariants(session.ID)
	s.Assert().Equal(1, s.countRows(`SELECT COUNT(*) FROM guesses WHERE session_id = ?`, session.ID))
}

func (s *DailyChallengeSuite) TestConcurrentWinners_NoLostStatsUpdate() {
	const players = 6
	sessions := make([]models.Session, players)
	for i := range sessions {
		sessions[i] = s.start(fmt.Sprintf("p%d", i))
	}

	var g errgroup.Group
	for i, session := range sessions {
		i, session := i, session
		g.Go(func() error {
			_, err := s.service.SubmitGuess(context.Background(), session.ID, fmt.Sprintf("p%d", i), target)
			return err
		})
	}
	s.Require().NoError(g.Wait())

	c := s.loadChallenge()
	s.Assert().Equal(players, c.TotalWins)
	s.Assert().Equal(players, c.TotalPlays)
	s.Require().NotNil(c.AvgAttempts)
	s.Assert().InDelta(1.0, *c.AvgAttempts, 1e-9)
}

func (s *DailyChallengeSuite) TestSkip_CountsAsAttempt() {
	s.useChallenge(2)
	ctx := context.Background()
	session := s.start("p1")

	first, err := s.service.SubmitSkip(ctx, session.ID, "p1")
	s.Require().NoError(err)
	s.Assert().True(first.Guess.IsSkip())
	s.Assert().Nil(first.Entity)
	s.Assert().Equal(1, first.Session.AttemptCount)
	s.Assert().False(first.IsGameOver)

	second, err := s.service.SubmitSkip(ctx, session.ID, "p1")
	s.Require().NoError(err)
	s.Assert().True(second.IsGameOver)
	s.Assert().Equal(models.StatusLost, second.Session.Status)
	s.Require().NotNil(second.RevealedTarget)
	s.Require().NotNil(second.RevealedTarget.Summary)
	s.Assert().Equal(target, second.RevealedTarget.Summary.ID)

	s.assertSessionInvariants(session.ID)
}

func (s *DailyChallengeSuite) TestSkipsThenWin() {
	ctx := context.Background()
	session := s.start("p1")

	_, err := s.service.SubmitSkip(ctx, session.ID, "p1")
	s.Require().NoError(err)
	_, err = s.service.SubmitSkip(ctx, session.ID, "p1")
	s.Require().NoError(err)
	res, err := s.service.SubmitGuess(ctx, session.ID, "p1", target)
	s.Require().NoError(err)

	s.Assert().Equal(3, res.Guess.GuessNumber)
	s.Assert().Equal(models.StatusWon, res.Session.Status)
	c := s.loadChallenge()
	s.Require().NotNil(c.AvgAttempts)
	s.Assert().InDelta(3.0, *c.AvgAttempts, 1e-9)
	s.assertSessionInvariants(session.ID)
}

func (s *DailyChallengeSuite) TestSubmit_Rejections() {
	ctx := context.Background()
	session := s.start("p1")

	_, err := s.service.SubmitGuess(ctx, "no-such-session", "p1", "album-1")
	s.assertCode(err, errors.ErrCodeSessionNotFound)

	_, err = s.service.SubmitGuess(ctx, session.ID, "intruder", "album-1")
	s.assertCode(err, errors.ErrCodeNotOwner)

	_, err = s.service.SubmitSkip(ctx, session.ID, "intruder")
	s.assertCode(err, errors.ErrCodeNotOwner)

	_, err = s.service.SubmitGuess(ctx, session.ID, "p1", "unknown")
	s.assertCode(err, errors.ErrCodeEntityNotFound)

	_, err = s.service.SubmitGuess(ctx, session.ID, "p1", "")
	s.assertCode(err, errors.ErrCodeBadRequest)

	s.Assert().Equal(0, s.countRows(`SELECT COUNT(*) FROM guesses`))
	s.assertSessionInvariants(session.ID)
}

func (s *DailyChallengeSuite) TestMaxAttemptsCapturedAtStart() {
	ctx := context.Background()
	session := s.start("p1")

	_, err := s.db.Exec(`UPDATE challenges SET max_attempts = 1 WHERE id = ?`, s.challenge.ID)
	s.Require().NoError(err)

	res, err := s.service.SubmitGuess(ctx, session.ID, "p1", "album-1")
	s.Require().NoError(err)
	s.Assert().False(res.IsGameOver)
	s.Assert().Equal(6, res.Session.MaxAttempts)
}

func (s *DailyChallengeSuite) TestGetSession_HidesTargetUntilOver() {
	ctx := context.Background()
	session := s.start("p1")

	detail, err := s.service.GetSession(ctx, session.ID, "p1")
	s.Require().NoError(err)
	s.Assert().Nil(detail.RevealedTarget)
	s.Assert().Empty(detail.Guesses)

	_, err = s.service.SubmitGuess(ctx, session.ID, "p1", target)
	s.Require().NoError(err)

	detail, err = s.service.GetSession(ctx, session.ID, "p1")
	s.Require().NoError(err)
	s.Require().NotNil(detail.RevealedTarget)
	s.Assert().Equal(target, detail.RevealedTarget.EntityID)
	s.Assert().Len(detail.Guesses, 1)

	_, err = s.service.GetSession(ctx, session.ID, "someone-else")
	s.assertCode(err, errors.ErrCodeNotOwner)

	_, err = s.service.GetSession(ctx, "missing", "p1")
	s.assertCode(err, errors.ErrCodeSessionNotFound)
}

func (s *DailyChallengeSuite) TestGetTodaysStats() {
	ctx := context.Background()

	stats, err := s.service.GetTodaysStats(ctx)
	s.Require().NoError(err)
	s.Assert().Equal(today, stats.Date)
	s.Assert().Equal(0, stats.TotalPlays)
	s.Assert().Zero(stats.WinRate)
	s.Assert().Nil(stats.AvgAttempts)

	winner := s.start("p1")
	s.start("p2")
	_, err = s.service.SubmitGuess(ctx, winner.ID, "p1", target)
	s.Require().NoError(err)

	stats, err = s.service.GetTodaysStats(ctx)
	s.Require().NoError(err)
	s.Assert().Equal(2, stats.TotalPlays)
	s.Assert().Equal(1, stats.TotalWins)
	s.Assert().InDelta(0.5, stats.WinRate, 1e-9)
	s.Require().NotNil(stats.AvgAttempts)
	s.Assert().InDelta(1.0, *stats.AvgAttempts, 1e-9)
}

func (s *DailyChallengeSuite) TestRevealSurvivesCatalogFailure() {
	ctx := context.Background()
	s.useChallenge(1)
	session := s.start("p1")

	failing := new(mocks.MockCatalogClient)
	failing.On("FetchEntitySummary", mock.Anything, "album-1").Return(&models.EntitySummary{ID: "album-1"}, nil)
	failing.On("FetchEntitySummary", mock.Anything, target).Return(nil, stderrors.New("catalog down"))

	provider := NewChallengeProvider(sqlite.NewChallengeRepository(s.db), time.UTC, testutil.FixedClock(fixedNow))
	service := NewDailyChallengeService(provider, sqlite.NewSessionRepository(s.db), failing, testutil.FixedClock(fixedNow))

	res, err := service.SubmitGuess(ctx, session.ID, "p1", "album-1")
	s.Require().NoError(err)
	s.Assert().True(res.IsGameOver)
	s.Require().NotNil(res.RevealedTarget)
	s.Assert().Equal(target, res.RevealedTarget.EntityID)
	s.Assert().Nil(res.RevealedTarget.Summary)
	failing.AssertExpectations(s.T())
}

func TestDailyChallengeSuite(t *testing.T) {
	suite.Run(t, new(DailyChallengeSuite))
}
