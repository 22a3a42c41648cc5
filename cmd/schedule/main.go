// Command schedule manages the calendar of daily challenges.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vytor/dailyalbum/internal/config"
	"github.com/vytor/dailyalbum/internal/db"
	"github.com/vytor/dailyalbum/internal/errors"
	"github.com/vytor/dailyalbum/internal/game"
	"github.com/vytor/dailyalbum/internal/logger"
	"github.com/vytor/dailyalbum/internal/models"
	"github.com/vytor/dailyalbum/internal/repository/sqlite"
	"github.com/vytor/dailyalbum/internal/services"
)

func main() {
	if err := newRootCmd(config.Load(), os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg config.Config, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "schedule",
		Short:        "Schedule and inspect daily album challenges",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetDefault(logger.New(
				logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
				logger.WithOutput(cmd.ErrOrStderr()),
			))
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "database path")

	root.AddCommand(newAddCmd(&cfg), newShowCmd(&cfg))
	return root
}

func newAddCmd(cfg *config.Config) *cobra.Command {
	var date, target string
	maxAttempts := cfg.DefaultMaxAttempts

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Schedule the challenge for a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxAttempts < 1 || maxAttempts > 20 {
				return fmt.Errorf("--max-attempts must be between 1 and 20, got %d", maxAttempts)
			}

			provider, closeDB, err := openProvider(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			if date == "" {
				date = provider.Today()
			}
			c, err := provider.Schedule(cmd.Context(), date, target, maxAttempts)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scheduled %s: id=%s max_attempts=%d\n", c.Date, c.ID, c.MaxAttempts)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "challenge date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&target, "target", "", "album id players must guess")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", maxAttempts, "attempts allowed per session")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newShowCmd(cfg *config.Config) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a challenge and its aggregate stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			if date == "" {
				date = time.Now().In(cfg.Location()).Format(models.DateLayout)
			}
			c, err := sqlite.NewChallengeRepository(database.DB).GetByDate(cmd.Context(), date)
			if err != nil {
				return err
			}
			if c == nil {
				return describe(errors.NewChallengeNotFoundError(date))
			}

			stats := game.Stats(*c)
			avg := "-"
			if stats.AvgAttempts != nil {
				avg = fmt.Sprintf("%.2f", *stats.AvgAttempts)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s target=%s max_attempts=%d plays=%d wins=%d avg_attempts=%s win_rate=%.2f\n",
				c.Date, c.TargetEntityID, stats.MaxAttempts, stats.TotalPlays, stats.TotalWins, avg, stats.WinRate)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "challenge date (YYYY-MM-DD), defaults to today")
	return cmd
}

func openProvider(cfg *config.Config) (services.ChallengeProvider, func(), error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	provider := services.NewChallengeProvider(sqlite.NewChallengeRepository(database.DB), cfg.Location(), time.Now)
	return provider, func() { database.Close() }, nil
}

// describe strips the error code prefix for terminal output.
func describe(err error) error {
	if appErr, ok := errors.As(err); ok {
		return fmt.Errorf("%s", appErr.Message)
	}
	return err
}
