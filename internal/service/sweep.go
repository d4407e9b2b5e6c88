package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/solarcycle/internal/alert"
	"github.com/sakif/solarcycle/internal/clock"
	"github.com/sakif/solarcycle/internal/model"
	"github.com/sakif/solarcycle/internal/notify"
	"github.com/sakif/solarcycle/internal/repository"
)

// DefaultSweepConcurrency bounds how many users are processed at once.
const DefaultSweepConcurrency = 4

// SweepService sends each user a summary of their panels that are near
// expiry or expired. Runs are not deduplicated: every run alerts again.
type SweepService struct {
	users       repository.UserRepository
	panels      repository.PanelRepository
	notifier    notify.Notifier
	clock       clock.Clock
	logger      *slog.Logger
	concurrency int
}

func NewSweepService(
	users repository.UserRepository,
	panels repository.PanelRepository,
	notifier notify.Notifier,
	clk clock.Clock,
	logger *slog.Logger,
	concurrency int,
) *SweepService {
	if concurrency <= 0 {
		concurrency = DefaultSweepConcurrency
	}
	return &SweepService{
		users:       users,
		panels:      panels,
		notifier:    notifier,
		clock:       clk,
		logger:      logger,
		concurrency: concurrency,
	}
}

// SweepReport summarises one run.
type SweepReport struct {
	RunID    string        `json:"runId"`
	Users    int           `json:"users"`
	Notified int           `json:"notified"` // batch delivered
	Skipped  int           `json:"skipped"`  // nothing eligible
	Failed   int           `json:"failed"`   // storage or delivery error
	Duration time.Duration `json:"duration"`
}

// Run performs one sweep over every user. A failure for one user is logged
// and counted without stopping the others. Only a failure to list users or
// a cancelled context aborts the run.
func (s *SweepService) Run(ctx context.Context) (*SweepReport, error) {
	start := time.Now()
	now := s.clock.Now()
	runID := uuid.NewString()
	log := s.logger.With(slog.String("run_id", runID))

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/sweep: listing users: %w", err)
	}

	log.Info("sweep started", slog.Int("users", len(users)))

	var notified, skipped, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, u := range users {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			switch s.sweepUser(gctx, log, u, now) {
			case outcomeNotified:
				notified.Add(1)
			case outcomeSkipped:
				skipped.Add(1)
			default:
				failed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("service/sweep: run %s aborted: %w", runID, err)
	}

	report := &SweepReport{
		RunID:    runID,
		Users:    len(users),
		Notified: int(notified.Load()),
		Skipped:  int(skipped.Load()),
		Failed:   int(failed.Load()),
		Duration: time.Since(start),
	}
	log.Info("sweep finished",
		slog.Int("notified", report.Notified),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", report.Duration),
	)
	return report, nil
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeSkipped
	outcomeNotified
)

func (s *SweepService) sweepUser(ctx context.Context, log *slog.Logger, u model.User, now time.Time) outcome {
	panels, err := s.panels.FindByOwner(ctx, u.ID)
	if err != nil {
		log.Error("sweep: listing panels failed",
			slog.String("userID", u.ID),
			slog.String("error", err.Error()),
		)
		return outcomeFailed
	}

	b, ok := alert.NewBatch(u.Email, u.Username, panels, now)
	if !ok {
		return outcomeSkipped
	}

	res := s.notifier.SendBatchExpiryAlert(ctx, b)
	if res.Err != nil {
		log.Warn("sweep: batch alert not delivered",
			slog.String("userID", u.ID),
			slog.String("error", res.Err.Error()),
		)
		return outcomeFailed
	}
	return outcomeNotified
}

// Schedule runs the sweep every interval until ctx is cancelled. Errors are
// logged and the next tick tries again.
func (s *SweepService) Schedule(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("sweep scheduled", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweep scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.Run(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
