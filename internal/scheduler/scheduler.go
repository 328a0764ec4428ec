package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

const (
	jobTimeout      = 2 * time.Minute
	defaultInterval = 30 * time.Second
)

// Refresher recomputes analytics when the snapshot is stale.
type Refresher interface {
	RefreshStale(ctx context.Context) (bool, error)
	State() models.AnalyticsState
}

// Digester builds the digest text.
type Digester interface {
	BuildDigest(ctx context.Context, state models.AnalyticsState, now time.Time) string
}

// Notifier delivers the digest to the farm manager.
type Notifier interface {
	NotifyManager(ctx context.Context, body string) error
}

// Options configures the scheduled jobs.
type Options struct {
	// DigestSchedule is a five-field cron expression evaluated in Location.
	DigestSchedule  string
	Location        *time.Location
	RefreshInterval time.Duration
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	opts      Options
	refresher Refresher
	digester  Digester
	notifier  Notifier
	logger    *zap.Logger
}

// NewScheduler creates a new scheduler instance. notifier may be nil, in
// which case only the refresh job runs.
func NewScheduler(opts Options, refresher Refresher, digester Digester, notifier Notifier, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = defaultInterval
	}

	c := cron.New(cron.WithLocation(opts.Location), cron.WithChain(cron.Recover(cronLogger{logger})))

	return &Scheduler{
		cron:      c,
		opts:      opts,
		refresher: refresher,
		digester:  digester,
		notifier:  notifier,
		logger:    logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.Duration("refresh_interval", s.opts.RefreshInterval),
		zap.String("digest_schedule", s.opts.DigestSchedule),
		zap.String("timezone", s.opts.Location.String()))

	if _, err := s.cron.AddFunc("@every "+s.opts.RefreshInterval.String(), s.refreshAnalytics); err != nil {
		return fmt.Errorf("schedule analytics refresh: %w", err)
	}

	if s.notifier != nil {
		if _, err := s.cron.AddFunc(s.opts.DigestSchedule, s.sendDailyDigest); err != nil {
			return fmt.Errorf("schedule daily digest: %w", err)
		}
	} else {
		s.logger.Info("daily digest disabled, no notifier configured")
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) refreshAnalytics() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	refreshed, err := s.refresher.RefreshStale(ctx)
	if err != nil {
		s.logger.Warn("scheduled refresh failed", zap.Error(err))
		return
	}
	if refreshed {
		s.logger.Debug("scheduled refresh completed")
	}
}

func (s *Scheduler) sendDailyDigest() {
	s.logger.Info("generating daily digest")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.refresher.RefreshStale(ctx); err != nil {
		s.logger.Warn("refresh before digest failed", zap.Error(err))
	}

	digest := s.digester.BuildDigest(ctx, s.refresher.State(), time.Now().In(s.opts.Location))
	if err := s.notifier.NotifyManager(ctx, digest); err != nil {
		s.logger.Error("failed to send daily digest", zap.Error(err))
		return
	}
	s.logger.Info("daily digest sent successfully")
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
