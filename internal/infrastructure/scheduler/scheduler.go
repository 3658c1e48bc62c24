package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/wekeepgrowing/likes-market/internal/config"
	"github.com/wekeepgrowing/likes-market/internal/domain/dto"
	"github.com/wekeepgrowing/likes-market/pkg/logger"
	"go.uber.org/zap"
)

// Reconciler runs one reconciliation sweep
type Reconciler interface {
	Run(ctx context.Context) (*dto.ReconcileReport, error)
}

// Dispatcher runs one fulfillment dispatch sweep
type Dispatcher interface {
	Run(ctx context.Context) (*dto.DispatchReport, error)
}

// Scheduler drives the periodic sweeps. Runs of the same job never overlap.
type Scheduler struct {
	cron       *cron.Cron
	cfg        config.ReconciliationConfig
	reconciler Reconciler
	dispatcher Dispatcher
	timeout    time.Duration
	logger     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler. timeout bounds each individual run.
func NewScheduler(cfg config.ReconciliationConfig, reconciler Reconciler, dispatcher Dispatcher, timeout time.Duration, log *zap.Logger) *Scheduler {
	cronLogger := logger.NewCronLogger(log)
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(cron.WithLogger(cronLogger), cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		)),
		cfg:        cfg,
		reconciler: reconciler,
		dispatcher: dispatcher,
		timeout:    timeout,
		logger:     log.Named("scheduler"),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start registers the jobs and starts the cron scheduler
func (s *Scheduler) Start() error {
	if s.dispatcher != nil && s.cfg.DispatchSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.DispatchSchedule, s.RunDispatch); err != nil {
			return fmt.Errorf("invalid dispatch schedule %q: %w", s.cfg.DispatchSchedule, err)
		}
		s.logger.Info("Scheduled fulfillment dispatch job", zap.String("schedule", s.cfg.DispatchSchedule))
	}

	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.RunReconciliation); err != nil {
		return fmt.Errorf("invalid reconciliation schedule %q: %w", s.cfg.Schedule, err)
	}
	s.logger.Info("Scheduled reconciliation job", zap.String("schedule", s.cfg.Schedule))

	s.cron.Start()
	return nil
}

// Stop cancels in-flight runs and waits for them to return
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunReconciliation performs one reconciliation sweep
func (s *Scheduler) RunReconciliation() {
	ctx, cancel := s.runContext()
	defer cancel()

	report, err := s.reconciler.Run(ctx)
	if err != nil {
		s.logger.Error("Reconciliation run failed", zap.Error(err))
		return
	}

	s.logger.Info("Reconciliation run finished",
		zap.Int("selected", report.Selected),
		zap.Int("updated", report.Updated),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("skipped", len(report.Skipped)),
		zap.Duration("duration", report.Duration))
}

// RunDispatch performs one fulfillment dispatch sweep
func (s *Scheduler) RunDispatch() {
	ctx, cancel := s.runContext()
	defer cancel()

	report, err := s.dispatcher.Run(ctx)
	if err != nil {
		s.logger.Error("Dispatch run failed", zap.Error(err))
		return
	}

	if report.Selected > 0 {
		s.logger.Info("Dispatch run finished",
			zap.Int("selected", report.Selected),
			zap.Int("dispatched", report.Dispatched),
			zap.Int("failed", len(report.Failed)))
	}
}

func (s *Scheduler) runContext() (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(s.ctx, s.timeout)
	}
	return context.WithCancel(s.ctx)
}
