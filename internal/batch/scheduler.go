package batch

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/flyerdrop/tournees-api/internal/config"
)

type Runner interface {
	Run(ctx context.Context) (Summary, error)
}

// Scheduler runs the status job on a cron spec evaluated in loc.
type Scheduler struct {
	mu      sync.Mutex
	c       *cron.Cron
	conf    config.SchedulerConfig
	job     Runner
	loc     *time.Location
	logger  *zap.Logger
	started bool
}

func NewScheduler(conf config.SchedulerConfig, job Runner, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}

	s := &Scheduler{
		conf:   conf,
		job:    job,
		loc:    loc,
		logger: zap.L().Named("scheduler"),
	}
	c, err := s.newCron(conf)
	if err != nil {
		return nil, err
	}
	s.c = c

	return s, nil
}

func (s *Scheduler) newCron(conf config.SchedulerConfig) (*cron.Cron, error) {
	logger := cronLogger{s.logger.Sugar()}
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if !conf.Enabled {
		return c, nil
	}

	if _, err := c.AddFunc(conf.Cron, s.tick); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Scheduler) tick() {
	s.logger.Info("scheduler tick: running status batch")
	summary, err := s.job.Run(context.Background())
	if err != nil {
		s.logger.Error("status batch aborted", zap.Error(err))
		return
	}
	if summary.HasFailures() {
		s.logger.Warn("status batch finished with failures", zap.Int("tours_failed", summary.ToursFailed))
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("starting scheduler", zap.Bool("enabled", s.conf.Enabled), zap.String("cron", s.conf.Cron))
	s.c.Start()
	s.started = true
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.c
	s.started = false
	s.mu.Unlock()

	<-c.Stop().Done()
}

// Reload swaps the cron spec. Nothing happens when the configuration is
// unchanged; an invalid spec keeps the current schedule running.
func (s *Scheduler) Reload(conf config.SchedulerConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conf == s.conf {
		s.logger.Info("scheduler configuration unchanged, no restart needed")
		return nil
	}

	next, err := s.newCron(conf)
	if err != nil {
		return err
	}

	s.c.Stop()
	s.c = next
	s.conf = conf
	if s.started {
		s.c.Start()
	}
	s.logger.Info("scheduler reloaded", zap.Bool("enabled", conf.Enabled), zap.String("cron", conf.Cron))

	return nil
}

func (s *Scheduler) Config() config.SchedulerConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conf
}

type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
