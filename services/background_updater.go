package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pickem-go/logging"
	"pickem-go/models"

	"github.com/itbasis/go-clock"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// GameUpdater is what the scheduler drives; the Reconciler implements it
type GameUpdater interface {
	Update(ctx context.Context, day time.Time) (*models.ReconcileReport, error)
}

type SchedulerConfig struct {
	Enabled         bool
	ScoreUpdateSpec string
	GameUpdateSpec  string
	LateScoreSpec   string
	RunOnStartup    bool
	JobTimeout      time.Duration
	Location        *time.Location
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:         true,
		ScoreUpdateSpec: "@every 20m",
		GameUpdateSpec:  "0 4 * * *",
		LateScoreSpec:   "0 5 * * *",
		JobTimeout:      5 * time.Minute,
		Location:        time.UTC,
	}
}

// BackgroundUpdater runs the periodic reconcile jobs
type BackgroundUpdater struct {
	mu      sync.Mutex
	updater GameUpdater
	clock   clock.Clock
	config  SchedulerConfig
	cron    *cron.Cron
	running bool
	logger  *logging.Logger
}

// NewBackgroundUpdater creates a new background updater service
func NewBackgroundUpdater(updater GameUpdater, clk clock.Clock, config SchedulerConfig) *BackgroundUpdater {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 5 * time.Minute
	}
	return &BackgroundUpdater{
		updater: updater,
		clock:   clk,
		config:  config,
		logger:  logging.WithPrefix("BackgroundUpdater"),
	}
}

// Today, Tomorrow and Yesterday are midnights in the configured location
func (bu *BackgroundUpdater) Today() time.Time {
	return models.StartOfDay(bu.clock.Now(), bu.config.Location)
}

func (bu *BackgroundUpdater) Tomorrow() time.Time {
	return bu.Today().AddDate(0, 0, 1)
}

func (bu *BackgroundUpdater) Yesterday() time.Time {
	return bu.Today().AddDate(0, 0, -1)
}

// Start registers the jobs and starts the scheduler. Calling it twice is a no-op,
// and so is calling it while the scheduler is disabled; ForceUpdate still works.
func (bu *BackgroundUpdater) Start() error {
	bu.mu.Lock()
	defer bu.mu.Unlock()

	if !bu.config.Enabled {
		bu.logger.Info("Scheduler disabled")
		return nil
	}
	if bu.running {
		bu.logger.Debug("Already running")
		return nil
	}

	cronLog := cronLogger{sugar: bu.logger.Zap().Sugar()}
	c := cron.New(
		cron.WithLocation(bu.config.Location),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	jobs := []struct {
		name string
		spec string
		day  func() time.Time
	}{
		{"check_for_score_updates", bu.config.ScoreUpdateSpec, bu.Today},
		{"check_for_game_updates", bu.config.GameUpdateSpec, bu.Tomorrow},
		{"check_for_late_game_scores", bu.config.LateScoreSpec, bu.Yesterday},
	}
	for _, job := range jobs {
		job := job
		if _, err := c.AddFunc(job.spec, func() { bu.run(job.name, job.day()) }); err != nil {
			return fmt.Errorf("invalid schedule %q for %s: %w", job.spec, job.name, err)
		}
		bu.logger.Infof("Scheduled %s (%s)", job.name, job.spec)
	}

	if bu.config.RunOnStartup {
		bu.run("check_for_game_updates", bu.Tomorrow())
	}

	c.Start()
	bu.cron = c
	bu.running = true
	bu.logger.Infof("Scheduler started in %s", bu.config.Location)
	return nil
}

// Stop halts the scheduler and waits for running jobs
func (bu *BackgroundUpdater) Stop() {
	bu.mu.Lock()
	defer bu.mu.Unlock()

	if !bu.running {
		return
	}
	bu.logger.Info("Stopping...")
	<-bu.cron.Stop().Done()
	bu.running = false
	bu.cron = nil
}

// IsRunning reports whether the scheduler is active
func (bu *BackgroundUpdater) IsRunning() bool {
	bu.mu.Lock()
	defer bu.mu.Unlock()
	return bu.running
}

// ForceUpdate reconciles today right away and returns what changed
func (bu *BackgroundUpdater) ForceUpdate(ctx context.Context) (*models.ReconcileReport, error) {
	day := bu.Today()
	bu.logger.Infof("Forced update for %s", models.FormatDay(day))
	return bu.updater.Update(ctx, day)
}

func (bu *BackgroundUpdater) run(name string, day time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), bu.config.JobTimeout)
	defer cancel()

	started := bu.clock.Now()
	report, err := bu.updater.Update(ctx, day)
	if err != nil {
		bu.logger.Errorf("%s for %s failed: %v", name, models.FormatDay(day), err)
		return
	}
	bu.logger.Infof("%s for %s done in %v: %d inserted, %d updated, %d deleted",
		name, report.Day, bu.clock.Now().Sub(started), report.Inserted, report.Updated, report.Deleted)
}

// cronLogger routes cron's own messages into zap
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
