package background

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"helpkart/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job names
const (
	DashboardRefreshJob = "dashboard-refresh"
	SnapshotExportJob   = "snapshot-export"
)

// Options configures which jobs run and how often. A zero interval leaves
// the job unregistered.
type Options struct {
	RefreshInterval time.Duration
	ExportInterval  time.Duration
	ExportDir       string
	ExportFormat    string
}

// JobScheduler runs the periodic maintenance jobs of the service
type JobScheduler struct {
	scheduler  gocron.Scheduler
	dashboards services.DashboardService
	exporter   services.ExportService
	options    Options
	logger     *zap.Logger
	jobs       map[string]gocron.Job
	mu         sync.RWMutex
}

// NewJobScheduler creates the scheduler and registers the configured jobs.
// exporter may be nil when no export job is wanted.
func NewJobScheduler(dashboards services.DashboardService, exporter services.ExportService, options Options, logger *zap.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLogger(zapLogger{logger.Sugar()}))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler:  scheduler,
		dashboards: dashboards,
		exporter:   exporter,
		options:    options,
		logger:     logger,
		jobs:       make(map[string]gocron.Job),
	}
	if err := js.registerJobs(); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.logger.Info("Starting background job scheduler", zap.Strings("jobs", js.JobNames()))
	js.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down
func (js *JobScheduler) Stop() error {
	js.logger.Info("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// JobNames lists the registered jobs in name order
func (js *JobScheduler) JobNames() []string {
	js.mu.RLock()
	defer js.mu.RUnlock()
	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunNow triggers the named job outside its schedule. The scheduler must be started.
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	job, ok := js.jobs[name]
	js.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return job.RunNow()
}

func (js *JobScheduler) registerJobs() error {
	if js.options.RefreshInterval > 0 {
		if err := js.add(DashboardRefreshJob, js.options.RefreshInterval, js.refreshDashboards); err != nil {
			return err
		}
	}

	if js.options.ExportInterval > 0 {
		if js.exporter == nil {
			return errors.New("export interval set without an export service")
		}
		if err := js.add(SnapshotExportJob, js.options.ExportInterval, js.exportSnapshot); err != nil {
			return err
		}
	}

	js.logger.Info("Registered background jobs", zap.Int("count", len(js.jobs)))
	return nil
}

func (js *JobScheduler) add(name string, every time.Duration, task func(context.Context) error) error {
	job, err := js.scheduler.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithEventListeners(
			gocron.AfterJobRunsWithError(func(_ uuid.UUID, jobName string, err error) {
				js.logger.Error("Background job failed", zap.String("job", jobName), zap.Error(err))
			}),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s job: %w", name, err)
	}

	js.mu.Lock()
	js.jobs[name] = job
	js.mu.Unlock()
	return nil
}

// refreshDashboards recomputes every center's cached dashboard
func (js *JobScheduler) refreshDashboards(ctx context.Context) error {
	start := time.Now()
	refreshed, err := js.dashboards.RefreshAll(ctx)
	if err != nil {
		return err
	}
	js.logger.Info("Dashboard refresh completed",
		zap.Int("centers", refreshed),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (js *JobScheduler) exportSnapshot(ctx context.Context) error {
	result, err := js.exporter.Export(ctx, js.options.ExportDir, js.options.ExportFormat)
	if err != nil {
		return err
	}
	fields := []zap.Field{zap.String("path", result.Path)}
	if result.Stored != nil {
		fields = append(fields, zap.String("object", result.Stored.Object), zap.Int("pruned", len(result.Pruned)))
	}
	js.logger.Info("Scheduled snapshot export written", fields...)
	return nil
}

// zapLogger adapts a sugared zap logger to gocron's key/value logger
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Debug(msg string, args ...any) { l.s.Debugw(msg, args...) }
func (l zapLogger) Error(msg string, args ...any) { l.s.Errorw(msg, args...) }
func (l zapLogger) Info(msg string, args ...any)  { l.s.Infow(msg, args...) }
func (l zapLogger) Warn(msg string, args ...any)  { l.s.Warnw(msg, args...) }
