package background

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"helpkart/internal/models"
	"helpkart/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Summary(ctx context.Context, centerID uuid.UUID) (*models.DashboardSummary, error) {
	args := m.Called(ctx, centerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardSummary), args.Error(1)
}

func (m *MockDashboardService) RefreshAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) BuildSnapshot(ctx context.Context) (*models.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Snapshot), args.Error(1)
}

func (m *MockExportService) WriteJSON(w io.Writer, snapshot *models.Snapshot) error {
	return m.Called(w, snapshot).Error(0)
}

func (m *MockExportService) WriteXLSX(w io.Writer, snapshot *models.Snapshot) error {
	return m.Called(w, snapshot).Error(0)
}

func (m *MockExportService) WritePDF(w io.Writer, snapshot *models.Snapshot) error {
	return m.Called(w, snapshot).Error(0)
}

func (m *MockExportService) Export(ctx context.Context, dir, format string) (*services.ExportResult, error) {
	args := m.Called(ctx, dir, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ExportResult), args.Error(1)
}

func TestNewJobScheduler_RegistersConfiguredJobs(t *testing.T) {
	js, err := NewJobScheduler(new(MockDashboardService), new(MockExportService), Options{
		RefreshInterval: time.Hour,
		ExportInterval:  time.Hour,
		ExportDir:       t.TempDir(),
		ExportFormat:    "json",
	}, zap.NewNop())
	require.NoError(t, err)
	defer js.Stop()

	assert.Equal(t, []string{DashboardRefreshJob, SnapshotExportJob}, js.JobNames())
}

func TestNewJobScheduler_ZeroIntervalsRegisterNothing(t *testing.T) {
	js, err := NewJobScheduler(new(MockDashboardService), nil, Options{}, zap.NewNop())
	require.NoError(t, err)
	defer js.Stop()

	assert.Empty(t, js.JobNames())
	assert.Error(t, js.RunNow(DashboardRefreshJob))
}

func TestNewJobScheduler_ExportNeedsService(t *testing.T) {
	_, err := NewJobScheduler(new(MockDashboardService), nil, Options{ExportInterval: time.Minute}, zap.NewNop())
	assert.Error(t, err)
}

func TestRefreshDashboards(t *testing.T) {
	dashboards := new(MockDashboardService)
	dashboards.On("RefreshAll", mock.Anything).Return(3, nil).Once()
	dashboards.On("RefreshAll", mock.Anything).Return(0, errors.New("store unavailable")).Once()

	js := &JobScheduler{dashboards: dashboards, logger: zap.NewNop()}
	assert.NoError(t, js.refreshDashboards(context.Background()))
	assert.Error(t, js.refreshDashboards(context.Background()))
	dashboards.AssertExpectations(t)
}

func TestExportSnapshot(t *testing.T) {
	exporter := new(MockExportService)
	exporter.On("Export", mock.Anything, "/var/exports", "xlsx").
		Return(&services.ExportResult{
			Path:   "/var/exports/helpkart_export_20240101_000000.xlsx",
			Format: "xlsx",
			Stored: &services.StoredSnapshot{Bucket: "exports", Object: "helpkart_export_20240101_000000.xlsx"},
			Pruned: []string{"helpkart_export_20231231_000000.xlsx"},
		}, nil).Once()

	js := &JobScheduler{
		exporter: exporter,
		options:  Options{ExportDir: "/var/exports", ExportFormat: "xlsx"},
		logger:   zap.NewNop(),
	}
	assert.NoError(t, js.exportSnapshot(context.Background()))
	exporter.AssertExpectations(t)
}

func TestExportSnapshot_PropagatesFailure(t *testing.T) {
	exporter := new(MockExportService)
	exporter.On("Export", mock.Anything, "/var/exports", "pdf").Return(nil, errors.New("disk full")).Once()

	js := &JobScheduler{
		exporter: exporter,
		options:  Options{ExportDir: "/var/exports", ExportFormat: "pdf"},
		logger:   zap.NewNop(),
	}
	assert.EqualError(t, js.exportSnapshot(context.Background()), "disk full")
	exporter.AssertExpectations(t)
}

func TestRunNow_ExecutesJob(t *testing.T) {
	ran := make(chan struct{}, 1)
	dashboards := new(MockDashboardService)
	dashboards.On("RefreshAll", mock.Anything).Return(1, nil).Run(func(mock.Arguments) {
		ran <- struct{}{}
	}).Once()

	js, err := NewJobScheduler(dashboards, nil, Options{RefreshInterval: time.Hour}, zap.NewNop())
	require.NoError(t, err)
	js.Start()
	defer js.Stop()

	require.NoError(t, js.RunNow(DashboardRefreshJob))
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("dashboard refresh did not run")
	}
	dashboards.AssertExpectations(t)
}
