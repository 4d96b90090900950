package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"helpkart/internal/models"
	"helpkart/internal/repositories/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Now().UTC()

	alpha := &models.Center{ID: uuid.New(), Name: "Alpha", Email: "alpha@x.com", PasswordHash: "$2a$10$secret-hash", CreatedAt: now}
	beta := &models.Center{ID: uuid.New(), Name: "Beta", Email: "beta@x.com", PasswordHash: "$2a$10$other-hash", CreatedAt: now.Add(time.Second)}
	require.NoError(t, store.Centers().Create(ctx, alpha))
	require.NoError(t, store.Centers().Create(ctx, beta))

	rice := &models.InventoryItem{ID: uuid.New(), CenterID: alpha.ID, Name: "Rice", Category: models.CategoryFood,
		Quantity: 50, Unit: "kg", Classification: models.ClassificationSurplus, CreatedAt: now}
	require.NoError(t, store.Items().Create(ctx, rice))

	require.NoError(t, store.Requests().Create(ctx, &models.Request{ID: uuid.New(), CenterID: beta.ID, ItemName: "Water",
		QuantityNeeded: 10, Unit: "liters", Urgency: models.UrgencyCritical, RequestedOn: now}))

	itemID := rice.ID
	require.NoError(t, store.Transactions().Create(ctx, &models.Transaction{ID: uuid.New(), FromCenterID: alpha.ID, ToCenterID: beta.ID,
		InitiatedBy: beta.ID, Kind: models.TransactionKindRequest, InventoryItemID: &itemID, ItemName: "Rice", Quantity: 5, Unit: "kg", CreatedAt: now}))
	return store
}

func newExportService(store *memory.Store, snapshots SnapshotStore) ExportService {
	return NewExportService(store.Centers(), store.Items(), store.Requests(), store.Transactions(), snapshots, 3, zap.NewNop())
}

func TestBuildSnapshot_SummaryAndNoPasswords(t *testing.T) {
	service := newExportService(seededStore(t), nil)

	snapshot, err := service.BuildSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SnapshotSummary{TotalCenters: 2, TotalItems: 1, OpenRequests: 1, Transactions: 1}, snapshot.Summary)

	var buf bytes.Buffer
	require.NoError(t, service.WriteJSON(&buf, snapshot))
	assert.NotContains(t, buf.String(), "secret-hash")
	assert.NotContains(t, buf.String(), "password")

	var decoded models.Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Data.Centers, 2)
	assert.Equal(t, 1, decoded.Summary.Transactions)
}

func TestWriteXLSX_OneSheetPerCollection(t *testing.T) {
	service := newExportService(seededStore(t), nil)
	snapshot, err := service.BuildSnapshot(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, service.WriteXLSX(&buf, snapshot))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Centers", "Inventory", "Requests", "Transactions"}, f.GetSheetList())

	rows, err := f.GetRows("Inventory")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Rice", rows[1][2])
	assert.Equal(t, "50", rows[1][4])

	centers, err := f.GetRows("Centers")
	require.NoError(t, err)
	for _, row := range centers {
		assert.NotContains(t, strings.Join(row, ","), "secret-hash")
	}
}

func TestWritePDF_RendersReport(t *testing.T) {
	service := newExportService(seededStore(t), nil)
	snapshot, err := service.BuildSnapshot(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, service.WritePDF(&buf, snapshot))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.True(t, bytes.Contains(buf.Bytes(), []byte("%%EOF")))
	assert.NotContains(t, buf.String(), "secret-hash")
}

func TestWritePDF_LongAndAccentedValues(t *testing.T) {
	store := seededStore(t)
	require.NoError(t, store.Centers().Create(context.Background(), &models.Center{
		ID:        uuid.New(),
		Name:      "Centre de Santé " + strings.Repeat("Ühlmann ", 20),
		Email:     "sante@x.com",
		Address:   strings.Repeat("Rue de la Paix ", 30),
		CreatedAt: time.Now().UTC(),
	}))
	service := newExportService(store, nil)
	snapshot, err := service.BuildSnapshot(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, service.WritePDF(&buf, snapshot))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestExport_WritesFileUploadsAndPrunes(t *testing.T) {
	snapshots := &MockSnapshotStore{}
	snapshots.Test(t)
	defer snapshots.AssertExpectations(t)

	stored := &StoredSnapshot{Bucket: "exports", DownloadURL: "http://minio/exports/x?X-Amz-Signature=abc"}
	snapshots.On("Save", mock.Anything, mock.MatchedBy(func(name string) bool {
		stored.Object = name
		return strings.HasPrefix(name, "helpkart_export_") && strings.HasSuffix(name, ".xlsx")
	}), mock.MatchedBy(func(data []byte) bool { return len(data) > 0 }), contentTypeXLSX).Return(stored, nil).Once()
	snapshots.On("Prune", mock.Anything, 3).Return([]string{"helpkart_export_20200101_000000.xlsx"}, nil).Once()

	dir := t.TempDir()
	result, err := newExportService(seededStore(t), snapshots).Export(context.Background(), dir, ExportFormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(result.Path))
	assert.Equal(t, ExportFormatXLSX, result.Format)
	assert.Equal(t, 2, result.Summary.TotalCenters)
	require.NotNil(t, result.Stored)
	assert.Equal(t, filepath.Base(result.Path), result.Stored.Object)
	assert.Contains(t, result.Stored.DownloadURL, "X-Amz-Signature")
	assert.Equal(t, []string{"helpkart_export_20200101_000000.xlsx"}, result.Pruned)

	info, err := os.Stat(result.Path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExport_PruneFailureKeepsUpload(t *testing.T) {
	snapshots := &MockSnapshotStore{}
	snapshots.Test(t)
	defer snapshots.AssertExpectations(t)

	snapshots.On("Save", mock.Anything, mock.Anything, mock.Anything, contentTypePDF).
		Return(&StoredSnapshot{Bucket: "exports", Object: "snapshot.pdf"}, nil).Once()
	snapshots.On("Prune", mock.Anything, 3).Return(nil, errors.New("listing denied")).Once()

	result, err := newExportService(seededStore(t), snapshots).Export(context.Background(), t.TempDir(), ExportFormatPDF)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.Path, ".pdf"))
	assert.NotNil(t, result.Stored)
	assert.Empty(t, result.Pruned)
}

func TestExport_UploadFailureStillWritesFile(t *testing.T) {
	snapshots := &MockSnapshotStore{}
	snapshots.Test(t)
	defer snapshots.AssertExpectations(t)

	snapshots.On("Save", mock.Anything, mock.Anything, mock.Anything, contentTypeJSON).
		Return(nil, errors.New("bucket unreachable")).Once()

	result, err := newExportService(seededStore(t), snapshots).Export(context.Background(), t.TempDir(), ExportFormatJSON)
	assert.ErrorContains(t, err, "bucket unreachable")
	require.NotNil(t, result)
	_, statErr := os.Stat(result.Path)
	assert.NoError(t, statErr)
	snapshots.AssertNotCalled(t, "Prune", mock.Anything, mock.Anything)
}

func TestExport_JSONWithoutStorage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	result, err := newExportService(seededStore(t), nil).Export(context.Background(), dir, ExportFormatJSON)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.Path, ".json"))
	assert.Nil(t, result.Stored)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"total_centers": 2`)
}

func TestExport_UnsupportedFormat(t *testing.T) {
	_, err := newExportService(seededStore(t), nil).Export(context.Background(), t.TempDir(), "csv")
	assert.Error(t, err)
}
