package services

import (
	"context"
	"time"

	"helpkart/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockCenterRepository struct {
	mock.Mock
}

func (m *MockCenterRepository) Create(ctx context.Context, center *models.Center) error {
	args := m.Called(ctx, center)
	return args.Error(0)
}

func (m *MockCenterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Center, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Center), args.Error(1)
}

func (m *MockCenterRepository) GetByEmail(ctx context.Context, email string) (*models.Center, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Center), args.Error(1)
}

func (m *MockCenterRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Center, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*models.Center), args.Error(1)
}

func (m *MockCenterRepository) Update(ctx context.Context, center *models.Center) error {
	args := m.Called(ctx, center)
	return args.Error(0)
}

func (m *MockCenterRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockCenterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCenterRepository) List(ctx context.Context) ([]*models.Center, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Center), args.Error(1)
}

type MockInventoryItemRepository struct {
	mock.Mock
}

func (m *MockInventoryItemRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockInventoryItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryItemRepository) Update(ctx context.Context, item *models.InventoryItem, expectedVersion int) error {
	args := m.Called(ctx, item, expectedVersion)
	return args.Error(0)
}

func (m *MockInventoryItemRepository) Delete(ctx context.Context, centerID, id uuid.UUID) error {
	args := m.Called(ctx, centerID, id)
	return args.Error(0)
}

func (m *MockInventoryItemRepository) ListByCenter(ctx context.Context, centerID uuid.UUID, filter *models.ItemSearchFilter) ([]*models.InventoryItem, error) {
	args := m.Called(ctx, centerID, filter)
	return args.Get(0).([]*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryItemRepository) ListSurplusExcluding(ctx context.Context, centerID uuid.UUID, filter *models.SurplusFilter) ([]*models.InventoryItem, error) {
	args := m.Called(ctx, centerID, filter)
	return args.Get(0).([]*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryItemRepository) List(ctx context.Context) ([]*models.InventoryItem, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.InventoryItem), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Complete(ctx context.Context, txn *models.Transaction, at time.Time) error {
	args := m.Called(ctx, txn, at)
	return args.Error(0)
}

func (m *MockTransactionRepository) Reject(ctx context.Context, id, rejectedBy uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, rejectedBy, at)
	return args.Error(0)
}

func (m *MockTransactionRepository) ListForCenter(ctx context.Context, centerID uuid.UUID) ([]*models.Transaction, error) {
	args := m.Called(ctx, centerID)
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context) ([]*models.Transaction, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Save(ctx context.Context, name string, data []byte, contentType string) (*StoredSnapshot, error) {
	args := m.Called(ctx, name, data, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*StoredSnapshot), args.Error(1)
}

func (m *MockSnapshotStore) Prune(ctx context.Context, keep int) ([]string, error) {
	args := m.Called(ctx, keep)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
