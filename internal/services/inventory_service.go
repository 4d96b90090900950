package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"helpkart/internal/caching"
	"helpkart/internal/common"
	"helpkart/internal/models"
	"helpkart/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxItemQuantity = 1000000

// InventoryService defines the interface for a center's inventory ledger
type InventoryService interface {
	AddItem(ctx context.Context, centerID uuid.UUID, req *AddItemRequest) (*models.InventoryItem, error)
	UpdateItem(ctx context.Context, centerID, itemID uuid.UUID, patch *models.ItemPatch) (*models.InventoryItem, error)
	DeleteItem(ctx context.Context, centerID, itemID uuid.UUID) error
	GetItem(ctx context.Context, centerID, itemID uuid.UUID) (*models.InventoryItem, error)
	ListItems(ctx context.Context, centerID uuid.UUID, filter *models.ItemSearchFilter) ([]*models.InventoryItem, error)
	ListOthersSurplus(ctx context.Context, centerID uuid.UUID, filter *models.SurplusFilter) ([]*models.InventoryItem, error)
}

// AddItemRequest is the payload for stocking a new item
type AddItemRequest struct {
	Name           string     `json:"name"`
	Quantity       int        `json:"quantity"`
	Category       string     `json:"category"`
	Unit           string     `json:"unit"`
	Classification string     `json:"classification"`
	Notes          *string    `json:"notes"`
	ExpiryDate     *time.Time `json:"expiry_date"`
}

type inventoryService struct {
	itemRepo repositories.InventoryItemRepository
	txnRepo  repositories.TransactionRepository
	cache    caching.CacheService
	logger   *zap.Logger
}

func NewInventoryService(itemRepo repositories.InventoryItemRepository, txnRepo repositories.TransactionRepository, cache caching.CacheService, logger *zap.Logger) InventoryService {
	return &inventoryService{
		itemRepo: itemRepo,
		txnRepo:  txnRepo,
		cache:    cache,
		logger:   logger,
	}
}

func validateItemFields(item *models.InventoryItem) error {
	if err := common.ValidateRequiredString(item.Name, "name"); err != nil {
		return err
	}
	if err := common.ValidateNonNegativeInteger(item.Quantity, "quantity", maxItemQuantity); err != nil {
		return err
	}
	if !models.IsValidCategory(item.Category) {
		return common.NewValidationError("category", "must be one of "+strings.Join(models.Categories, ", "))
	}
	if !models.IsValidUnit(item.Unit) {
		return common.NewValidationError("unit", "must be one of "+strings.Join(models.Units, ", "))
	}
	if !models.IsValidClassification(item.Classification) {
		return common.NewValidationError("classification", "must be surplus or in_stock")
	}
	return common.ValidateOptionalString(item.Notes, "notes", 1000)
}

func (s *inventoryService) AddItem(ctx context.Context, centerID uuid.UUID, req *AddItemRequest) (*models.InventoryItem, error) {
	now := time.Now().UTC()
	item := &models.InventoryItem{
		ID:             uuid.New(),
		CenterID:       centerID,
		Name:           strings.TrimSpace(req.Name),
		Category:       req.Category,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		Classification: req.Classification,
		Notes:          req.Notes,
		ExpiryDate:     req.ExpiryDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if item.Category == "" {
		item.Category = models.CategoryOther
	}
	if item.Classification == "" {
		item.Classification = models.ClassificationInStock
	}
	if err := validateItemFields(item); err != nil {
		return nil, err
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	invalidateDashboards(ctx, s.cache, s.logger, centerID)
	return item, nil
}

// ownedItem loads itemID and checks that centerID owns it
func (s *inventoryService) ownedItem(ctx context.Context, centerID, itemID uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.CenterID != centerID {
		return nil, fmt.Errorf("inventory item %s belongs to another center: %w", itemID, common.ErrForbidden)
	}
	return item, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, centerID, itemID uuid.UUID, patch *models.ItemPatch) (*models.InventoryItem, error) {
	item, err := s.ownedItem(ctx, centerID, itemID)
	if err != nil {
		return nil, err
	}
	expectedVersion := item.Version

	if patch.Name != nil {
		item.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.Unit != nil {
		item.Unit = *patch.Unit
	}
	if patch.Classification != nil {
		item.Classification = *patch.Classification
	}
	if patch.Notes != nil {
		item.Notes = patch.Notes
	}
	if patch.ExpiryDate != nil {
		item.ExpiryDate = patch.ExpiryDate
	}
	if err := validateItemFields(item); err != nil {
		return nil, err
	}
	if item.Quantity < item.ReservedQuantity {
		return nil, fmt.Errorf("quantity %d is below the %d reserved by pending transactions: %w",
			item.Quantity, item.ReservedQuantity, common.ErrConflict)
	}
	item.UpdatedAt = time.Now().UTC()

	if err := s.itemRepo.Update(ctx, item, expectedVersion); err != nil {
		return nil, err
	}

	s.invalidateItemDashboards(ctx, centerID, itemID)
	return item, nil
}

func (s *inventoryService) DeleteItem(ctx context.Context, centerID, itemID uuid.UUID) error {
	if _, err := s.ownedItem(ctx, centerID, itemID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}

	// Collect counterparties before their pending transactions are rejected
	affected := s.pendingCounterparties(ctx, centerID, itemID)

	if err := s.itemRepo.Delete(ctx, centerID, itemID); err != nil {
		return err
	}

	invalidateDashboards(ctx, s.cache, s.logger, append(affected, centerID)...)
	return nil
}

// GetItem returns the caller's own item, or another center's surplus item
func (s *inventoryService) GetItem(ctx context.Context, centerID, itemID uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.CenterID != centerID && !item.IsSurplus() {
		return nil, fmt.Errorf("inventory item %s belongs to another center: %w", itemID, common.ErrForbidden)
	}
	return item, nil
}

func (s *inventoryService) ListItems(ctx context.Context, centerID uuid.UUID, filter *models.ItemSearchFilter) ([]*models.InventoryItem, error) {
	if filter == nil {
		filter = &models.ItemSearchFilter{}
	}
	limit, offset, err := common.ValidatePaginationParams(filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = limit, offset

	if filter.Category != nil && !models.IsValidCategory(*filter.Category) {
		return nil, common.NewValidationError("category", "unknown category")
	}
	if filter.Classification != nil && !models.IsValidClassification(*filter.Classification) {
		return nil, common.NewValidationError("classification", "must be surplus or in_stock")
	}
	return s.itemRepo.ListByCenter(ctx, centerID, filter)
}

func (s *inventoryService) ListOthersSurplus(ctx context.Context, centerID uuid.UUID, filter *models.SurplusFilter) ([]*models.InventoryItem, error) {
	if filter != nil && filter.Category != nil && !models.IsValidCategory(*filter.Category) {
		return nil, common.NewValidationError("category", "unknown category")
	}
	return s.itemRepo.ListSurplusExcluding(ctx, centerID, filter)
}

func (s *inventoryService) invalidateItemDashboards(ctx context.Context, centerID, itemID uuid.UUID) {
	affected := s.pendingCounterparties(ctx, centerID, itemID)
	invalidateDashboards(ctx, s.cache, s.logger, append(affected, centerID)...)
}

// pendingCounterparties lists the other parties of pending transactions that
// draw from itemID. Lookup failures only cost cache freshness.
func (s *inventoryService) pendingCounterparties(ctx context.Context, centerID, itemID uuid.UUID) []uuid.UUID {
	txns, err := s.txnRepo.ListForCenter(ctx, centerID)
	if err != nil {
		s.logger.Warn("failed to list transactions for cache invalidation", zap.Error(err))
		return nil
	}
	var ids []uuid.UUID
	for _, t := range txns {
		if t.Status == models.TransactionStatusPending && t.InventoryItemID != nil && *t.InventoryItemID == itemID {
			ids = append(ids, t.Counterparty(centerID))
		}
	}
	return ids
}

// Metrics derives the dashboard inventory figures from items
func Metrics(items []*models.InventoryItem) models.InventoryMetrics {
	metrics := models.InventoryMetrics{CategoryBreakdown: make(map[string]int)}
	for _, item := range items {
		metrics.TotalItems++
		metrics.TotalQuantity += item.Quantity
		switch {
		case item.Quantity == 0:
			metrics.OutOfStock++
		case item.Quantity < models.LowStockThreshold:
			metrics.LowStock++
		}
		if item.IsSurplus() {
			metrics.SurplusItems++
		}
		metrics.CategoryBreakdown[item.Category]++
	}
	return metrics
}
