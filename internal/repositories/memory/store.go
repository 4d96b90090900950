// Package memory holds an in-process implementation of the repositories used
// by tests and the local demo mode. All four collections share one lock so
// multi-record mutations are atomic, mirroring the SQL transactions of the
// PostgreSQL repositories.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"helpkart/internal/common"
	"helpkart/internal/models"
	"helpkart/internal/repositories"

	"github.com/google/uuid"
)

type Store struct {
	mu           sync.RWMutex
	centers      map[uuid.UUID]*models.Center
	items        map[uuid.UUID]*models.InventoryItem
	requests     map[uuid.UUID]*models.Request
	transactions map[uuid.UUID]*models.Transaction
}

func NewStore() *Store {
	return &Store{
		centers:      make(map[uuid.UUID]*models.Center),
		items:        make(map[uuid.UUID]*models.InventoryItem),
		requests:     make(map[uuid.UUID]*models.Request),
		transactions: make(map[uuid.UUID]*models.Transaction),
	}
}

func (s *Store) Centers() repositories.CenterRepository { return &centerRepo{s} }

func (s *Store) Items() repositories.InventoryItemRepository { return &itemRepo{s} }

func (s *Store) Requests() repositories.RequestRepository { return &requestRepo{s} }

func (s *Store) Transactions() repositories.TransactionRepository { return &transactionRepo{s} }

func copyCenter(c *models.Center) *models.Center {
	cp := *c
	return &cp
}

func copyItem(i *models.InventoryItem) *models.InventoryItem {
	cp := *i
	return &cp
}

func copyRequest(r *models.Request) *models.Request {
	cp := *r
	return &cp
}

func copyTransaction(t *models.Transaction) *models.Transaction {
	cp := *t
	return &cp
}

// releaseAndReject rejects every pending transaction matching match and gives
// back its reservation. Caller holds the write lock.
func (s *Store) releaseAndReject(rejectedBy uuid.UUID, at time.Time, match func(*models.Transaction) bool) {
	for _, txn := range s.transactions {
		if txn.Status != models.TransactionStatusPending || !match(txn) {
			continue
		}
		if txn.InventoryItemID != nil {
			if item, ok := s.items[*txn.InventoryItemID]; ok {
				item.ReservedQuantity -= txn.Quantity
				if item.ReservedQuantity < 0 {
					item.ReservedQuantity = 0
				}
				item.Version++
				item.UpdatedAt = at
			}
		}
		txn.Status = models.TransactionStatusRejected
		by := rejectedBy
		txn.RejectedBy = &by
		txn.TransactionDate = at
	}
}

// rejectOpenOffers rejects, on behalf of the request owner, the pending
// transactions still drawn against request other than keep.
func (s *Store) rejectOpenOffers(request *models.Request, keep uuid.UUID, at time.Time) {
	s.releaseAndReject(request.CenterID, at, func(t *models.Transaction) bool {
		return t.ID != keep && t.RequestID != nil && *t.RequestID == request.ID
	})
}

type centerRepo struct{ s *Store }

func (r *centerRepo) Create(ctx context.Context, center *models.Center) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.centers {
		if strings.EqualFold(existing.Email, center.Email) {
			return common.ErrDuplicateEmail
		}
	}
	r.s.centers[center.ID] = copyCenter(center)
	return nil
}

func (r *centerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Center, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	center, ok := r.s.centers[id]
	if !ok {
		return nil, common.NotFoundError("center")
	}
	return copyCenter(center), nil
}

func (r *centerRepo) GetByEmail(ctx context.Context, email string) (*models.Center, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, center := range r.s.centers {
		if strings.EqualFold(center.Email, email) {
			return copyCenter(center), nil
		}
	}
	return nil, common.NotFoundError("center")
}

func (r *centerRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Center, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	centers := make(map[uuid.UUID]*models.Center, len(ids))
	for _, id := range ids {
		if center, ok := r.s.centers[id]; ok {
			centers[id] = copyCenter(center)
		}
	}
	return centers, nil
}

func (r *centerRepo) Update(ctx context.Context, center *models.Center) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.centers[center.ID]
	if !ok {
		return common.NotFoundError("center")
	}
	existing.Name = center.Name
	existing.Phone = center.Phone
	existing.Address = center.Address
	existing.Latitude = center.Latitude
	existing.Longitude = center.Longitude
	existing.Status = center.Status
	existing.UpdatedAt = center.UpdatedAt
	return nil
}

func (r *centerRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.centers[id]
	if !ok {
		return common.NotFoundError("center")
	}
	existing.PasswordHash = passwordHash
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *centerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.releaseAndReject(id, time.Now().UTC(), func(t *models.Transaction) bool {
		return t.FromCenterID == id || t.ToCenterID == id
	})
	for itemID, item := range r.s.items {
		if item.CenterID == id {
			delete(r.s.items, itemID)
		}
	}
	for requestID, request := range r.s.requests {
		if request.CenterID == id {
			delete(r.s.requests, requestID)
		}
	}
	delete(r.s.centers, id)
	return nil
}

func (r *centerRepo) List(ctx context.Context) ([]*models.Center, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	centers := make([]*models.Center, 0, len(r.s.centers))
	for _, center := range r.s.centers {
		centers = append(centers, copyCenter(center))
	}
	sort.Slice(centers, func(i, j int) bool { return centers[i].CreatedAt.After(centers[j].CreatedAt) })
	return centers, nil
}

type itemRepo struct{ s *Store }

func (r *itemRepo) Create(ctx context.Context, item *models.InventoryItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item.ReservedQuantity = 0
	item.Version = 1
	r.s.items[item.ID] = copyItem(item)
	return nil
}

func (r *itemRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	item, ok := r.s.items[id]
	if !ok {
		return nil, common.NotFoundError("inventory item")
	}
	return copyItem(item), nil
}

func (r *itemRepo) Update(ctx context.Context, item *models.InventoryItem, expectedVersion int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.items[item.ID]
	if !ok || existing.CenterID != item.CenterID || existing.Version != expectedVersion || item.Quantity < existing.ReservedQuantity {
		return fmt.Errorf("inventory item %s: %w", item.ID, common.ErrConflict)
	}
	existing.Name = item.Name
	existing.Category = item.Category
	existing.Quantity = item.Quantity
	existing.Unit = item.Unit
	existing.Classification = item.Classification
	existing.Notes = item.Notes
	existing.ExpiryDate = item.ExpiryDate
	existing.UpdatedAt = item.UpdatedAt
	existing.Version++
	item.Version = existing.Version
	item.ReservedQuantity = existing.ReservedQuantity
	return nil
}

func (r *itemRepo) Delete(ctx context.Context, centerID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.items[id]
	if !ok || item.CenterID != centerID {
		return nil
	}
	r.s.releaseAndReject(centerID, time.Now().UTC(), func(t *models.Transaction) bool {
		return t.InventoryItemID != nil && *t.InventoryItemID == id
	})
	delete(r.s.items, id)
	return nil
}

func (r *itemRepo) ListByCenter(ctx context.Context, centerID uuid.UUID, filter *models.ItemSearchFilter) ([]*models.InventoryItem, error) {
	if filter == nil {
		filter = &models.ItemSearchFilter{}
	}
	query := strings.ToLower(common.SanitizeSearchQuery(filter.Query))

	r.s.mu.RLock()
	var items []*models.InventoryItem
	for _, item := range r.s.items {
		if item.CenterID != centerID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(item.Name), query) {
			continue
		}
		if filter.Category != nil && item.Category != *filter.Category {
			continue
		}
		if filter.Classification != nil && item.Classification != *filter.Classification {
			continue
		}
		if filter.MinQuantity != nil && item.Quantity < *filter.MinQuantity {
			continue
		}
		items = append(items, copyItem(item))
	}
	r.s.mu.RUnlock()

	sortItems(items, filter.SortBy, filter.SortOrder)

	if filter.Offset > 0 {
		if filter.Offset >= len(items) {
			return nil, nil
		}
		items = items[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (r *itemRepo) ListSurplusExcluding(ctx context.Context, centerID uuid.UUID, filter *models.SurplusFilter) ([]*models.InventoryItem, error) {
	if filter == nil {
		filter = &models.SurplusFilter{}
	}
	query := strings.ToLower(common.SanitizeSearchQuery(filter.Query))

	r.s.mu.RLock()
	var items []*models.InventoryItem
	for _, item := range r.s.items {
		if item.CenterID == centerID || !item.IsSurplus() {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(item.Name), query) {
			continue
		}
		if filter.Category != nil && item.Category != *filter.Category {
			continue
		}
		items = append(items, copyItem(item))
	}
	r.s.mu.RUnlock()

	sortItems(items, filter.SortBy, "")
	return items, nil
}

func (r *itemRepo) List(ctx context.Context) ([]*models.InventoryItem, error) {
	r.s.mu.RLock()
	items := make([]*models.InventoryItem, 0, len(r.s.items))
	for _, item := range r.s.items {
		items = append(items, copyItem(item))
	}
	r.s.mu.RUnlock()

	sortItems(items, "", "")
	return items, nil
}

// sortItems orders items the same way itemOrderBy does in SQL.
func sortItems(items []*models.InventoryItem, sortBy, sortOrder string) {
	asc := false
	var less func(a, b *models.InventoryItem) bool
	switch strings.ToLower(sortBy) {
	case "name":
		asc = true
		less = func(a, b *models.InventoryItem) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case "quantity":
		less = func(a, b *models.InventoryItem) bool { return a.Quantity < b.Quantity }
	default:
		less = func(a, b *models.InventoryItem) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
	if sortOrder != "" {
		asc = common.ValidateSortOrder(sortOrder) == "ASC"
	}
	sort.SliceStable(items, func(i, j int) bool {
		if asc {
			return less(items[i], items[j])
		}
		return less(items[j], items[i])
	})
}

type requestRepo struct{ s *Store }

func (r *requestRepo) Create(ctx context.Context, request *models.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	request.QuantityFulfilled = 0
	request.Status = models.RequestStatusOpen
	request.Fulfilled = false
	r.s.requests[request.ID] = copyRequest(request)
	return nil
}

func (r *requestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	request, ok := r.s.requests[id]
	if !ok {
		return nil, common.NotFoundError("request")
	}
	return copyRequest(request), nil
}

func (r *requestRepo) ListByCenter(ctx context.Context, centerID uuid.UUID) ([]*models.Request, error) {
	r.s.mu.RLock()
	var requests []*models.Request
	for _, request := range r.s.requests {
		if request.CenterID == centerID {
			requests = append(requests, copyRequest(request))
		}
	}
	r.s.mu.RUnlock()

	sortRequests(requests, "")
	return requests, nil
}

func (r *requestRepo) ListOpenExcluding(ctx context.Context, centerID uuid.UUID, filter *models.RequestFilter) ([]*models.Request, error) {
	if filter == nil {
		filter = &models.RequestFilter{}
	}
	query := strings.ToLower(common.SanitizeSearchQuery(filter.Query))

	r.s.mu.RLock()
	var requests []*models.Request
	for _, request := range r.s.requests {
		if request.CenterID == centerID || request.Fulfilled {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(request.ItemName), query) {
			continue
		}
		if filter.Urgency != nil && request.Urgency != *filter.Urgency {
			continue
		}
		requests = append(requests, copyRequest(request))
	}
	r.s.mu.RUnlock()

	sortRequests(requests, filter.SortBy)
	return requests, nil
}

func (r *requestRepo) MarkFulfilled(ctx context.Context, id, fulfilledBy uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	request, ok := r.s.requests[id]
	if !ok || request.Fulfilled {
		return fmt.Errorf("request %s already fulfilled or removed: %w", id, common.ErrInvalidState)
	}
	fulfill(request, fulfilledBy, at)
	if request.QuantityFulfilled < request.QuantityNeeded {
		request.QuantityFulfilled = request.QuantityNeeded
	}
	r.s.rejectOpenOffers(request, uuid.Nil, at)
	return nil
}

func (r *requestRepo) Delete(ctx context.Context, centerID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	request, ok := r.s.requests[id]
	if !ok || request.CenterID != centerID {
		return nil
	}
	r.s.rejectOpenOffers(request, uuid.Nil, time.Now().UTC())
	delete(r.s.requests, id)
	return nil
}

func (r *requestRepo) List(ctx context.Context) ([]*models.Request, error) {
	r.s.mu.RLock()
	requests := make([]*models.Request, 0, len(r.s.requests))
	for _, request := range r.s.requests {
		requests = append(requests, copyRequest(request))
	}
	r.s.mu.RUnlock()

	sortRequests(requests, "")
	return requests, nil
}

func fulfill(request *models.Request, by uuid.UUID, at time.Time) {
	request.Fulfilled = true
	request.Status = models.RequestStatusFulfilled
	fulfilledBy := by
	fulfilledAt := at
	request.FulfilledBy = &fulfilledBy
	request.FulfilledAt = &fulfilledAt
	request.UpdatedAt = at
}

func sortRequests(requests []*models.Request, sortBy string) {
	sort.SliceStable(requests, func(i, j int) bool {
		if strings.ToLower(sortBy) == "urgency" {
			ri, rj := models.UrgencyRank(requests[i].Urgency), models.UrgencyRank(requests[j].Urgency)
			if ri != rj {
				return ri < rj
			}
		}
		return requests[i].RequestedOn.After(requests[j].RequestedOn)
	})
}

type transactionRepo struct{ s *Store }

func (r *transactionRepo) Create(ctx context.Context, txn *models.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if txn.InventoryItemID != nil {
		item, ok := r.s.items[*txn.InventoryItemID]
		if !ok || item.CenterID != txn.FromCenterID || item.Available() < txn.Quantity {
			return fmt.Errorf("inventory item %s no longer has %d available: %w", *txn.InventoryItemID, txn.Quantity, common.ErrConflict)
		}
		item.ReservedQuantity += txn.Quantity
		item.Version++
		item.UpdatedAt = txn.CreatedAt
	}
	txn.Status = models.TransactionStatusPending
	txn.TransactionDate = txn.CreatedAt
	r.s.transactions[txn.ID] = copyTransaction(txn)
	return nil
}

func (r *transactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	txn, ok := r.s.transactions[id]
	if !ok {
		return nil, common.NotFoundError("transaction")
	}
	return copyTransaction(txn), nil
}

func (r *transactionRepo) Complete(ctx context.Context, txn *models.Transaction, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.transactions[txn.ID]
	if !ok || stored.Status != models.TransactionStatusPending {
		return fmt.Errorf("transaction %s is no longer pending: %w", txn.ID, common.ErrInvalidState)
	}

	// Validate every side effect before applying any of them.
	var item *models.InventoryItem
	if stored.InventoryItemID != nil {
		item, ok = r.s.items[*stored.InventoryItemID]
		if !ok || item.ReservedQuantity < stored.Quantity {
			return fmt.Errorf("inventory item %s reservation missing: %w", *stored.InventoryItemID, common.ErrConflict)
		}
	}
	var request *models.Request
	if stored.RequestID != nil {
		request, ok = r.s.requests[*stored.RequestID]
		if !ok || request.Fulfilled {
			return fmt.Errorf("request %s already fulfilled or removed: %w", *stored.RequestID, common.ErrInvalidState)
		}
	}

	if item != nil {
		item.Quantity -= stored.Quantity
		item.ReservedQuantity -= stored.Quantity
		item.Version++
		item.UpdatedAt = at
	}
	if request != nil {
		request.QuantityFulfilled += stored.Quantity
		request.UpdatedAt = at
		if request.QuantityFulfilled >= request.QuantityNeeded {
			fulfill(request, stored.FromCenterID, at)
			r.s.rejectOpenOffers(request, stored.ID, at)
		}
	}

	completedAt := at
	stored.Status = models.TransactionStatusCompleted
	stored.CompletedAt = &completedAt
	stored.TransactionDate = at

	txn.Status = stored.Status
	txn.CompletedAt = &at
	txn.TransactionDate = at
	return nil
}

func (r *transactionRepo) Reject(ctx context.Context, id, rejectedBy uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.transactions[id]
	if !ok || stored.Status != models.TransactionStatusPending {
		return fmt.Errorf("transaction %s is no longer pending: %w", id, common.ErrInvalidState)
	}
	r.s.releaseAndReject(rejectedBy, at, func(t *models.Transaction) bool { return t.ID == id })
	return nil
}

func (r *transactionRepo) ListForCenter(ctx context.Context, centerID uuid.UUID) ([]*models.Transaction, error) {
	r.s.mu.RLock()
	var txns []*models.Transaction
	for _, txn := range r.s.transactions {
		if txn.IsParty(centerID) {
			txns = append(txns, copyTransaction(txn))
		}
	}
	r.s.mu.RUnlock()

	sortTransactions(txns)
	return txns, nil
}

func (r *transactionRepo) List(ctx context.Context) ([]*models.Transaction, error) {
	r.s.mu.RLock()
	txns := make([]*models.Transaction, 0, len(r.s.transactions))
	for _, txn := range r.s.transactions {
		txns = append(txns, copyTransaction(txn))
	}
	r.s.mu.RUnlock()

	sortTransactions(txns)
	return txns, nil
}

func sortTransactions(txns []*models.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].TransactionDate.After(txns[j].TransactionDate)
	})
}
