package services

import (
	"context"
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

// Transaction directions from the viewing center's side
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// TransactionService moves goods between centers through a pending,
// approve-or-reject lifecycle
type TransactionService interface {
	RequestSurplus(ctx context.Context, recipientID uuid.UUID, input *RequestSurplusInput) (*models.Transaction, error)
	OfferFulfillment(ctx context.Context, supplierID uuid.UUID, input *OfferInput) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, input *CreateTransactionInput) (*models.Transaction, error)

	ApproveTransaction(ctx context.Context, callerID, txnID uuid.UUID) (*models.Transaction, error)
	RejectTransaction(ctx context.Context, callerID, txnID uuid.UUID) (*models.Transaction, error)

	GetTransaction(ctx context.Context, callerID, txnID uuid.UUID) (*models.TransactionView, error)
	ListTransactionsFor(ctx context.Context, centerID uuid.UUID) (*models.TransactionHistory, error)
}

// RequestSurplusInput asks another center for part of a surplus item
type RequestSurplusInput struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
	Message  string    `json:"message"`
}

// OfferInput offers to fill another center's request, optionally from one of
// the supplier's own items
type OfferInput struct {
	RequestID uuid.UUID  `json:"request_id"`
	Quantity  int        `json:"quantity"`
	Message   string     `json:"message"`
	ItemID    *uuid.UUID `json:"item_id,omitempty"`
}

// CreateTransactionInput is a fully resolved pending transaction between two
// centers. InventoryItemID, when set, is reserved on creation.
type CreateTransactionInput struct {
	FromCenterID    uuid.UUID
	ToCenterID      uuid.UUID
	InitiatedBy     uuid.UUID
	Kind            string
	InventoryItemID *uuid.UUID
	RequestID       *uuid.UUID
	ItemName        string
	Quantity        int
	Unit            string
	Message         string
}

type transactionService struct {
	centerRepo  repositories.CenterRepository
	itemRepo    repositories.InventoryItemRepository
	requestRepo repositories.RequestRepository
	txnRepo     repositories.TransactionRepository
	cache       caching.CacheService
	logger      *zap.Logger
}

func NewTransactionService(
	centerRepo repositories.CenterRepository,
	itemRepo repositories.InventoryItemRepository,
	requestRepo repositories.RequestRepository,
	txnRepo repositories.TransactionRepository,
	cache caching.CacheService,
	logger *zap.Logger,
) TransactionService {
	return &transactionService{
		centerRepo:  centerRepo,
		itemRepo:    itemRepo,
		requestRepo: requestRepo,
		txnRepo:     txnRepo,
		cache:       cache,
		logger:      logger,
	}
}

func (s *transactionService) RequestSurplus(ctx context.Context, recipientID uuid.UUID, input *RequestSurplusInput) (*models.Transaction, error) {
	item, err := s.itemRepo.GetByID(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}
	if item.CenterID == recipientID {
		return nil, common.NewValidationError("item_id", "cannot request your own item")
	}
	if !item.IsSurplus() {
		return nil, common.NewValidationError("item_id", "item is not offered as surplus")
	}
	if input.Quantity <= 0 {
		return nil, common.NewValidationError("quantity", "must be positive")
	}
	if err := checkAvailable(item, input.Quantity); err != nil {
		return nil, err
	}

	itemID := item.ID
	return s.CreateTransaction(ctx, &CreateTransactionInput{
		FromCenterID:    item.CenterID,
		ToCenterID:      recipientID,
		InitiatedBy:     recipientID,
		Kind:            models.TransactionKindRequest,
		InventoryItemID: &itemID,
		ItemName:        item.Name,
		Quantity:        input.Quantity,
		Unit:            item.Unit,
		Message:         input.Message,
	})
}

func (s *transactionService) OfferFulfillment(ctx context.Context, supplierID uuid.UUID, input *OfferInput) (*models.Transaction, error) {
	request, err := s.requestRepo.GetByID(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if request.CenterID == supplierID {
		return nil, common.NewValidationError("request_id", "cannot offer to your own request")
	}
	if request.Fulfilled {
		return nil, fmt.Errorf("request %s is already fulfilled: %w", request.ID, common.ErrInvalidState)
	}
	if input.Quantity <= 0 {
		return nil, common.NewValidationError("quantity", "must be positive")
	}
	if input.Quantity > request.Remaining() {
		return nil, common.NewValidationError("quantity", fmt.Sprintf("only %d %s still needed", request.Remaining(), request.Unit))
	}

	if input.ItemID != nil {
		item, err := s.itemRepo.GetByID(ctx, *input.ItemID)
		if err != nil {
			return nil, err
		}
		if item.CenterID != supplierID {
			return nil, fmt.Errorf("inventory item %s belongs to another center: %w", item.ID, common.ErrForbidden)
		}
		if err := checkAvailable(item, input.Quantity); err != nil {
			return nil, err
		}
	}

	requestID := request.ID
	return s.CreateTransaction(ctx, &CreateTransactionInput{
		FromCenterID:    supplierID,
		ToCenterID:      request.CenterID,
		InitiatedBy:     supplierID,
		Kind:            models.TransactionKindOffer,
		InventoryItemID: input.ItemID,
		RequestID:       &requestID,
		ItemName:        request.ItemName,
		Quantity:        input.Quantity,
		Unit:            request.Unit,
		Message:         input.Message,
	})
}

func (s *transactionService) CreateTransaction(ctx context.Context, input *CreateTransactionInput) (*models.Transaction, error) {
	if input.FromCenterID == input.ToCenterID {
		return nil, common.NewValidationError("to_center_id", "a center cannot transact with itself")
	}
	if input.InitiatedBy != input.FromCenterID && input.InitiatedBy != input.ToCenterID {
		return nil, common.NewValidationError("initiated_by", "must be one of the parties")
	}
	if input.Kind != models.TransactionKindRequest && input.Kind != models.TransactionKindOffer {
		return nil, common.NewValidationError("kind", "must be request or offer")
	}
	if err := common.ValidatePositiveInteger(input.Quantity, "quantity", maxItemQuantity); err != nil {
		return nil, err
	}
	if err := common.ValidateRequiredString(input.ItemName, "item_name"); err != nil {
		return nil, err
	}

	centers, err := s.centerRepo.GetByIDs(ctx, []uuid.UUID{input.FromCenterID, input.ToCenterID})
	if err != nil {
		return nil, err
	}
	for _, id := range []uuid.UUID{input.FromCenterID, input.ToCenterID} {
		if _, ok := centers[id]; !ok {
			return nil, fmt.Errorf("center %s: %w", id, common.ErrNotFound)
		}
	}

	txn := &models.Transaction{
		ID:              uuid.New(),
		FromCenterID:    input.FromCenterID,
		ToCenterID:      input.ToCenterID,
		InitiatedBy:     input.InitiatedBy,
		Kind:            input.Kind,
		InventoryItemID: input.InventoryItemID,
		RequestID:       input.RequestID,
		ItemName:        strings.TrimSpace(input.ItemName),
		Quantity:        input.Quantity,
		Unit:            input.Unit,
		Message:         strings.TrimSpace(input.Message),
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.txnRepo.Create(ctx, txn); err != nil {
		return nil, err
	}

	s.logger.Info("transaction created",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("kind", txn.Kind),
		zap.String("from_center_id", txn.FromCenterID.String()),
		zap.String("to_center_id", txn.ToCenterID.String()),
		zap.Int("quantity", txn.Quantity),
	)
	invalidateDashboards(ctx, s.cache, s.logger, txn.FromCenterID, txn.ToCenterID)
	return txn, nil
}

// checkAvailable rejects quantities the item can never cover as invalid, and
// quantities only blocked by other pending reservations as a conflict.
func checkAvailable(item *models.InventoryItem, quantity int) error {
	if quantity > item.Quantity {
		return common.NewValidationError("quantity", fmt.Sprintf("only %d %s in stock", item.Quantity, item.Unit))
	}
	if quantity > item.Available() {
		return fmt.Errorf("only %d %s not already reserved: %w", item.Available(), item.Unit, common.ErrConflict)
	}
	return nil
}

// partyTransaction loads txnID and checks that callerID is one of its parties
func (s *transactionService) partyTransaction(ctx context.Context, callerID, txnID uuid.UUID) (*models.Transaction, error) {
	txn, err := s.txnRepo.GetByID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if !txn.IsParty(callerID) {
		return nil, fmt.Errorf("transaction %s: %w", txnID, common.ErrForbidden)
	}
	return txn, nil
}

func (s *transactionService) ApproveTransaction(ctx context.Context, callerID, txnID uuid.UUID) (*models.Transaction, error) {
	txn, err := s.partyTransaction(ctx, callerID, txnID)
	if err != nil {
		return nil, err
	}
	if txn.Approver() != callerID {
		return nil, fmt.Errorf("transaction %s awaits the other party: %w", txnID, common.ErrForbidden)
	}
	if txn.Status != models.TransactionStatusPending {
		return nil, fmt.Errorf("transaction %s is %s: %w", txnID, txn.Status, common.ErrInvalidState)
	}

	if err := s.txnRepo.Complete(ctx, txn, time.Now().UTC()); err != nil {
		return nil, err
	}

	s.logger.Info("transaction approved",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("approved_by", callerID.String()),
	)
	if txn.RequestID != nil {
		// Fulfilled requests drop out of every center's network listing
		if err := s.cache.InvalidateAllDashboards(ctx); err != nil {
			s.logger.Warn("failed to invalidate dashboards", zap.Error(err))
		}
	} else {
		invalidateDashboards(ctx, s.cache, s.logger, txn.FromCenterID, txn.ToCenterID)
	}
	return txn, nil
}

func (s *transactionService) RejectTransaction(ctx context.Context, callerID, txnID uuid.UUID) (*models.Transaction, error) {
	txn, err := s.partyTransaction(ctx, callerID, txnID)
	if err != nil {
		return nil, err
	}
	switch txn.Status {
	case models.TransactionStatusRejected:
		return txn, nil
	case models.TransactionStatusCompleted:
		return nil, fmt.Errorf("transaction %s is already completed: %w", txnID, common.ErrInvalidState)
	}

	now := time.Now().UTC()
	if err := s.txnRepo.Reject(ctx, txnID, callerID, now); err != nil {
		return nil, err
	}
	txn.Status = models.TransactionStatusRejected
	txn.RejectedBy = &callerID
	txn.TransactionDate = now

	s.logger.Info("transaction rejected",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("rejected_by", callerID.String()),
	)
	invalidateDashboards(ctx, s.cache, s.logger, txn.FromCenterID, txn.ToCenterID)
	return txn, nil
}

func (s *transactionService) GetTransaction(ctx context.Context, callerID, txnID uuid.UUID) (*models.TransactionView, error) {
	txn, err := s.partyTransaction(ctx, callerID, txnID)
	if err != nil {
		return nil, err
	}
	names := centerNames(ctx, s.centerRepo, s.logger, []uuid.UUID{txn.Counterparty(callerID)})
	return transactionView(txn, callerID, names), nil
}

// ListTransactionsFor partitions the center's transactions into completed
// ones it received, completed ones it supplied, pending and rejected.
func (s *transactionService) ListTransactionsFor(ctx context.Context, centerID uuid.UUID) (*models.TransactionHistory, error) {
	txns, err := s.txnRepo.ListForCenter(ctx, centerID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(txns))
	for _, t := range txns {
		ids = append(ids, t.Counterparty(centerID))
	}
	names := centerNames(ctx, s.centerRepo, s.logger, ids)

	history := &models.TransactionHistory{
		Received: []*models.TransactionView{},
		Sent:     []*models.TransactionView{},
		Pending:  []*models.TransactionView{},
		Rejected: []*models.TransactionView{},
	}
	for _, t := range txns {
		view := transactionView(t, centerID, names)
		switch t.Status {
		case models.TransactionStatusPending:
			history.Pending = append(history.Pending, view)
		case models.TransactionStatusRejected:
			history.Rejected = append(history.Rejected, view)
		case models.TransactionStatusCompleted:
			if t.ToCenterID == centerID {
				history.Received = append(history.Received, view)
			} else {
				history.Sent = append(history.Sent, view)
			}
		}
	}
	return history, nil
}

func transactionView(txn *models.Transaction, viewer uuid.UUID, names func(uuid.UUID) string) *models.TransactionView {
	counterparty := txn.Counterparty(viewer)
	direction := DirectionOutgoing
	if txn.ToCenterID == viewer {
		direction = DirectionIncoming
	}
	return &models.TransactionView{
		Transaction:      txn,
		CounterpartyID:   counterparty,
		CounterpartyName: names(counterparty),
		Direction:        direction,
		AwaitingMe:       txn.Status == models.TransactionStatusPending && txn.Approver() == viewer,
	}
}
