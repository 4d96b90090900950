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

type RequestService interface {
	PostRequest(ctx context.Context, centerID uuid.UUID, input *PostRequestInput) (*models.Request, error)
	ListMyRequests(ctx context.Context, centerID uuid.UUID) (*models.MyRequests, error)
	ListOpenNetworkRequests(ctx context.Context, centerID uuid.UUID, filter *models.RequestFilter) ([]*models.Request, error)
	DeleteRequest(ctx context.Context, centerID, requestID uuid.UUID) error
	MarkFulfilled(ctx context.Context, callerID, requestID, fulfillingCenterID uuid.UUID) (*models.Request, error)
}

// PostRequestInput is the payload for posting a need to the network
type PostRequestInput struct {
	ItemName       string `json:"item_name"`
	QuantityNeeded int    `json:"quantity_needed"`
	Unit           string `json:"unit"`
	Urgency        string `json:"urgency"`
	Description    string `json:"description"`
}

type requestService struct {
	centerRepo  repositories.CenterRepository
	requestRepo repositories.RequestRepository
	txnRepo     repositories.TransactionRepository
	cache       caching.CacheService
	logger      *zap.Logger
}

func NewRequestService(centerRepo repositories.CenterRepository, requestRepo repositories.RequestRepository, txnRepo repositories.TransactionRepository, cache caching.CacheService, logger *zap.Logger) RequestService {
	return &requestService{
		centerRepo:  centerRepo,
		requestRepo: requestRepo,
		txnRepo:     txnRepo,
		cache:       cache,
		logger:      logger,
	}
}

func (s *requestService) PostRequest(ctx context.Context, centerID uuid.UUID, input *PostRequestInput) (*models.Request, error) {
	if err := common.ValidateRequiredString(input.ItemName, "item_name"); err != nil {
		return nil, err
	}
	if err := common.ValidatePositiveInteger(input.QuantityNeeded, "quantity_needed", maxItemQuantity); err != nil {
		return nil, err
	}
	if !models.IsValidUnit(input.Unit) {
		return nil, common.NewValidationError("unit", "must be one of "+strings.Join(models.Units, ", "))
	}
	urgency := input.Urgency
	if urgency == "" {
		urgency = models.UrgencyNormal
	}
	if !models.IsValidUrgency(urgency) {
		return nil, common.NewValidationError("urgency", "must be critical, normal or low")
	}

	now := time.Now().UTC()
	request := &models.Request{
		ID:             uuid.New(),
		CenterID:       centerID,
		ItemName:       strings.TrimSpace(input.ItemName),
		QuantityNeeded: input.QuantityNeeded,
		Unit:           input.Unit,
		Urgency:        urgency,
		Description:    strings.TrimSpace(input.Description),
		Status:         models.RequestStatusOpen,
		RequestedOn:    now,
		UpdatedAt:      now,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	// Every center's dashboard lists recent network requests
	if err := s.cache.InvalidateAllDashboards(ctx); err != nil {
		s.logger.Warn("failed to invalidate dashboards", zap.Error(err))
	}
	return request, nil
}

func (s *requestService) ListMyRequests(ctx context.Context, centerID uuid.UUID) (*models.MyRequests, error) {
	requests, err := s.requestRepo.ListByCenter(ctx, centerID)
	if err != nil {
		return nil, err
	}

	mine := &models.MyRequests{
		Open:      []*models.Request{},
		Fulfilled: []*models.Request{},
	}
	for _, r := range requests {
		if r.Fulfilled {
			mine.Fulfilled = append(mine.Fulfilled, r)
		} else {
			mine.Open = append(mine.Open, r)
		}
	}
	return mine, nil
}

func (s *requestService) ListOpenNetworkRequests(ctx context.Context, centerID uuid.UUID, filter *models.RequestFilter) ([]*models.Request, error) {
	if filter != nil && filter.Urgency != nil && !models.IsValidUrgency(*filter.Urgency) {
		return nil, common.NewValidationError("urgency", "must be critical, normal or low")
	}
	return s.requestRepo.ListOpenExcluding(ctx, centerID, filter)
}

func (s *requestService) ownedRequest(ctx context.Context, centerID, requestID uuid.UUID) (*models.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.CenterID != centerID {
		return nil, fmt.Errorf("request %s belongs to another center: %w", requestID, common.ErrForbidden)
	}
	return request, nil
}

func (s *requestService) DeleteRequest(ctx context.Context, centerID, requestID uuid.UUID) error {
	if _, err := s.ownedRequest(ctx, centerID, requestID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.requestRepo.Delete(ctx, centerID, requestID); err != nil {
		return err
	}

	if err := s.cache.InvalidateAllDashboards(ctx); err != nil {
		s.logger.Warn("failed to invalidate dashboards", zap.Error(err))
	}
	return nil
}

// MarkFulfilled closes the caller's own request, crediting fulfillingCenterID
func (s *requestService) MarkFulfilled(ctx context.Context, callerID, requestID, fulfillingCenterID uuid.UUID) (*models.Request, error) {
	request, err := s.ownedRequest(ctx, callerID, requestID)
	if err != nil {
		return nil, err
	}
	if request.Fulfilled {
		return nil, fmt.Errorf("request %s is already fulfilled: %w", requestID, common.ErrInvalidState)
	}
	if fulfillingCenterID == request.CenterID {
		return nil, common.NewValidationError("fulfilled_by", "a center cannot fulfill its own request")
	}
	if _, err := s.centerRepo.GetByID(ctx, fulfillingCenterID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.requestRepo.MarkFulfilled(ctx, requestID, fulfillingCenterID, now); err != nil {
		return nil, err
	}

	request.Fulfilled = true
	request.Status = models.RequestStatusFulfilled
	request.FulfilledBy = &fulfillingCenterID
	request.FulfilledAt = &now
	request.UpdatedAt = now
	if request.QuantityFulfilled < request.QuantityNeeded {
		request.QuantityFulfilled = request.QuantityNeeded
	}

	if err := s.cache.InvalidateAllDashboards(ctx); err != nil {
		s.logger.Warn("failed to invalidate dashboards", zap.Error(err))
	}
	return request, nil
}
