package services

import (
	"context"
	"time"

	"helpkart/internal/caching"
	"helpkart/internal/models"
	"helpkart/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const recentListingLimit = 5

type DashboardService interface {
	Summary(ctx context.Context, centerID uuid.UUID) (*models.DashboardSummary, error)
	// RefreshAll recomputes and caches the summary of every center
	RefreshAll(ctx context.Context) (int, error)
}

type dashboardService struct {
	centerRepo  repositories.CenterRepository
	itemRepo    repositories.InventoryItemRepository
	requestRepo repositories.RequestRepository
	txnRepo     repositories.TransactionRepository
	cache       caching.CacheService
	ttl         time.Duration
	logger      *zap.Logger
}

func NewDashboardService(
	centerRepo repositories.CenterRepository,
	itemRepo repositories.InventoryItemRepository,
	requestRepo repositories.RequestRepository,
	txnRepo repositories.TransactionRepository,
	cache caching.CacheService,
	ttl time.Duration,
	logger *zap.Logger,
) DashboardService {
	return &dashboardService{
		centerRepo:  centerRepo,
		itemRepo:    itemRepo,
		requestRepo: requestRepo,
		txnRepo:     txnRepo,
		cache:       cache,
		ttl:         ttl,
		logger:      logger,
	}
}

func (s *dashboardService) Summary(ctx context.Context, centerID uuid.UUID) (*models.DashboardSummary, error) {
	cached, err := s.cache.GetDashboard(ctx, centerID)
	if err != nil {
		s.logger.Warn("failed to read dashboard cache", zap.String("center_id", centerID.String()), zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	summary, err := s.build(ctx, centerID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetDashboard(ctx, summary, s.ttl); err != nil {
		s.logger.Warn("failed to cache dashboard", zap.String("center_id", centerID.String()), zap.Error(err))
	}
	return summary, nil
}

func (s *dashboardService) build(ctx context.Context, centerID uuid.UUID) (*models.DashboardSummary, error) {
	items, err := s.itemRepo.ListByCenter(ctx, centerID, nil)
	if err != nil {
		return nil, err
	}
	requests, err := s.requestRepo.ListByCenter(ctx, centerID)
	if err != nil {
		return nil, err
	}
	txns, err := s.txnRepo.ListForCenter(ctx, centerID)
	if err != nil {
		return nil, err
	}
	network, err := s.requestRepo.ListOpenExcluding(ctx, centerID, nil)
	if err != nil {
		return nil, err
	}

	summary := &models.DashboardSummary{
		CenterID:    centerID,
		Inventory:   Metrics(items),
		GeneratedAt: time.Now().UTC(),
	}
	for _, r := range requests {
		if !r.Fulfilled {
			summary.ActiveRequests++
		}
	}
	for _, t := range txns {
		switch t.Status {
		case models.TransactionStatusPending:
			summary.PendingTransactions++
		case models.TransactionStatusCompleted:
			summary.CompletedTransactions++
		}
	}

	if len(items) > recentListingLimit {
		items = items[:recentListingLimit]
	}
	summary.RecentItems = items

	if len(network) > recentListingLimit {
		network = network[:recentListingLimit]
	}
	summary.RecentNetworkRequests = requestListings(ctx, s.centerRepo, s.logger, network)
	return summary, nil
}

func (s *dashboardService) RefreshAll(ctx context.Context) (int, error) {
	centers, err := s.centerRepo.List(ctx)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, center := range centers {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		summary, err := s.build(ctx, center.ID)
		if err != nil {
			s.logger.Error("failed to build dashboard", zap.String("center_id", center.ID.String()), zap.Error(err))
			continue
		}
		if err := s.cache.SetDashboard(ctx, summary, s.ttl); err != nil {
			s.logger.Warn("failed to cache dashboard", zap.String("center_id", center.ID.String()), zap.Error(err))
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// invalidateDashboards drops the cached summaries of centers touched by a
// mutation. Cache failures are logged and otherwise ignored.
func invalidateDashboards(ctx context.Context, cache caching.CacheService, logger *zap.Logger, centerIDs ...uuid.UUID) {
	if err := cache.InvalidateDashboards(ctx, centerIDs...); err != nil {
		logger.Warn("failed to invalidate dashboards", zap.Int("centers", len(centerIDs)), zap.Error(err))
	}
}
