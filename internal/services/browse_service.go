package services

import (
	"context"
	"sort"
	"strings"

	"helpkart/internal/models"
	"helpkart/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BrowseService joins other centers' surplus and requests with display names
type BrowseService interface {
	Surplus(ctx context.Context, centerID uuid.UUID, filter *models.SurplusFilter) ([]*models.SurplusListing, error)
	SurplusByCenter(ctx context.Context, centerID uuid.UUID) ([]*models.CenterSurplus, error)
	NetworkRequests(ctx context.Context, centerID uuid.UUID, filter *models.RequestFilter) ([]*models.RequestListing, error)
}

type browseService struct {
	centerRepo  repositories.CenterRepository
	itemRepo    repositories.InventoryItemRepository
	requestRepo repositories.RequestRepository
	logger      *zap.Logger
}

func NewBrowseService(centerRepo repositories.CenterRepository, itemRepo repositories.InventoryItemRepository, requestRepo repositories.RequestRepository, logger *zap.Logger) BrowseService {
	return &browseService{
		centerRepo:  centerRepo,
		itemRepo:    itemRepo,
		requestRepo: requestRepo,
		logger:      logger,
	}
}

func (s *browseService) Surplus(ctx context.Context, centerID uuid.UUID, filter *models.SurplusFilter) ([]*models.SurplusListing, error) {
	items, err := s.itemRepo.ListSurplusExcluding(ctx, centerID, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.CenterID)
	}
	names := centerNames(ctx, s.centerRepo, s.logger, ids)

	listings := make([]*models.SurplusListing, 0, len(items))
	for _, item := range items {
		listings = append(listings, &models.SurplusListing{InventoryItem: item, CenterName: names(item.CenterID)})
	}
	return listings, nil
}

func (s *browseService) SurplusByCenter(ctx context.Context, centerID uuid.UUID) ([]*models.CenterSurplus, error) {
	listings, err := s.Surplus(ctx, centerID, &models.SurplusFilter{SortBy: "name"})
	if err != nil {
		return nil, err
	}

	groups := make(map[uuid.UUID]*models.CenterSurplus)
	for _, listing := range listings {
		group, ok := groups[listing.CenterID]
		if !ok {
			group = &models.CenterSurplus{CenterID: listing.CenterID, CenterName: listing.CenterName}
			groups[listing.CenterID] = group
		}
		group.Items = append(group.Items, listing.InventoryItem)
	}

	result := make([]*models.CenterSurplus, 0, len(groups))
	for _, group := range groups {
		result = append(result, group)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := strings.ToLower(result[i].CenterName), strings.ToLower(result[j].CenterName)
		if a != b {
			return a < b
		}
		return result[i].CenterID.String() < result[j].CenterID.String()
	})
	return result, nil
}

func (s *browseService) NetworkRequests(ctx context.Context, centerID uuid.UUID, filter *models.RequestFilter) ([]*models.RequestListing, error) {
	requests, err := s.requestRepo.ListOpenExcluding(ctx, centerID, filter)
	if err != nil {
		return nil, err
	}
	return requestListings(ctx, s.centerRepo, s.logger, requests), nil
}

func requestListings(ctx context.Context, centerRepo repositories.CenterRepository, logger *zap.Logger, requests []*models.Request) []*models.RequestListing {
	ids := make([]uuid.UUID, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.CenterID)
	}
	names := centerNames(ctx, centerRepo, logger, ids)

	listings := make([]*models.RequestListing, 0, len(requests))
	for _, r := range requests {
		listings = append(listings, &models.RequestListing{Request: r, CenterName: names(r.CenterID)})
	}
	return listings
}

// centerNames resolves display names for ids. Missing centers, and every
// center when the lookup fails, resolve to models.UnknownCenterName.
func centerNames(ctx context.Context, centerRepo repositories.CenterRepository, logger *zap.Logger, ids []uuid.UUID) func(uuid.UUID) string {
	var centers map[uuid.UUID]*models.Center
	if len(ids) > 0 {
		var err error
		centers, err = centerRepo.GetByIDs(ctx, ids)
		if err != nil {
			logger.Warn("failed to resolve center names", zap.Int("centers", len(ids)), zap.Error(err))
		}
	}
	return func(id uuid.UUID) string {
		if center, ok := centers[id]; ok {
			return center.Name
		}
		return models.UnknownCenterName
	}
}
