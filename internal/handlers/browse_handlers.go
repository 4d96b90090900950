package handlers

import (
	"net/http"

	"helpkart/internal/models"
	"helpkart/internal/services"

	"github.com/labstack/echo/v4"
)

// BrowseHandlers serves the network-wide surplus and request views
type BrowseHandlers struct {
	browseService services.BrowseService
}

func NewBrowseHandlers(browseService services.BrowseService) *BrowseHandlers {
	return &BrowseHandlers{browseService: browseService}
}

func (h *BrowseHandlers) Surplus(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	filter := &models.SurplusFilter{
		Query:    c.QueryParam("query"),
		Category: optionalQuery(c, "category"),
		SortBy:   c.QueryParam("sort_by"),
	}

	listings, err := h.browseService.Surplus(c.Request().Context(), centerID, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": listings})
}

func (h *BrowseHandlers) SurplusByCenter(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	groups, err := h.browseService.SurplusByCenter(c.Request().Context(), centerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"centers": groups})
}

func (h *BrowseHandlers) NetworkRequests(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	filter := &models.RequestFilter{
		Query:   c.QueryParam("query"),
		Urgency: optionalQuery(c, "urgency"),
		SortBy:  c.QueryParam("sort_by"),
	}
	if filter.Urgency != nil && !models.IsValidUrgency(*filter.Urgency) {
		return echo.NewHTTPError(http.StatusBadRequest, "urgency must be critical, normal or low")
	}

	listings, err := h.browseService.NetworkRequests(c.Request().Context(), centerID, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"requests": listings})
}
