package handlers

import (
	"net/http"

	"helpkart/internal/services"

	"github.com/labstack/echo/v4"
)

type DashboardHandlers struct {
	dashboardService services.DashboardService
}

func NewDashboardHandlers(dashboardService services.DashboardService) *DashboardHandlers {
	return &DashboardHandlers{dashboardService: dashboardService}
}

// GetDashboard returns the caller's summary
func (h *DashboardHandlers) GetDashboard(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	summary, err := h.dashboardService.Summary(c.Request().Context(), centerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}
