package handlers

import (
	"net/http"

	"boutique_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// DashboardHandler holds the dashboard service.
type DashboardHandler struct {
	dashboardService services.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(ds services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: ds}
}

// GetInventoryDashboard returns the read-only inventory rollup for the
// caller's shop.
func (h *DashboardHandler) GetInventoryDashboard(c *gin.Context) {
	_, shopID, ok := identity(c)
	if !ok {
		return
	}

	dashboard, err := h.dashboardService.GetDashboard(shopID)
	if err != nil {
		respondServiceError(c, "GetInventoryDashboard", err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
