package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type systemHealth struct {
	Database int `json:"database"`
	Uptime   int `json:"uptime"`
	Memory   int `json:"memory"`
}

type dashboardStats struct {
	TotalPatients    int          `json:"totalPatients"`
	CriticalPatients int          `json:"criticalPatients"`
	InventoryItems   int          `json:"inventoryItems"`
	LowStockItems    int          `json:"lowStockItems"`
	SystemHealth     systemHealth `json:"systemHealth"`
}

// Fixed figures shown by the dashboard until it is backed by real queries.
var staticDashboardStats = dashboardStats{
	TotalPatients:    128,
	CriticalPatients: 3,
	InventoryItems:   2847,
	LowStockItems:    12,
	SystemHealth: systemHealth{
		Database: 98,
		Uptime:   100,
		Memory:   67,
	},
}

// DashboardStats handles GET /dashboard/stats.
//
// @Summary      Dashboard summary figures
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  dashboardStats
// @Router       /dashboard/stats [get]
func DashboardStats(c echo.Context) error {
	return c.JSON(http.StatusOK, staticDashboardStats)
}
