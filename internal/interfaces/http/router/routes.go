package router

import (
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/ecomdash/backend/internal/interfaces/http/handler"
)

// DashboardRoutes builds the /dashboard group. refreshGuard runs in front of
// the refresh endpoint only.
func DashboardRoutes(h *handler.DashboardHandler, refreshGuard ...gin.HandlerFunc) *Group {
	g := NewGroup("dashboard", "/dashboard")

	g.Group("views", "/views").
		GET("", h.Navigation).
		GET("/overview", h.Overview).
		GET("/shipping-delays", h.ShippingDelays).
		GET("/sales-by-region", h.SalesByRegion).
		GET("/high-delay-by-region", h.HighDelayByRegion).
		GET("/:slug", h.View)

	g.Group("exports", "/exports").
		GET("/region-delay-stats.csv", h.ExportRegionDelayStats).
		GET("/region-sales.csv", h.ExportRegionSales)

	g.Group("dataset", "/dataset").
		GET("/status", h.DatasetStatus).
		POST("/refresh", append(slices.Clip(refreshGuard), h.RefreshDataset)...).
		DELETE("/cache", h.ClearDatasetCache)

	return g
}

// SystemRoutes builds the /system group
func SystemRoutes(h *handler.SystemHandler) *Group {
	return NewGroup("system", "/system").
		GET("/info", h.GetSystemInfo).
		GET("/ping", h.Ping)
}

// RegisterProbes mounts the liveness and readiness probes at the engine root,
// plus a ping at the API root for basic health checks
func RegisterProbes(engine *gin.Engine, h *handler.SystemHandler) {
	engine.GET("/health", h.Health)
	engine.GET("/ready", h.Ready)
	engine.GET("/api/v1/ping", h.Ping)
}
