package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/ecomdash/backend/internal/application/dashboard"
	"github.com/ecomdash/backend/internal/infrastructure/scheduler"
	"github.com/ecomdash/backend/internal/interfaces/http/dto"
	"github.com/ecomdash/backend/internal/interfaces/http/middleware"
)

const csvContentType = "text/csv; charset=utf-8"

// RefreshSchedule exposes the state of the background refresh job
type RefreshSchedule interface {
	IsRunning() bool
	LastRun() (scheduler.RunStatus, bool)
	NextRun() time.Time
}

// DashboardHandler serves the dashboard views, the CSV exports and the
// dataset administration endpoints
type DashboardHandler struct {
	BaseHandler
	service  *dashboard.DashboardService
	schedule RefreshSchedule
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(service *dashboard.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// SetRefreshSchedule sets the refresh scheduler for status reporting
func (h *DashboardHandler) SetRefreshSchedule(schedule RefreshSchedule) {
	h.schedule = schedule
}

// ===================== Response DTOs =====================

// ScheduleStatus describes the background refresh job
type ScheduleStatus struct {
	Active           bool                 `json:"active"`
	NextRun          *time.Time           `json:"next_run,omitempty"`
	LastRun          *scheduler.RunStatus `json:"last_run,omitempty"`
	LastRunSucceeded *bool                `json:"last_run_succeeded,omitempty"`
}

// DatasetStatusResponse is the body of the dataset status endpoint
type DatasetStatusResponse struct {
	dashboard.DatasetStatus
	Schedule *ScheduleStatus `json:"schedule,omitempty"`
}

// ===================== Views =====================

// Navigation godoc
// @Summary      List the dashboard views and the region options
// @Tags         dashboard
// @Produce      json
// @Router       /dashboard/views [get]
func (h *DashboardHandler) Navigation(c *gin.Context) {
	nav, err := h.service.Navigation(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, nav)
}

// Overview godoc
// @Summary      Key metrics, monthly revenue and top categories
// @Tags         dashboard
// @Produce      json
// @Router       /dashboard/views/overview [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	view, err := h.service.Overview(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// ShippingDelays godoc
// @Summary      Delivery and carrier delay distributions
// @Tags         dashboard
// @Produce      json
// @Router       /dashboard/views/shipping-delays [get]
func (h *DashboardHandler) ShippingDelays(c *gin.Context) {
	view, err := h.service.ShippingDelays(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// SalesByRegion godoc
// @Summary      Monthly order amount per selected region
// @Tags         dashboard
// @Produce      json
// @Param        region query []string false "Region codes; repeat or comma separate. Absent selects all."
// @Router       /dashboard/views/sales-by-region [get]
func (h *DashboardHandler) SalesByRegion(c *gin.Context) {
	filter, ok := h.regionFilter(c)
	if !ok {
		return
	}
	view, err := h.service.SalesByRegion(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// HighDelayByRegion godoc
// @Summary      Share of high delay reviews per region with the order map
// @Tags         dashboard
// @Produce      json
// @Router       /dashboard/views/high-delay-by-region [get]
func (h *DashboardHandler) HighDelayByRegion(c *gin.Context) {
	view, err := h.service.HighDelayByRegion(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// View godoc
// @Summary      Build a view by slug
// @Tags         dashboard
// @Produce      json
// @Param        slug path string true "View slug"
// @Router       /dashboard/views/{slug} [get]
func (h *DashboardHandler) View(c *gin.Context) {
	var req dto.ViewRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if !dashboard.IsView(req.Slug) {
		h.Fail(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, fmt.Sprintf("Unknown view %q", req.Slug))
		return
	}
	filter, ok := h.regionFilter(c)
	if !ok {
		return
	}
	view, err := h.service.ViewBySlug(c.Request.Context(), req.Slug, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// ===================== Exports =====================

// ExportRegionDelayStats godoc
// @Summary      Download the high delay by region table as CSV
// @Tags         exports
// @Produce      text/csv
// @Router       /dashboard/exports/region-delay-stats.csv [get]
func (h *DashboardHandler) ExportRegionDelayStats(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.service.ExportRegionDelayStats(c.Request.Context(), &buf); err != nil {
		h.HandleError(c, err)
		return
	}
	h.attachment(c, "region_delay_stats.csv", buf.Bytes())
}

// ExportRegionSales godoc
// @Summary      Download the sales by region rows as CSV
// @Tags         exports
// @Produce      text/csv
// @Param        region query []string false "Region codes; repeat or comma separate. Absent selects all."
// @Router       /dashboard/exports/region-sales.csv [get]
func (h *DashboardHandler) ExportRegionSales(c *gin.Context) {
	filter, ok := h.regionFilter(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.service.ExportRegionSales(c.Request.Context(), &buf, filter); err != nil {
		h.HandleError(c, err)
		return
	}
	h.attachment(c, "region_sales.csv", buf.Bytes())
}

func (h *DashboardHandler) attachment(c *gin.Context, filename string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, csvContentType, body)
}

// ===================== Dataset =====================

// DatasetStatus godoc
// @Summary      Describe the cached dataset without loading it
// @Tags         dataset
// @Produce      json
// @Router       /dashboard/dataset/status [get]
func (h *DashboardHandler) DatasetStatus(c *gin.Context) {
	resp := DatasetStatusResponse{DatasetStatus: h.service.Status()}
	if h.schedule != nil {
		sched := &ScheduleStatus{Active: h.schedule.IsRunning()}
		if next := h.schedule.NextRun(); !next.IsZero() {
			sched.NextRun = &next
		}
		if last, ok := h.schedule.LastRun(); ok {
			succeeded := last.Succeeded()
			sched.LastRun = &last
			sched.LastRunSucceeded = &succeeded
		}
		resp.Schedule = sched
	}
	h.Success(c, resp)
}

// RefreshDataset godoc
// @Summary      Reload the dataset from its source, keeping the cached copy on failure
// @Tags         dataset
// @Produce      json
// @Router       /dashboard/dataset/refresh [post]
func (h *DashboardHandler) RefreshDataset(c *gin.Context) {
	status, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, DatasetStatusResponse{DatasetStatus: *status})
}

// ClearDatasetCache godoc
// @Summary      Drop the cached dataset; the next view loads it from its source
// @Tags         dataset
// @Produce      json
// @Param        scope query string false "source (default) or all"
// @Router       /dashboard/dataset/cache [delete]
func (h *DashboardHandler) ClearDatasetCache(c *gin.Context) {
	var req dto.ClearCacheRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	status := h.service.ClearCache(c.Request.Context(), dashboard.CacheScope(req.Scope))
	h.Success(c, DatasetStatusResponse{DatasetStatus: status})
}

// regionFilter reads the region query. An absent parameter selects every
// region; a present one selects exactly the listed codes, which may be none.
// It writes the validation error response and returns false on bad input.
func (h *DashboardHandler) regionFilter(c *gin.Context) (dashboard.RegionFilter, bool) {
	values, present := c.GetQueryArray("region")
	if !present {
		return dashboard.AllRegions(), true
	}

	query := dto.RegionQuery{Regions: make([]string, 0, len(values))}
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				query.Regions = append(query.Regions, part)
			}
		}
	}
	if err := binding.Validator.ValidateStruct(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return dashboard.RegionFilter{}, false
	}
	return dashboard.SelectRegions(query.Regions...), true
}
