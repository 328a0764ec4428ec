package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdash/internal/domain/models"
	"github.com/mamadbah2/farmdash/internal/service/analytics"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AnalyticsService is the analytics surface used over HTTP.
type AnalyticsService interface {
	Refresh(ctx context.Context) (bool, error)
	RefreshStale(ctx context.Context) (bool, error)
	State() models.AnalyticsState
	Snapshot() *models.Snapshot
	Invalidate(collection string)
}

// WorkbookExporter renders a snapshot as XLSX.
type WorkbookExporter interface {
	ExportWorkbook(snap *models.Snapshot) ([]byte, error)
}

// AnalyticsHandler serves the dashboard state and its exports.
type AnalyticsHandler struct {
	svc      AnalyticsService
	exporter WorkbookExporter
	logger   *zap.Logger
}

// NewAnalyticsHandler constructs the HTTP handler adapter.
func NewAnalyticsHandler(svc AnalyticsService, exporter WorkbookExporter, logger *zap.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsHandler{svc: svc, exporter: exporter, logger: logger}
}

// State refreshes when stale and returns the dashboard state. Refresh
// failures are reported through the state's error field.
func (h *AnalyticsHandler) State(c *gin.Context) {
	if _, err := h.svc.RefreshStale(c.Request.Context()); err != nil {
		if errors.Is(err, analytics.ErrServiceClosed) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		h.logger.Debug("refresh before state failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, h.svc.State())
}

// Refresh forces a fetch cycle, subject to the cooldown.
func (h *AnalyticsHandler) Refresh(c *gin.Context) {
	refreshed, err := h.svc.Refresh(c.Request.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, analytics.ErrServiceClosed) {
			status = http.StatusServiceUnavailable
		}
		h.logger.Warn("manual refresh failed", zap.Error(err))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	resp := models.RefreshResponse{Refreshed: refreshed}
	if snap := h.svc.Snapshot(); snap != nil {
		resp.CycleID = snap.CycleID
	}
	c.JSON(http.StatusOK, resp)
}

// Alerts returns the top alerts. limit=0 or no limit returns all of them.
func (h *AnalyticsHandler) Alerts(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	if _, err := h.svc.RefreshStale(c.Request.Context()); err != nil {
		h.logger.Debug("refresh before alerts failed", zap.Error(err))
	}
	snap := h.svc.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analytics not ready"})
		return
	}

	alerts := models.TopAlerts(snap.Alerts, limit)
	if alerts == nil {
		alerts = []models.Alert{}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts, "total": len(snap.Alerts)})
}

// Export streams the current snapshot as an XLSX workbook.
func (h *AnalyticsHandler) Export(c *gin.Context) {
	if _, err := h.svc.RefreshStale(c.Request.Context()); err != nil {
		h.logger.Debug("refresh before export failed", zap.Error(err))
	}
	snap := h.svc.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analytics not ready"})
		return
	}

	data, err := h.exporter.ExportWorkbook(snap)
	if err != nil {
		h.logger.Error("failed exporting workbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	filename := fmt.Sprintf("farmdash-%s.xlsx", snap.ComputedAt.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
