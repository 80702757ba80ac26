package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cesde/studentinfo-api/internal/service"
	"github.com/cesde/studentinfo-api/pkg/response"
)

// MetricsHandler serves the Prometheus scrape endpoint and a JSON snapshot.
type MetricsHandler struct {
	metrics *service.MetricsService
}

// NewMetricsHandler constructs MetricsHandler.
func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Expose serves the metrics registry in Prometheus text format.
func (h *MetricsHandler) Expose() gin.HandlerFunc {
	return gin.WrapH(h.metrics.Handler())
}

// Snapshot returns the aggregated counters as JSON.
func (h *MetricsHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
