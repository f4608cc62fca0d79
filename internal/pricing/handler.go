package pricing

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// --------------------------------------------------
// Trigger a cost sync
// --------------------------------------------------
func (h *Handler) Sync(c *gin.Context) {
	report, err := h.service.SyncPrices(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report": report,
		"text":   report.Render(),
	})
}

// --------------------------------------------------
// Current catalog-wide cost map
// --------------------------------------------------
func (h *Handler) Costs(c *gin.Context) {
	costs, err := h.service.Costs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"costs": costs})
}

// --------------------------------------------------
// Most recent sync report
// --------------------------------------------------
func (h *Handler) LatestReport(c *gin.Context) {
	report, err := h.service.LatestReport(c.Request.Context())
	if err != nil {
		if errors.Is(err, ErrNoRuns) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report": report,
		"text":   report.Render(),
	})
}
