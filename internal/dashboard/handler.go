package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes dashboard endpoints
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new dashboard handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers dashboard routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	dash := router.Group("/dashboard")
	{
		dash.GET("/summary", h.getSummary)
		dash.GET("/export", h.export)
	}
}

// getSummary handles GET /api/v1/dashboard/summary?wallet=0x...
func (h *Handler) getSummary(c *gin.Context) {
	wallet := c.Query("wallet")
	if wallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet is required"})
		return
	}

	summary, err := h.service.GetSummary(c.Request.Context(), wallet)
	if err != nil {
		h.logger.Error("Failed to get retirement summary", zap.Error(err), zap.String("wallet", wallet))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// export handles GET /api/v1/dashboard/export?wallet=0x...&format=csv
func (h *Handler) export(c *gin.Context) {
	wallet := c.Query("wallet")
	if wallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet is required"})
		return
	}
	format := c.DefaultQuery("format", "csv")

	data, contentType, filename, err := h.service.Export(c.Request.Context(), wallet, format)
	if err != nil {
		h.logger.Error("Failed to export retirement history", zap.Error(err), zap.String("wallet", wallet))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}
