package payments

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes payment status endpoints
type Handler struct {
	client *Client
	hub    *PushHub
	logger *zap.Logger
}

// NewHandler creates a new payments handler
func NewHandler(client *Client, hub *PushHub, logger *zap.Logger) *Handler {
	return &Handler{
		client: client,
		hub:    hub,
		logger: logger,
	}
}

// RegisterRoutes registers payment routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/payments")
	{
		payments.GET("/:id/status", h.getStatus)
		payments.GET("/ws", h.subscribe)
	}
}

// getStatus handles GET /api/v1/payments/:id/status
func (h *Handler) getStatus(c *gin.Context) {
	paymentID := c.Param("id")

	status, err := h.client.GetPaymentStatus(c.Request.Context(), paymentID)
	if err != nil {
		h.logger.Error("Failed to get payment status",
			zap.String("payment_id", paymentID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"paymentId": paymentID, "status": status})
}

// subscribe handles GET /api/v1/payments/ws?payment_id=...
func (h *Handler) subscribe(c *gin.Context) {
	paymentID := c.Query("payment_id")
	if paymentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment_id is required"})
		return
	}

	if err := h.hub.Subscribe(c.Writer, c.Request, paymentID); err != nil {
		h.logger.Error("Failed to upgrade status subscription",
			zap.String("payment_id", paymentID), zap.Error(err))
	}
}
