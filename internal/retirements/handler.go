package retirements

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"forestblock/marketplace/marketplace-backend/internal/auth"
)

// Handler exposes retirement order endpoints
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new retirements handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers retirement routes. All of them require a
// session.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/retirements")
	{
		orders.GET("", h.listOrders)
		orders.GET("/:id", h.getOrder)
		orders.GET("/:id/certificate", h.getCertificate)
	}
}

// listOrders handles GET /api/v1/retirements
func (h *Handler) listOrders(c *gin.Context) {
	userID := auth.UserID(c)

	orders, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list retirement orders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// getOrder handles GET /api/v1/retirements/:id
func (h *Handler) getOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	order, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		h.logger.Error("Failed to get retirement order", zap.Error(err), zap.String("order_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if order.UserID != auth.UserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// getCertificate handles GET /api/v1/retirements/:id/certificate
func (h *Handler) getCertificate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	order, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if order.UserID != auth.UserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	url, err := h.service.CertificateURL(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to presign certificate", zap.Error(err), zap.String("order_id", id.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
