package checkout

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"forestblock/marketplace/marketplace-backend/internal/auth"
	"forestblock/marketplace/marketplace-backend/internal/payments"
	"forestblock/marketplace/marketplace-backend/internal/workflow"
)

// Handler handles checkout HTTP requests
type Handler struct {
	service *Service
	store   workflow.Store
	logger  *zap.Logger
}

// NewHandler creates a new checkout handler
func NewHandler(service *Service, store workflow.Store, logger *zap.Logger) *Handler {
	return &Handler{service: service, store: store, logger: logger}
}

// RegisterRoutes registers checkout routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	checkout := router.Group("/checkout")
	{
		checkout.POST("/resolve", h.resolve)
		checkout.POST("/submit", h.submit)
		checkout.GET("/:id", h.getState)
	}
}

// resolve handles POST /api/v1/checkout/resolve
func (h *Handler) resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.Resolve(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err, "Failed to resolve checkout")
		return
	}

	c.JSON(http.StatusOK, res)
}

// submit handles POST /api/v1/checkout/submit
func (h *Handler) submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Submit(c.Request.Context(), auth.UserID(c), &req)
	if err != nil {
		h.respondError(c, err, "Failed to submit checkout")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// getState handles GET /api/v1/checkout/:id
func (h *Handler) getState(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid checkout ID"})
		return
	}

	state, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "checkout not found"})
			return
		}
		h.logger.Error("Failed to load checkout state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if state.UserID != auth.UserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "checkout not found"})
		return
	}

	c.JSON(http.StatusOK, state)
}

// respondError maps domain errors to HTTP responses, surfacing the
// payment backend's own message when one was provided.
func (h *Handler) respondError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, ErrNoListing),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInsufficientSupply),
		errors.Is(err, ErrMissingPaymentMethod):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	var backendErr *payments.BackendError
	if errors.As(err, &backendErr) {
		h.logger.Warn(logMsg, zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": backendErr.Error()})
		return
	}

	h.logger.Error(logMsg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
