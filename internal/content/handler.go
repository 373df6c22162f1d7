package content

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes informational pages
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a content handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers content routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	pages := router.Group("/development-projects")
	{
		pages.GET("", h.list)
		pages.GET("/:slug", h.getBySlug)
	}
}

func (h *Handler) list(c *gin.Context) {
	pages, err := h.service.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list development projects", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": pages, "count": len(pages)})
}

func (h *Handler) getBySlug(c *gin.Context) {
	slug := c.Param("slug")

	page, err := h.service.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, ErrPageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
			return
		}
		h.logger.Error("Failed to load development project", zap.Error(err), zap.String("slug", slug))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, page)
}
