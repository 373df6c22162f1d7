package registry

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes the registry proxy endpoints and the marketplace
// listing reads
type Handler struct {
	client  *Client
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new registry handler
func NewHandler(client *Client, service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		client:  client,
		service: service,
		logger:  logger,
	}
}

// RegisterProxyRoutes registers the upstream pass-through endpoints.
// They re-expose the registry API under this application's origin with
// the server-side API key injected.
func (h *Handler) RegisterProxyRoutes(router *gin.RouterGroup) {
	carbon := router.Group("/carbon")
	{
		carbon.GET("/carbonProjects", h.proxyProjects)
		carbon.GET("/prices", h.proxyPrices)
	}
}

// RegisterRoutes registers the marketplace listing routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	marketplace := router.Group("/marketplace")
	{
		marketplace.GET("/projects", h.listProjects)
		marketplace.GET("/projects/:key", h.getProject)
	}
}

// proxyProjects handles GET /api/carbon/carbonProjects
func (h *Handler) proxyProjects(c *gin.Context) {
	raw, err := h.client.RawProjects(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to proxy projects", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// proxyPrices handles GET /api/carbon/prices
func (h *Handler) proxyPrices(c *gin.Context) {
	raw, err := h.client.RawPrices(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to proxy prices", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// listProjects handles GET /api/v1/marketplace/projects
func (h *Handler) listProjects(c *gin.Context) {
	market, err := h.service.Market(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load market", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	projects := market.Projects
	if country := c.Query("country"); country != "" {
		projects = filterProjects(projects, func(p Project) bool { return p.Country == country })
	}
	if category := c.Query("category"); category != "" {
		projects = filterProjects(projects, func(p Project) bool {
			for _, m := range p.Methodologies {
				if m.Category == category {
					return true
				}
			}
			return false
		})
	}
	if vintage := c.Query("vintage"); vintage != "" {
		projects = filterProjects(projects, func(p Project) bool {
			for _, v := range p.Vintages {
				if v == vintage {
					return true
				}
			}
			return false
		})
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects, "count": len(projects)})
}

// getProject handles GET /api/v1/marketplace/projects/:key
func (h *Handler) getProject(c *gin.Context) {
	key := c.Param("key")

	project, err := h.service.Project(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		h.logger.Error("Failed to get project", zap.Error(err), zap.String("key", key))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, project)
}

func filterProjects(projects []Project, keep func(Project) bool) []Project {
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
