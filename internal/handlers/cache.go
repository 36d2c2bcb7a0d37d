package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/habitflow/backend/internal/cache"
)

// CacheHandler exposes operational hooks for the analytics cache.
// These routes sit under /admin and are not part of the public API.
type CacheHandler struct {
	cache *cache.Cache
}

// NewCacheHandler creates a new cache admin handler
func NewCacheHandler(c *cache.Cache) *CacheHandler {
	return &CacheHandler{cache: c}
}

// Metrics handles GET /admin/cache/metrics
func (h *CacheHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.cache.Metrics())
}

// Invalidate handles POST /admin/cache/invalidate/:userID
func (h *CacheHandler) Invalidate(c *gin.Context) {
	userID := c.Param("userID")
	h.cache.InvalidateUser(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"invalidated": userID})
}
