package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/beancore/beanminer/internal/header"
	"github.com/beancore/beanminer/internal/models"
	"github.com/beancore/beanminer/internal/storage"
)

// HeaderSource fetches block headers from a chain daemon. *rpc.NodeClient
// implements it; handlers accept a nil source and answer from the cache only.
type HeaderSource interface {
	HeaderByHeight(height int64) (header.BlockHeader, int64, error)
	HeaderByHash(hash string) (header.BlockHeader, error)
	WorkTemplate() (header.BlockHeader, error)
}

// HeaderHandler handles header-related API requests
type HeaderHandler struct {
	source HeaderSource
	store  *storage.HeaderStore
}

// NewHeaderHandler creates a new HeaderHandler
func NewHeaderHandler(source HeaderSource, store *storage.HeaderStore) *HeaderHandler {
	return &HeaderHandler{
		source: source,
		store:  store,
	}
}

// GetByHeight returns the header at a height. Negative heights index back
// from the chain tip (-1 is the tip) and always go to the daemon.
// GET /api/v1/headers/height/:height
func (h *HeaderHandler) GetByHeight(c *gin.Context) {
	height, err := strconv.ParseInt(c.Param("height"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid height"})
		return
	}

	if height >= 0 {
		info, err := h.store.GetByHeight(height)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if info != nil {
			c.JSON(http.StatusOK, info)
			return
		}
	}

	if h.source == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Header not cached and no daemon connection"})
		return
	}

	hdr, resolved, err := h.source.HeaderByHeight(height)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	info := models.NewHeaderInfo(hdr, resolved)
	if err := h.store.Save(info); err != nil {
		log.Printf("[API] Failed to cache header %s: %v", info.Hash, err)
	}
	c.JSON(http.StatusOK, info)
}

// GetByHash returns the header with the given display-order hash
// GET /api/v1/headers/hash/:hash
func (h *HeaderHandler) GetByHash(c *gin.Context) {
	hash := c.Param("hash")

	info, err := h.store.GetByHash(hash)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if info != nil {
		c.JSON(http.StatusOK, info)
		return
	}

	if h.source == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Header not cached and no daemon connection"})
		return
	}

	hdr, err := h.source.HeaderByHash(hash)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	info = models.NewHeaderInfo(hdr, -1)
	if err := h.store.Save(info); err != nil {
		log.Printf("[API] Failed to cache header %s: %v", info.Hash, err)
	}
	c.JSON(http.StatusOK, info)
}
