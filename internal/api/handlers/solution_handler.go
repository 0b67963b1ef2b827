package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beancore/beanminer/internal/storage"
)

// SolutionHandler handles solution API requests
type SolutionHandler struct {
	store *storage.SolutionStore
}

// NewSolutionHandler creates a new SolutionHandler
func NewSolutionHandler(store *storage.SolutionStore) *SolutionHandler {
	return &SolutionHandler{store: store}
}

// GetByHeader returns every recorded solution for a header hash
// GET /api/v1/solutions/:hash
func (h *SolutionHandler) GetByHeader(c *gin.Context) {
	hash := c.Param("hash")

	solutions, err := h.store.GetByHeader(hash)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(solutions) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No solutions found for header"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"header_hash": hash,
		"solutions":   solutions,
	})
}
