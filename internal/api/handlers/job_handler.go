package handlers

import (
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beancore/beanminer/internal/config"
	"github.com/beancore/beanminer/internal/header"
	"github.com/beancore/beanminer/internal/miner"
	"github.com/beancore/beanminer/internal/models"
)

// JobHandler handles search job API requests
type JobHandler struct {
	manager  *miner.Manager
	source   HeaderSource
	defaults config.MinerConfig
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(manager *miner.Manager, source HeaderSource, defaults config.MinerConfig) *JobHandler {
	return &JobHandler{
		manager:  manager,
		source:   source,
		defaults: defaults,
	}
}

// jobRequest selects a header and bounds a search over it. Exactly one of
// header_hex, hash, height or template picks the header; the rest tune the
// search.
type jobRequest struct {
	HeaderHex string `json:"header_hex"`
	Hash      string `json:"hash"`
	Height    *int64 `json:"height"` // pointer so height 0 is distinguishable from absent
	Template  bool   `json:"template"`

	Start      *uint32 `json:"start"`
	End        uint32  `json:"end"` // inclusive; 0 means 0xffffffff
	Difficulty float64 `json:"difficulty"`
	Workers    int     `json:"workers"`
}

// Create starts a background nonce search and returns the new job
// POST /api/v1/jobs
func (h *JobHandler) Create(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	hdr, ok := h.resolveHeader(c, req)
	if !ok {
		return
	}

	opts := miner.Options{
		Start:   h.defaults.StartNonce,
		End:     req.End,
		Workers: h.defaults.Workers,
	}
	if req.Start != nil {
		opts.Start = *req.Start
	}
	if req.Workers > 0 {
		opts.Workers = req.Workers
	}
	if req.Difficulty != 0 {
		target, err := header.DifficultyToTarget(req.Difficulty)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts.Target = target
	}
	if opts.End != 0 && opts.End < opts.Start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nonce range end is below start"})
		return
	}

	job := h.manager.Start(hdr, opts)
	c.JSON(http.StatusAccepted, models.NewJobInfo(job))
}

// Get returns the current state of a job
// GET /api/v1/jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	job, ok := h.manager.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}
	c.JSON(http.StatusOK, models.NewJobInfo(job))
}

// resolveHeader turns the request's header selector into a decoded header.
// It writes the error response itself and reports success via ok.
func (h *JobHandler) resolveHeader(c *gin.Context, req jobRequest) (header.BlockHeader, bool) {
	switch {
	case req.HeaderHex != "":
		raw, err := hex.DecodeString(req.HeaderHex)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid header_hex: " + err.Error()})
			return header.BlockHeader{}, false
		}
		hdr, err := header.Decode(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return header.BlockHeader{}, false
		}
		return hdr, true

	case req.Hash != "":
		if h.source == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No daemon connection"})
			return header.BlockHeader{}, false
		}
		hdr, err := h.source.HeaderByHash(req.Hash)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return header.BlockHeader{}, false
		}
		return hdr, true

	case req.Height != nil:
		if h.source == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No daemon connection"})
			return header.BlockHeader{}, false
		}
		hdr, _, err := h.source.HeaderByHeight(*req.Height)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return header.BlockHeader{}, false
		}
		return hdr, true

	case req.Template:
		if h.source == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No daemon connection"})
			return header.BlockHeader{}, false
		}
		hdr, err := h.source.WorkTemplate()
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return header.BlockHeader{}, false
		}
		return hdr, true

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "One of header_hex, hash, height or template is required"})
		return header.BlockHeader{}, false
	}
}
