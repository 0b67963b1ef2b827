package api

import (
	"github.com/gin-gonic/gin"

	"github.com/beancore/beanminer/internal/api/handlers"
	"github.com/beancore/beanminer/internal/api/middleware"
	"github.com/beancore/beanminer/internal/config"
	"github.com/beancore/beanminer/internal/miner"
	"github.com/beancore/beanminer/internal/storage"
)

// Router wraps the Gin router with handlers
type Router struct {
	engine          *gin.Engine
	headerHandler   *handlers.HeaderHandler
	jobHandler      *handlers.JobHandler
	solutionHandler *handlers.SolutionHandler
}

// NewRouter creates a new Router with all handlers. source may be nil when
// no daemon connection is configured; header lookups then answer from the
// cache only and jobs require a raw header.
func NewRouter(
	source handlers.HeaderSource,
	headerStore *storage.HeaderStore,
	solutionStore *storage.SolutionStore,
	manager *miner.Manager,
	minerCfg config.MinerConfig,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine:          gin.New(),
		headerHandler:   handlers.NewHeaderHandler(source, headerStore),
		jobHandler:      handlers.NewJobHandler(manager, source, minerCfg),
		solutionHandler: handlers.NewSolutionHandler(solutionStore),
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// setupMiddleware configures middleware
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.Logger())
	r.engine.Use(middleware.CORS())
}

// setupRoutes configures API routes
func (r *Router) setupRoutes() {
	// Health check
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := r.engine.Group("/api/v1")
	{
		headers := v1.Group("/headers")
		{
			headers.GET("/height/:height", r.headerHandler.GetByHeight)
			headers.GET("/hash/:hash", r.headerHandler.GetByHash)
		}

		jobs := v1.Group("/jobs")
		{
			jobs.POST("", r.jobHandler.Create)
			jobs.GET("/:id", r.jobHandler.Get)
		}

		v1.GET("/solutions/:hash", r.solutionHandler.GetByHeader)
	}
}

// Engine returns the underlying Gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
