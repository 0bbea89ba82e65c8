package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/jobscout/api/handler"
	"github.com/use-agent/jobscout/api/middleware"
	"github.com/use-agent/jobscout/cache"
	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/store"
	"github.com/use-agent/jobscout/webhook"
)

// Version is reported by the health endpoint.
const Version = "0.3.0"

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger → CORS
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoints are outside auth so monitoring probes always work.
func NewRouter(sc handler.JobScraper, st store.Store, cc *cache.Cache, wh *webhook.Notifier, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	health := handler.Health(sc, startTime, Version)
	r.GET("/health", health)

	v1 := r.Group("/api/v1")
	v1.GET("/health", health)

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	jobs := protected.Group("/jobs")
	jobs.POST("/upload", handler.UploadJob(sc, st, cc, wh))
	jobs.GET("", handler.ListJobs(st))
	jobs.POST("/search", handler.SearchJobs(st))
	jobs.POST("/test-scraper", handler.TestScraper())
	jobs.POST("/diagnostics/scrape", handler.DiagnoseScrape(sc, cfg.Diagnostics))
	jobs.GET("/:id", handler.GetJob(st))
	jobs.DELETE("/:id", handler.DeleteJob(st, cc, wh))

	return r
}
