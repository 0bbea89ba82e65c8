package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/jobscout/models"
)

// Health returns a handler for GET /health.
//
// Reports the scrape manager's counters. Status degrades when sessions are
// leaking or when at least three scrapes failed and failures outnumber
// successes.
func Health(sc JobScraper, startTime time.Time, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := sc.Stats()

		status := "healthy"
		if stats.SessionsOpened-stats.SessionsClosed > 1 ||
			(stats.Failures >= 3 && stats.Failures > stats.Successes) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Scraper: stats,
			Version: version,
		})
	}
}
