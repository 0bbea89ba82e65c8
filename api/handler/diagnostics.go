package handler

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/models"
)

// DiagnoseScrape returns a handler for POST /api/v1/jobs/diagnostics/scrape.
//
// It scrapes one URL several times in a row through the shared manager, so
// the response shows pacing, retries and relaunches under repetition.
// Results are not stored or cached.
func DiagnoseScrape(sc JobScraper, cfg config.DiagnosticsConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DiagnosticRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, err.Error())
				return
			}
		}
		req.Defaults(cfg.DefaultURL, cfg.MaxRuns)

		url, _, err := models.ParseLinkedInJobURL(req.URL)
		if err != nil {
			respondError(c, err)
			return
		}

		resp := models.DiagnosticResponse{URL: url, Runs: make([]models.DiagnosticRun, 0, req.Runs)}
		start := time.Now()
		for i := 1; i <= req.Runs; i++ {
			if c.Request.Context().Err() != nil {
				break
			}
			runStart := time.Now()
			result, err := sc.ScrapeJob(c.Request.Context(), url)
			run := models.DiagnosticRun{
				Run:        i,
				Success:    err == nil,
				DurationMs: time.Since(runStart).Milliseconds(),
			}
			if err != nil {
				run.ErrorCode = models.ErrCodeInternal
				var se *models.ScrapeError
				if errors.As(err, &se) {
					run.ErrorCode = se.Code
				}
				slog.Warn("diagnostic scrape failed", "run", i, "url", url, "error", err)
			} else {
				resp.Successful++
				run.Attempts = result.Attempts
				run.Title = result.Title
				run.Company = result.Company
				run.DescriptionLength = utf8.RuneCountInString(result.Description)
			}
			resp.Runs = append(resp.Runs, run)
		}

		resp.TotalElapsedMs = time.Since(start).Milliseconds()
		if len(resp.Runs) > 0 {
			rate := float64(resp.Successful) / float64(len(resp.Runs)) * 100
			resp.SuccessRate = math.Round(rate*100) / 100
		}

		slog.Info("diagnostic scrape finished",
			"url", url,
			"runs", len(resp.Runs),
			"successful", resp.Successful,
		)
		c.JSON(http.StatusOK, resp)
	}
}
