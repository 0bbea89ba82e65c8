package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/use-agent/jobscout/cache"
	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/store"
	"github.com/use-agent/jobscout/webhook"
)

// descriptionPreviewLength is how much of the description an upload returns.
const descriptionPreviewLength = 500

// JobScraper is the scrape manager as the HTTP layer sees it.
type JobScraper interface {
	ScrapeJob(ctx context.Context, url string) (*models.ScrapeResult, error)
	Stats() models.ScraperStats
}

// UploadJob returns a handler for POST /api/v1/jobs/upload.
//
// Flow:
//  1. Validate the LinkedIn URL.
//  2. Serve a recent scrape of the same URL from cache.
//  3. Scrape, store (with duplicate detection), cache, notify.
func UploadJob(sc JobScraper, st store.Store, cc *cache.Cache, wh *webhook.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.JobUploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "job URL is required")
			return
		}

		url, sourceID, err := models.ParseLinkedInJobURL(req.URL)
		if err != nil {
			respondError(c, err)
			return
		}

		key := cache.Key(url)
		if cached, hit := cc.Get(key); hit {
			c.JSON(http.StatusOK, uploadResponse(cached, 0, "hit"))
			return
		}

		slog.Info("starting job scrape", "url", url)
		result, err := sc.ScrapeJob(c.Request.Context(), url)
		if err != nil {
			slog.Error("job scrape failed", "url", url, "error", err)
			respondScrapeFailure(c, err)
			return
		}

		job := newPosting(result, sourceID)
		if err := st.Save(c.Request.Context(), job); err != nil {
			slog.Error("storing job failed", "job_id", job.ID, "error", err)
			respondError(c, models.NewScrapeError(models.ErrCodeInternal, "failed to store job posting", err))
			return
		}
		cc.Set(key, job)
		wh.DeliverAsync(webhook.NewEvent(webhook.EventJobScraped, job.ID, job.Summary()))

		slog.Info("job stored", "job_id", job.ID, "duplicate_of", job.DuplicateOf)
		c.JSON(http.StatusOK, uploadResponse(job, result.Attempts, "miss"))
	}
}

// newPosting builds the stored posting from a scrape. Postings whose source
// id is unknown get a random one.
func newPosting(result *models.ScrapeResult, sourceID string) *models.JobPosting {
	if sourceID == "" {
		sourceID = uuid.NewString()
	}
	return &models.JobPosting{
		JobFields:   result.JobFields,
		ID:          models.SourceLinkedIn + "_" + sourceID,
		SourceJobID: sourceID,
		URL:         result.URL,
		Source:      models.SourceLinkedIn,
		ScrapedAt:   result.ScrapedAt,
	}
}

func uploadResponse(job *models.JobPosting, attempts int, cacheStatus string) models.JobUploadResponse {
	return models.JobUploadResponse{
		Success:            true,
		JobID:              job.ID,
		URL:                job.URL,
		Title:              job.Title,
		Company:            job.Company,
		DescriptionPreview: job.DescriptionPreview(descriptionPreviewLength),
		PostDate:           job.PostDate,
		DuplicateOf:        job.DuplicateOf,
		Attempts:           attempts,
		CacheStatus:        cacheStatus,
		Message:            "Job posting scraped and stored successfully",
	}
}

// ListJobs returns a handler for GET /api/v1/jobs.
func ListJobs(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobs, err := st.List(c.Request.Context())
		if err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInternal, "failed to list jobs", err))
			return
		}

		summaries := make([]models.JobSummary, 0, len(jobs))
		for _, j := range jobs {
			summaries = append(summaries, j.Summary())
		}
		c.JSON(http.StatusOK, models.JobListResponse{Jobs: summaries, Total: len(summaries)})
	}
}

// GetJob returns a handler for GET /api/v1/jobs/:id.
func GetJob(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := st.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondStoreError(c, err)
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

// SearchJobs returns a handler for POST /api/v1/jobs/search.
func SearchJobs(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.JobSearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		req.Query = strings.TrimSpace(req.Query)
		if req.Query == "" {
			badRequest(c, "search query is required")
			return
		}
		req.Defaults()

		hits, err := st.Search(c.Request.Context(), req.Query, req.Limit)
		if err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInternal, "search failed", err))
			return
		}
		c.JSON(http.StatusOK, models.JobSearchResponse{Query: req.Query, Results: hits, Total: len(hits)})
	}
}

// DeleteJob returns a handler for DELETE /api/v1/jobs/:id.
func DeleteJob(st store.Store, cc *cache.Cache, wh *webhook.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := st.Delete(c.Request.Context(), id); err != nil {
			respondStoreError(c, err)
			return
		}
		cc.Invalidate(id)
		wh.DeliverAsync(webhook.NewEvent(webhook.EventJobDeleted, id, nil))

		c.JSON(http.StatusOK, models.MessageResponse{
			Success: true,
			Message: "Job " + id + " deleted successfully",
		})
	}
}

// TestScraper returns a handler for POST /api/v1/jobs/test-scraper. It
// answers with a canned posting and never touches the browser, so clients
// can check their integration without being paced.
func TestScraper() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.TestScraperResponse{
			Status:  "success",
			Message: "Scraper test completed",
			TestData: &models.JobPosting{
				ID:          "linkedin_test_123",
				SourceJobID: "test_123",
				URL:         "https://www.linkedin.com/jobs/view/test_123/",
				Source:      models.SourceLinkedIn,
				ScrapedAt:   time.Now().UTC(),
				JobFields: models.JobFields{
					Title:       "Senior Software Engineer",
					Company:     "Tech Corp",
					Description: "We are looking for a Senior Software Engineer to join our team...",
					PostDate:    "1 week ago",
				},
			},
		})
	}
}

func respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, models.NewScrapeError(models.ErrCodeNotFound, "job not found", err))
		return
	}
	respondError(c, models.NewScrapeError(models.ErrCodeInternal, "store error", err))
}
