package models

import "time"

// JobUploadResponse is the response for POST /api/v1/jobs/upload.
type JobUploadResponse struct {
	Success            bool         `json:"success"`
	JobID              string       `json:"job_id,omitempty"`
	URL                string       `json:"url,omitempty"`
	Title              string       `json:"title,omitempty"`
	Company            string       `json:"company,omitempty"`
	DescriptionPreview string       `json:"description_preview,omitempty"`
	PostDate           string       `json:"post_date,omitempty"`
	DuplicateOf        string       `json:"duplicate_of,omitempty"`
	Attempts           int          `json:"attempts,omitempty"`
	CacheStatus        string       `json:"cache_status,omitempty"` // "hit" or "miss"
	Message            string       `json:"message,omitempty"`
	Error              *ErrorDetail `json:"error,omitempty"`
}

// JobSummary is the list-view projection of a stored posting.
type JobSummary struct {
	ID        string    `json:"job_id"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	URL       string    `json:"url"`
	PostDate  string    `json:"post_date,omitempty"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// JobListResponse is the response for GET /api/v1/jobs.
type JobListResponse struct {
	Jobs  []JobSummary `json:"jobs"`
	Total int          `json:"total"`
}

// SearchHit is one ranked search result.
type SearchHit struct {
	Job   JobSummary `json:"job"`
	Score float64    `json:"score"`
}

// JobSearchResponse is the response for POST /api/v1/jobs/search.
type JobSearchResponse struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
	Total   int         `json:"total"`
}

// ErrorResponse is the body of every non-scrape error.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// DiagnosticRun reports a single scrape of a diagnostic sequence.
type DiagnosticRun struct {
	Run               int    `json:"run"`
	Success           bool   `json:"success"`
	DurationMs        int64  `json:"duration_ms"`
	Attempts          int    `json:"attempts,omitempty"`
	Title             string `json:"title,omitempty"`
	Company           string `json:"company,omitempty"`
	DescriptionLength int    `json:"description_length,omitempty"`
	ErrorCode         string `json:"error_code,omitempty"`
}

// DiagnosticResponse is the response for POST /api/v1/jobs/diagnostics/scrape.
type DiagnosticResponse struct {
	URL            string          `json:"url"`
	Runs           []DiagnosticRun `json:"runs"`
	Successful     int             `json:"successful"`
	SuccessRate    float64         `json:"success_rate"` // 0-100
	TotalElapsedMs int64           `json:"total_elapsed_ms"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string       `json:"status"` // "healthy" or "degraded"
	Uptime  string       `json:"uptime"`
	Scraper ScraperStats `json:"scraper"`
	Version string       `json:"version"`
}

// ScraperStats reports the scrape manager's counters and browser state.
type ScraperStats struct {
	BrowserAlive   bool      `json:"browser_alive"`
	Launches       int64     `json:"launches"`
	Attempts       int64     `json:"attempts"`
	SessionsOpened int64     `json:"sessions_opened"`
	SessionsClosed int64     `json:"sessions_closed"`
	Successes      int64     `json:"successes"`
	Failures       int64     `json:"failures"`
	LastScrapeAt   time.Time `json:"last_scrape_at,omitempty"`
}

// MessageResponse acknowledges an operation with no other result.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TestScraperResponse is the response for POST /api/v1/jobs/test-scraper.
type TestScraperResponse struct {
	Status   string      `json:"status"`
	Message  string      `json:"message"`
	TestData *JobPosting `json:"test_data"`
}
