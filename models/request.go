package models

// JobUploadRequest is the payload for POST /api/v1/jobs/upload.
type JobUploadRequest struct {
	// URL is the LinkedIn job posting to scrape. Required.
	URL string `json:"url" binding:"required"`
}

// JobSearchRequest is the payload for POST /api/v1/jobs/search.
type JobSearchRequest struct {
	// Query is matched against stored titles, companies and descriptions. Required.
	Query string `json:"query"`

	// Limit caps the number of results.
	// Default: 5. Max: 20.
	Limit int `json:"limit,omitempty"`
}

// Defaults applies default values and clamps Limit.
func (r *JobSearchRequest) Defaults() {
	if r.Limit <= 0 {
		r.Limit = 5
	}
	if r.Limit > 20 {
		r.Limit = 20
	}
}

// DiagnosticRequest is the payload for POST /api/v1/jobs/diagnostics/scrape.
type DiagnosticRequest struct {
	// URL is the job posting to scrape repeatedly. Empty means the configured default.
	URL string `json:"url,omitempty"`

	// Runs is the number of consecutive scrapes. Default: 3.
	Runs int `json:"runs,omitempty" binding:"omitempty,min=1"`
}

// Defaults fills URL and Runs, capping Runs at maxRuns.
func (r *DiagnosticRequest) Defaults(defaultURL string, maxRuns int) {
	if r.URL == "" {
		r.URL = defaultURL
	}
	if r.Runs == 0 {
		r.Runs = 3
	}
	if maxRuns > 0 && r.Runs > maxRuns {
		r.Runs = maxRuns
	}
}
