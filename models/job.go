package models

import "time"

// SourceLinkedIn is the only job source the scraper understands today.
const SourceLinkedIn = "linkedin"

// JobFields holds the structured fields extracted from a rendered job page.
type JobFields struct {
	Title               string            `json:"title"`
	Company             string            `json:"company"`
	Location            string            `json:"location,omitempty"`
	Description         string            `json:"description"`
	DescriptionMarkdown string            `json:"description_markdown,omitempty"`
	PostDate            string            `json:"post_date,omitempty"`
	Attributes          map[string]string `json:"attributes,omitempty"`
}

// ScrapeResult is what a successful scrape attempt produced.
// Every field comes from the attempt that succeeded.
type ScrapeResult struct {
	JobFields

	// URL is the URL the caller asked for.
	URL string `json:"url"`

	// FinalURL is the URL after redirects, as reported by the page.
	FinalURL string `json:"final_url"`

	// StatusCode is the HTTP status of the main document (0 if unknown).
	StatusCode int `json:"status_code"`

	// Attempts is how many attempts the manager needed (1 = first try).
	Attempts int `json:"attempts"`

	ScrapedAt time.Time `json:"scraped_at"`
}

// JobPosting is a stored, scraped job posting.
type JobPosting struct {
	JobFields

	// ID is the storage key, e.g. "linkedin_4107690676".
	ID string `json:"job_id"`

	// SourceJobID is the job id as the source site knows it.
	SourceJobID string `json:"original_job_id"`

	URL       string    `json:"url"`
	Source    string    `json:"source"`
	ScrapedAt time.Time `json:"scraped_at"`

	// Fingerprint is the SimHash of the description, used for duplicate detection.
	Fingerprint uint64 `json:"fingerprint,omitempty"`

	// DuplicateOf is set when a previously stored posting has a near-identical description.
	DuplicateOf string `json:"duplicate_of,omitempty"`
}

// Summary returns the list-view projection of the posting.
func (j *JobPosting) Summary() JobSummary {
	return JobSummary{
		ID:        j.ID,
		Title:     j.Title,
		Company:   j.Company,
		URL:       j.URL,
		PostDate:  j.PostDate,
		ScrapedAt: j.ScrapedAt,
	}
}

// DescriptionPreview returns at most n characters of the description,
// followed by "..." when it was cut.
func (j *JobPosting) DescriptionPreview(n int) string {
	runes := []rune(j.Description)
	if len(runes) <= n {
		return j.Description
	}
	return string(runes[:n]) + "..."
}
