package models

import (
	"net/url"
	"regexp"
	"strings"
)

var linkedInHosts = map[string]struct{}{
	"www.linkedin.com": {},
	"linkedin.com":     {},
}

// reJobID matches the numeric id in /jobs/view/<id> and the slug form
// /jobs/view/<title-slug>-<id>.
var reJobID = regexp.MustCompile(`/jobs/view/(?:[^/]*-)?(\d+)`)

// ParseLinkedInJobURL validates that rawURL points at a LinkedIn job posting
// and returns the normalized URL and the LinkedIn job id.
func ParseLinkedInJobURL(rawURL string) (normalized string, jobID string, err error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", "", NewScrapeError(ErrCodeInvalidInput, "job URL is required", nil)
	}

	u, parseErr := url.Parse(rawURL)
	if parseErr != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", "", NewScrapeError(ErrCodeInvalidInput,
			"invalid LinkedIn job URL: please provide a valid LinkedIn job posting URL", parseErr)
	}

	if _, ok := linkedInHosts[strings.ToLower(u.Hostname())]; !ok || !strings.Contains(u.Path, "/jobs/view/") {
		return "", "", NewScrapeError(ErrCodeInvalidInput,
			"invalid LinkedIn job URL: please provide a valid LinkedIn job posting URL", nil)
	}

	m := reJobID.FindStringSubmatch(u.Path)
	if m == nil {
		return "", "", NewScrapeError(ErrCodeInvalidInput, "could not extract job ID from URL", nil)
	}

	// Tracking parameters and fragments never change the posting.
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), m[1], nil
}
