// Package store persists scraped job postings.
package store

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/simhash"
)

// ErrNotFound is returned when no posting has the requested id.
var ErrNotFound = errors.New("job not found")

// Store is a collection of job postings keyed by ID.
type Store interface {
	// Save inserts or replaces a posting. It fills Fingerprint and, when
	// another stored posting has a near-identical description, DuplicateOf.
	Save(ctx context.Context, job *models.JobPosting) error

	Get(ctx context.Context, id string) (*models.JobPosting, error)

	// List returns every posting, most recently scraped first.
	List(ctx context.Context) ([]*models.JobPosting, error)

	Delete(ctx context.Context, id string) error

	// Search returns up to limit postings matching query, best first.
	Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error)

	Close() error
}

// markDuplicate fingerprints job and points DuplicateOf at the earliest
// scraped posting in existing with a near-identical description.
func markDuplicate(job *models.JobPosting, existing []*models.JobPosting) {
	job.Fingerprint = simhash.Fingerprint(job.Description)
	job.DuplicateOf = ""

	var original *models.JobPosting
	for _, other := range existing {
		if other.ID == job.ID || !simhash.IsDuplicate(job.Fingerprint, other.Fingerprint) {
			continue
		}
		if original == nil || other.ScrapedAt.Before(original.ScrapedAt) {
			original = other
		}
	}
	if original != nil {
		job.DuplicateOf = original.ID
	}
}

// sortNewestFirst orders postings by ScrapedAt descending, then by ID.
func sortNewestFirst(jobs []*models.JobPosting) {
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].ScrapedAt.Equal(jobs[j].ScrapedAt) {
			return jobs[i].ScrapedAt.After(jobs[j].ScrapedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})
}

// Field weights for search scoring.
const (
	titleWeight       = 3
	companyWeight     = 2
	descriptionWeight = 1
)

// queryTerms splits a query into distinct lowercase terms.
func queryTerms(query string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, t := range simhash.Tokens(query) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}

// Score rates how well job matches the query terms: each term found in the
// title counts three, in the company two, in the description one. The
// total is normalized by the best possible score, so 1 means every term
// appears in every field.
func Score(job *models.JobPosting, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	title := tokenSet(job.Title)
	company := tokenSet(job.Company)
	description := tokenSet(job.Description)

	var total int
	for _, t := range terms {
		if _, ok := title[t]; ok {
			total += titleWeight
		}
		if _, ok := company[t]; ok {
			total += companyWeight
		}
		if _, ok := description[t]; ok {
			total += descriptionWeight
		}
	}
	best := len(terms) * (titleWeight + companyWeight + descriptionWeight)
	return float64(total) / float64(best)
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range simhash.Tokens(text) {
		set[t] = struct{}{}
	}
	return set
}

// rank scores jobs against query and keeps the best limit with a score
// above zero. Ties keep the newest posting first.
func rank(jobs []*models.JobPosting, query string, limit int) []models.SearchHit {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return []models.SearchHit{}
	}
	sortNewestFirst(jobs)

	hits := make([]models.SearchHit, 0, len(jobs))
	for _, job := range jobs {
		if s := Score(job, terms); s > 0 {
			hits = append(hits, models.SearchHit{Job: job.Summary(), Score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// normalizeID trims the id so lookups are not thrown off by stray spaces.
func normalizeID(id string) string {
	return strings.TrimSpace(id)
}
