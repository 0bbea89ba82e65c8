package cleaner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/jobscout/models"
)

const jobURL = "https://www.linkedin.com/jobs/view/4107690676/"

func fixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, code, se.Code)
}

func TestExtractJob_GuestLayout(t *testing.T) {
	c := NewCleaner()

	job, err := c.ExtractJob(fixture(t, "linkedin_guest.html"), jobURL)
	require.NoError(t, err)

	assert.Equal(t, "Senior Go Engineer", job.Title)
	assert.Equal(t, "Acme Robotics", job.Company)
	assert.Equal(t, "Berlin, Germany", job.Location)
	assert.Equal(t, "2 weeks ago", job.PostDate)
	assert.Equal(t, map[string]string{
		"seniority_level": "Mid-Senior level",
		"employment_type": "Full-time",
	}, job.Attributes)

	assert.Contains(t, job.Description, "telemetry pipeline. You will work")
	assert.Contains(t, job.Description, "Build services in Go")
	assert.NotContains(t, job.Description, "Show more")
	assert.NotContains(t, job.Description, "  ")

	assert.Contains(t, job.DescriptionMarkdown, "services in Go")
	assert.Contains(t, job.DescriptionMarkdown, "https://www.linkedin.com/company/acme-robotics/life")
	assert.NotContains(t, job.DescriptionMarkdown, "<ul>")
	assert.NotContains(t, job.DescriptionMarkdown, "px.example.com")
}

func TestExtractJob_BotBlocked(t *testing.T) {
	c := NewCleaner()

	tests := []struct {
		name string
		html string
	}{
		{"captcha page", fixture(t, "captcha.html")},
		{"authwall without title", fixture(t, "authwall.html")},
		{
			"captcha marker beside content",
			`<html><body><h1>Go Engineer</h1><div id="captcha-internal"></div></body></html>`,
		},
		{
			"challenge title",
			`<html><head><title>Just a moment...</title></head><body><p>Checking your browser</p></body></html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ExtractJob(tt.html, jobURL)
			requireCode(t, err, models.ErrCodeBotBlocked)
		})
	}
}

func TestExtractJob_AuthwallWithContentSucceeds(t *testing.T) {
	c := NewCleaner()
	page := `<html><body>
		<div class="authwall-sign-in-form">Sign in</div>
		<h1 class="top-card-layout__title">Data Engineer</h1>
		<div class="show-more-less-html__markup">` +
		`Own the ingestion layer for our analytics warehouse and help the team move from nightly batches to streaming.` +
		`</div></body></html>`

	job, err := c.ExtractJob(page, jobURL)
	require.NoError(t, err)
	assert.Equal(t, "Data Engineer", job.Title)
}

func TestExtractJob_MissingTitle(t *testing.T) {
	c := NewCleaner()
	page := `<html><body><div class="description">` +
		`A long description that has no heading at all, so the page cannot be a job posting we understand.` +
		`</div></body></html>`

	_, err := c.ExtractJob(page, jobURL)
	requireCode(t, err, models.ErrCodeExtraction)
}

func TestExtractJob_ShortDescriptionFails(t *testing.T) {
	c := NewCleaner()
	page := `<html><body><h1>Engineer</h1><div class="description">Apply now.</div></body></html>`

	_, err := c.ExtractJob(page, jobURL)
	requireCode(t, err, models.ErrCodeExtraction)
}

func TestExtractJob_ReadabilityFallback(t *testing.T) {
	c := NewCleaner()

	job, err := c.ExtractJob(fixture(t, "article_only.html"), "https://careers.example.com/jobs/42")
	require.NoError(t, err)

	assert.Equal(t, "Platform Engineer", job.Title)
	assert.Equal(t, DefaultCompany, job.Company)
	assert.Contains(t, job.Description, "design the internal developer platform")
}

func TestExtractJob_PrefersLongerDescription(t *testing.T) {
	c := NewCleaner()
	long := "Responsibilities include designing APIs, reviewing code and mentoring two junior engineers in the payments team."
	page := `<html><body><h1>Backend Engineer</h1>` +
		`<div class="jobs-box__html-content">Short teaser text that is over fifty characters long.</div>` +
		`<div class="description">` + long + `</div></body></html>`

	job, err := c.ExtractJob(page, jobURL)
	require.NoError(t, err)
	assert.Equal(t, long, job.Description)
}
