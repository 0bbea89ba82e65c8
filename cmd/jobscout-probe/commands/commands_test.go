package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/jobscout/models"
)

type scriptedScraper struct {
	errs  []error
	calls int
}

func (s *scriptedScraper) ScrapeJob(_ context.Context, url string) (*models.ScrapeResult, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return &models.ScrapeResult{
		JobFields: models.JobFields{Title: "Senior Go Engineer", Company: "Acme Robotics", Description: "Build services."},
		URL:       url,
		Attempts:  1,
	}, nil
}

func TestScrapeRunsAndReport(t *testing.T) {
	exhausted := models.NewScrapeError(models.ErrCodeRetriesExhausted, "all 3 attempts failed", nil)

	tests := []struct {
		name    string
		errs    []error
		wantErr bool
	}{
		{"all succeed", nil, false},
		{"two of three", []error{nil, exhausted, nil}, false},
		{"one of three", []error{exhausted, nil, exhausted}, true},
		{"untyped error", []error{errors.New("boom"), errors.New("boom"), nil}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := &scriptedScraper{errs: tt.errs}
			results := scrapeRuns(context.Background(), sc, "https://www.linkedin.com/jobs/view/1/", 3)
			require.Len(t, results, 3)

			var out bytes.Buffer
			err := report(&out, results)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Contains(t, out.String(), "RUN")
			assert.Contains(t, out.String(), "runs succeeded")
		})
	}
}

func TestReport_FailureShowsCode(t *testing.T) {
	sc := &scriptedScraper{errs: []error{models.NewScrapeError(models.ErrCodeBotBlocked, "captcha", nil)}}
	results := scrapeRuns(context.Background(), sc, "https://www.linkedin.com/jobs/view/1/", 1)

	var out bytes.Buffer
	require.Error(t, report(&out, results))
	assert.Contains(t, out.String(), models.ErrCodeBotBlocked)
	assert.NotContains(t, out.String(), "captcha")
}

func TestScrapeRuns_StopsWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := scrapeRuns(ctx, &scriptedScraper{}, "https://www.linkedin.com/jobs/view/1/", 3)
	assert.Empty(t, results)
	assert.Error(t, report(&bytes.Buffer{}, results))
}

func TestExtractCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"extract", "../../../cleaner/testdata/linkedin_guest.html"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	var fields models.JobFields
	require.NoError(t, json.Unmarshal(out.Bytes(), &fields))
	assert.Equal(t, "Senior Go Engineer", fields.Title)
	assert.Equal(t, "Acme Robotics", fields.Company)
}
