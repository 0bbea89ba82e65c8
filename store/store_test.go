package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/jobscout/models"
)

var baseTime = time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

func posting(id, title, company, description string, age time.Duration) *models.JobPosting {
	return &models.JobPosting{
		ID:        id,
		URL:       "https://www.linkedin.com/jobs/view/" + strings.TrimPrefix(id, "linkedin_") + "/",
		Source:    models.SourceLinkedIn,
		ScrapedAt: baseTime.Add(-age),
		JobFields: models.JobFields{
			Title:       title,
			Company:     company,
			Description: description,
		},
	}
}

const (
	goDescription     = "Build and operate distributed systems in Go. You will own our ingestion services, on-call rotation and the Kubernetes platform they run on."
	pythonDescription = "Train and evaluate machine learning models in Python, partner with product on experiments and ship features to millions of listeners."
)

func runContract(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("save get delete", func(t *testing.T) {
		s := open(t)
		job := posting("linkedin_1", "Go Engineer", "Acme", goDescription, 0)

		require.NoError(t, s.Save(ctx, job))
		assert.NotZero(t, job.Fingerprint)

		got, err := s.Get(ctx, "linkedin_1")
		require.NoError(t, err)
		assert.Equal(t, "Go Engineer", got.Title)
		assert.Equal(t, job.Fingerprint, got.Fingerprint)

		require.NoError(t, s.Delete(ctx, "linkedin_1"))
		_, err = s.Get(ctx, "linkedin_1")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "linkedin_1"), ErrNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Save(ctx, posting("linkedin_old", "A", "X", goDescription, time.Hour)))
		require.NoError(t, s.Save(ctx, posting("linkedin_new", "B", "Y", pythonDescription, 0)))

		jobs, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, jobs, 2)
		assert.Equal(t, "linkedin_new", jobs[0].ID)
		assert.Equal(t, "linkedin_old", jobs[1].ID)
	})

	t.Run("duplicate detection", func(t *testing.T) {
		s := open(t)
		first := posting("linkedin_1", "Go Engineer", "Acme", goDescription, time.Hour)
		repost := posting("linkedin_2", "Go Engineer (Remote)", "Acme", strings.ToUpper(goDescription), 0)
		other := posting("linkedin_3", "ML Engineer", "Tunes", pythonDescription, 0)

		require.NoError(t, s.Save(ctx, first))
		require.NoError(t, s.Save(ctx, repost))
		require.NoError(t, s.Save(ctx, other))

		assert.Empty(t, first.DuplicateOf)
		assert.Equal(t, "linkedin_1", repost.DuplicateOf)
		assert.Empty(t, other.DuplicateOf)

		// Re-saving the original does not mark it a duplicate of itself
		// or of its own repost.
		require.NoError(t, s.Save(ctx, first))
		assert.Equal(t, "linkedin_2", first.DuplicateOf)
	})

	t.Run("search", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Save(ctx, posting("linkedin_1", "Senior Go Engineer", "Acme", goDescription, time.Hour)))
		require.NoError(t, s.Save(ctx, posting("linkedin_2", "Data Scientist", "Tunes", pythonDescription, 0)))
		require.NoError(t, s.Save(ctx, posting("linkedin_3", "Platform Engineer", "Gopher Inc", "Kubernetes and Terraform all day, with some Go tooling on the side for our internal developers.", 0)))

		hits, err := s.Search(ctx, "go engineer", 5)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "linkedin_1", hits[0].Job.ID, "title match ranks first")
		assert.Equal(t, "linkedin_3", hits[1].Job.ID)
		assert.Greater(t, hits[0].Score, hits[1].Score)

		hits, err = s.Search(ctx, "engineer", 1)
		require.NoError(t, err)
		assert.Len(t, hits, 1)

		hits, err = s.Search(ctx, "  ", 5)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestMemory(t *testing.T) {
	runContract(t, func(t *testing.T) Store { return NewMemory() })
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Save(ctx, posting("linkedin_1", "Go Engineer", "Acme", goDescription, 0)))

	got, err := s.Get(ctx, "linkedin_1")
	require.NoError(t, err)
	got.Title = "changed"

	again, err := s.Get(ctx, "linkedin_1")
	require.NoError(t, err)
	assert.Equal(t, "Go Engineer", again.Title)
}

// TestRedis runs against a real server when JOBSCOUT_TEST_REDIS_ADDR is set.
func TestRedis(t *testing.T) {
	addr := os.Getenv("JOBSCOUT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("JOBSCOUT_TEST_REDIS_ADDR not set")
	}

	runContract(t, func(t *testing.T) Store {
		client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
		require.NoError(t, client.FlushDB(context.Background()).Err())
		s := NewRedisWithClient(client, "jobscout-test")
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestRedisKeys(t *testing.T) {
	r := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: "localhost:0"}), "")
	defer r.Close()

	assert.Equal(t, "jobscout:job:linkedin_1", r.jobKey("linkedin_1"))
	assert.Equal(t, "jobscout:jobs", r.indexKey())
}

func TestScore(t *testing.T) {
	job := posting("linkedin_1", "Go Engineer", "Go Corp", "Write Go", 0)

	assert.InDelta(t, 1.0, Score(job, []string{"go"}), 1e-9)
	assert.InDelta(t, 0.5, Score(job, []string{"engineer"}), 1e-9)
	assert.Zero(t, Score(job, []string{"rust"}))
	assert.Zero(t, Score(job, nil))
}
