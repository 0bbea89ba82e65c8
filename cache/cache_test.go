package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/jobscout/models"
)

func newTestCache(t *testing.T, maxEntries int, ttl time.Duration) (*Cache, *time.Time) {
	t.Helper()
	c := New(maxEntries, ttl)
	t.Cleanup(c.Close)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestKey_Normalizes(t *testing.T) {
	a := Key("https://www.linkedin.com/jobs/view/123/")
	b := Key(" HTTPS://WWW.LINKEDIN.COM/jobs/view/123")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Key("https://www.linkedin.com/jobs/view/124/"))
	assert.Len(t, a, 64)
}

func TestCache_GetSetExpire(t *testing.T) {
	c, now := newTestCache(t, 10, time.Minute)
	job := &models.JobPosting{ID: "linkedin_1"}

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Set("k", job)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Same(t, job, got)

	*now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok, "expired entry must not be served")

	c.evictExpired()
	assert.Equal(t, 0, c.Len())
}

func TestCache_Capacity(t *testing.T) {
	c, _ := newTestCache(t, 2, time.Minute)

	c.Set("a", &models.JobPosting{ID: "a"})
	c.Set("b", &models.JobPosting{ID: "b"})
	c.Set("b", &models.JobPosting{ID: "b2"})
	assert.Equal(t, 2, c.Len(), "overwriting does not evict")

	c.Set("c", &models.JobPosting{ID: "c"})
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("c")
	assert.True(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(t, 10, time.Minute)
	c.Set("a", &models.JobPosting{ID: "linkedin_1"})
	c.Set("b", &models.JobPosting{ID: "linkedin_2"})

	c.Invalidate("linkedin_1")

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestCache_Disabled(t *testing.T) {
	c := New(10, 0)
	c.Set("a", &models.JobPosting{ID: "a"})
	_, ok := c.Get("a")
	assert.False(t, ok)
	c.Close()
	c.Close()
}
