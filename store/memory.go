package store

import (
	"context"
	"sync"

	"github.com/use-agent/jobscout/models"
)

// Memory is an in-process Store. Postings are lost on restart.
// It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]*models.JobPosting
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]*models.JobPosting)}
}

func (m *Memory) Save(_ context.Context, job *models.JobPosting) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	markDuplicate(job, m.snapshotLocked())
	stored := *job
	m.jobs[job.ID] = &stored
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*models.JobPosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[normalizeID(id)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *Memory) List(_ context.Context) ([]*models.JobPosting, error) {
	m.mu.RLock()
	jobs := m.snapshotLocked()
	m.mu.RUnlock()

	sortNewestFirst(jobs)
	return jobs, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id = normalizeID(id)
	if _, ok := m.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}

func (m *Memory) Search(_ context.Context, query string, limit int) ([]models.SearchHit, error) {
	m.mu.RLock()
	jobs := m.snapshotLocked()
	m.mu.RUnlock()

	return rank(jobs, query, limit), nil
}

func (m *Memory) Close() error { return nil }

// snapshotLocked copies every posting. The caller holds mu.
func (m *Memory) snapshotLocked() []*models.JobPosting {
	jobs := make([]*models.JobPosting, 0, len(m.jobs))
	for _, j := range m.jobs {
		cp := *j
		jobs = append(jobs, &cp)
	}
	return jobs
}
