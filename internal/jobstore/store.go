// Package jobstore holds tailoring job state keyed by job id.
package jobstore

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/jonathan/resume-tailor/internal/types"
)

// Sentinel errors shared by every Store implementation
var (
	ErrNotFound = errors.New("job not found")
	ErrExists   = errors.New("job already exists")
)

// Store persists whole job entries. Put replaces an entry atomically and Get
// returns a copy that callers may modify freely.
type Store interface {
	Create(ctx context.Context, job *types.Job) error
	Put(ctx context.Context, job *types.Job) error
	Get(ctx context.Context, id string) (*types.Job, error)
	List(ctx context.Context) ([]*types.Job, error)
}

// MemoryStore is a process-local Store
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*types.Job
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*types.Job)}
}

// Create inserts a new job, failing with ErrExists if the id is taken.
func (s *MemoryStore) Create(_ context.Context, job *types.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return ErrExists
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Put replaces an existing job.
func (s *MemoryStore) Put(_ context.Context, job *types.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Get returns a copy of the job.
func (s *MemoryStore) Get(_ context.Context, id string) (*types.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

// List returns copies of every job, oldest first.
func (s *MemoryStore) List(_ context.Context) ([]*types.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]*types.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job.Clone())
	}
	SortByCreated(jobs)
	return jobs, nil
}

// SortByCreated orders jobs oldest first, breaking ties by id.
func SortByCreated(jobs []*types.Job) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
}
