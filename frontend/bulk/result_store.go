package bulk

import (
	"sync"

	"github.com/google/uuid"
)

// ResultStore keeps recent batch results in memory so the result page and
// retry endpoint can find them by job ID.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]Result
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]Result)}
}

// Put stores the result under a fresh job ID and returns the ID.
func (s *ResultStore) Put(result Result) string {
	jobID := uuid.NewString()
	result.JobID = jobID
	s.mu.Lock()
	s.results[jobID] = result
	s.mu.Unlock()
	return jobID
}

// Replace overwrites the stored result for an existing job, keeping its ID.
func (s *ResultStore) Replace(jobID string, result Result) {
	result.JobID = jobID
	s.mu.Lock()
	s.results[jobID] = result
	s.mu.Unlock()
}

func (s *ResultStore) Get(jobID string) (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[jobID]
	return r, ok
}
