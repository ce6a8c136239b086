package repository

import (
	"sync"

	"scanner-backend/internal/domain"
)

// InMemoryScanRepository holds the latest scan snapshot for delivery to
// websocket clients. The orchestrator replaces the whole list each cycle.
type InMemoryScanRepository struct {
	mu      sync.RWMutex
	results []domain.ScanResult
}

func NewInMemoryScanRepository() *InMemoryScanRepository {
	return &InMemoryScanRepository{
		results: []domain.ScanResult{},
	}
}

func (r *InMemoryScanRepository) SaveResults(results []domain.ScanResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = results
}

func (r *InMemoryScanRepository) GetResults() []domain.ScanResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ScanResult, len(r.results))
	copy(out, r.results)
	return out
}

// compile-time check
var _ domain.ScanRepository = (*InMemoryScanRepository)(nil)
