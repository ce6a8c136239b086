package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"scanner-backend/internal/domain"
)

// InMemoryPositionRepository stores positions in memory. It is the default
// store when no DATABASE_URL is configured and the fixture for tests.
type InMemoryPositionRepository struct {
	mu        sync.RWMutex
	positions map[string]domain.Position // by ID
}

func NewInMemoryPositionRepository() *InMemoryPositionRepository {
	return &InMemoryPositionRepository{
		positions: make(map[string]domain.Position),
	}
}

func (r *InMemoryPositionRepository) Create(_ context.Context, pos *domain.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.positions[pos.ID]; exists {
		return fmt.Errorf("position with ID %s already exists", pos.ID)
	}
	r.positions[pos.ID] = *pos
	return nil
}

func (r *InMemoryPositionRepository) Update(_ context.Context, pos *domain.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.positions[pos.ID]; !exists {
		return fmt.Errorf("position with ID %s not found", pos.ID)
	}
	r.positions[pos.ID] = *pos
	return nil
}

func (r *InMemoryPositionRepository) GetOpenBySymbol(_ context.Context, symbol string) (*domain.Position, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, pos := range r.positions {
		if pos.Symbol == symbol && pos.Status == domain.StatusOpen {
			p := pos
			return &p, nil
		}
	}
	return nil, nil
}

func (r *InMemoryPositionRepository) ListOpen(_ context.Context) ([]*domain.Position, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	open := make([]*domain.Position, 0)
	for _, pos := range r.positions {
		if pos.Status == domain.StatusOpen {
			p := pos
			open = append(open, &p)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		return open[i].OpenedAt.Before(open[j].OpenedAt)
	})
	return open, nil
}

func (r *InMemoryPositionRepository) CountOpen(ctx context.Context) (int, error) {
	open, err := r.ListOpen(ctx)
	if err != nil {
		return 0, err
	}
	return len(open), nil
}

func (r *InMemoryPositionRepository) OpenedOn(_ context.Context, symbol string, day time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	y, m, d := day.UTC().Date()
	for _, pos := range r.positions {
		if pos.Symbol != symbol {
			continue
		}
		py, pm, pd := pos.OpenedAt.UTC().Date()
		if py == y && pm == m && pd == d {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryPositionRepository) History(_ context.Context, from time.Time) ([]*domain.Position, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := make([]*domain.Position, 0)
	for _, pos := range r.positions {
		if pos.Status != domain.StatusClosed || pos.ClosedAt == nil {
			continue
		}
		if pos.ClosedAt.Before(from) {
			continue
		}
		p := pos
		history = append(history, &p)
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i].ClosedAt.After(*history[j].ClosedAt)
	})
	return history, nil
}

// compile-time check
var _ domain.PositionRepository = (*InMemoryPositionRepository)(nil)
