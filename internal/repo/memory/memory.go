package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/datadiag/datadiag/internal/repo"
)

type Store struct {
	mu       sync.RWMutex
	datasets map[repo.DatasetID]*repo.Dataset
}

func New() *Store {
	return &Store{
		datasets: make(map[repo.DatasetID]*repo.Dataset),
	}
}

func (m *Store) Add(ctx context.Context, d *repo.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = repo.DatasetID(uuid.NewString())
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	m.datasets[d.ID] = d
	return nil
}

func (m *Store) Get(ctx context.Context, id repo.DatasetID) (*repo.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d := m.datasets[id]
	if d == nil {
		return nil, repo.ErrNotFound
	}
	return d, nil
}

func (m *Store) List(ctx context.Context) ([]*repo.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*repo.Dataset, 0, len(m.datasets))
	for _, d := range m.datasets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
