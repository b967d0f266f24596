package legacy

import (
	"context"
	"sync"

	"market-cutover/pkg/model"
)

// Provider reads the current marketplace dataset and writes a snapshot back
// when an operator restores one.
type Provider interface {
	LegacyDataset(ctx context.Context) (model.LegacyDataset, error)
	RestoreLegacyDataset(ctx context.Context, data model.LegacyDataset) error
}

// Static serves a dataset held in memory.
type Static struct {
	mu   sync.RWMutex
	data model.LegacyDataset
}

func NewStatic(data model.LegacyDataset) *Static {
	return &Static{data: data.Clone()}
}

func (s *Static) LegacyDataset(_ context.Context) (model.LegacyDataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone(), nil
}

func (s *Static) RestoreLegacyDataset(_ context.Context, data model.LegacyDataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data.Clone()
	return nil
}
