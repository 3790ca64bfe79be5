package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"fundops/internal/fund/models"
	id "fundops/pkg/domain"
)

// InMemory keeps funds in a map keyed by id.
type InMemory struct {
	mu    sync.RWMutex
	funds map[id.FundID]*models.Fund
}

func NewInMemory() *InMemory {
	return &InMemory{funds: make(map[id.FundID]*models.Fund)}
}

func (s *InMemory) Create(_ context.Context, fund *models.Fund) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.funds {
		if existing.FundName == fund.FundName {
			return ErrNameTaken
		}
	}
	s.funds[fund.ID] = fund.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, fundID id.FundID) (*models.Fund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.funds[fundID]
	if !ok {
		return nil, ErrNotFound
	}
	return f.Clone(), nil
}

// FindByIDForUpdate is FindByID; InMemoryTx provides the lock.
func (s *InMemory) FindByIDForUpdate(ctx context.Context, fundID id.FundID) (*models.Fund, error) {
	return s.FindByID(ctx, fundID)
}

func (s *InMemory) FindByName(_ context.Context, name string) (*models.Fund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.funds {
		if f.FundName == strings.TrimSpace(name) {
			return f.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) Update(_ context.Context, fund *models.Fund) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.funds[fund.ID]; !ok {
		return ErrNotFound
	}
	s.funds[fund.ID] = fund.Clone()
	return nil
}

// List returns funds ordered by creation time, optionally filtered by phase.
func (s *InMemory) List(_ context.Context, phase *models.Phase) ([]*models.Fund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Fund, 0, len(s.funds))
	for _, f := range s.funds {
		if phase != nil && f.Phase != *phase {
			continue
		}
		out = append(out, f.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Fund) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.FundName, b.FundName)
	})
	return out, nil
}
