package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/remoterob/fish-bingo/internal/domain/model"
)

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	settings settings
	claims   []model.Claim
	profiles map[string]model.Profile
	order    []string // profile insertion order
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		settings: applyOptions(opts),
		profiles: make(map[string]model.Profile),
	}
}

// Claims implements Store.
func (s *MemoryStore) Claims(ctx context.Context) ([]model.Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := slices.Clone(s.claims)
	s.mu.RUnlock()
	slices.SortStableFunc(out, func(a, b model.Claim) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// Profiles implements Store.
func (s *MemoryStore) Profiles(ctx context.Context) ([]model.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Profile, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.profiles[id])
	}
	return out, nil
}

// InsertClaim implements Store.
func (s *MemoryStore) InsertClaim(ctx context.Context, c model.Claim) (model.Claim, error) {
	if err := ctx.Err(); err != nil {
		return model.Claim{}, err
	}
	c, err := s.settings.prepareClaim(c)
	if err != nil {
		return model.Claim{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims = append(s.claims, c)
	return c, nil
}

// UpsertProfile implements Store.
func (s *MemoryStore) UpsertProfile(ctx context.Context, p model.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := prepareProfile(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.UserID]; !ok {
		s.order = append(s.order, p.UserID)
	}
	s.profiles[p.UserID] = p
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
