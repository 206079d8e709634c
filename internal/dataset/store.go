package dataset

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/vanshika/downline/internal/domain"
)

// Store is an in-memory member and deal store. It backs the memory driver,
// offline reports and tests.
type Store struct {
	mu      sync.RWMutex
	members map[string]domain.Member
	deals   map[string]domain.Deal
}

func NewStore() *Store {
	return &Store{
		members: make(map[string]domain.Member),
		deals:   make(map[string]domain.Deal),
	}
}

// FromSnapshot builds a store seeded with the snapshot. Later records with a
// repeated id replace earlier ones.
func FromSnapshot(snap Snapshot) *Store {
	s := NewStore()
	for _, m := range snap.Members {
		if m.ID != "" {
			s.members[m.ID] = m
		}
	}
	for _, d := range snap.Deals {
		if d.ID != "" {
			s.deals[d.ID] = d
		}
	}
	return s
}

func (s *Store) UpsertMember(_ context.Context, member domain.Member) error {
	if member.ID == "" {
		return errors.New("member id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.members[member.ID]; ok && !existing.CreatedAt.IsZero() {
		member.CreatedAt = existing.CreatedAt
	}
	s.members[member.ID] = member
	return nil
}

func (s *Store) UpsertDeal(_ context.Context, deal domain.Deal) error {
	if deal.ID == "" {
		return errors.New("deal id is required")
	}
	if deal.OwnerID == "" {
		return errors.New("deal owner id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.deals[deal.ID]; ok && !existing.CreatedAt.IsZero() {
		deal.CreatedAt = existing.CreatedAt
	}
	s.deals[deal.ID] = deal
	return nil
}

// ListMembers returns members ordered by creation time then id.
func (s *Store) ListMembers(ctx context.Context, filter domain.MemberFilter) ([]domain.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]domain.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit := filter.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListDeals returns deals ordered by occurrence then id.
func (s *Store) ListDeals(ctx context.Context, filter domain.DealFilter) ([]domain.Deal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var owners map[string]struct{}
	if len(filter.OwnerIDs) > 0 {
		owners = make(map[string]struct{}, len(filter.OwnerIDs))
		for _, id := range filter.OwnerIDs {
			owners[id] = struct{}{}
		}
	}

	s.mu.RLock()
	out := make([]domain.Deal, 0, len(s.deals))
	for _, d := range s.deals {
		if filter.Since != nil && d.OccurredAt.Before(*filter.Since) {
			continue
		}
		if owners != nil {
			if _, ok := owners[d.OwnerID]; !ok {
				continue
			}
		}
		out = append(out, d)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit := filter.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Snapshot copies the current contents in listing order.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	members, err := s.ListMembers(ctx, domain.MemberFilter{})
	if err != nil {
		return Snapshot{}, err
	}
	deals, err := s.ListDeals(ctx, domain.DealFilter{})
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Members: members, Deals: deals}, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }
