package service

import (
	"context"

	"github.com/vanshika/downline/internal/domain"
)

// Store is the persistence contract shared by the neo4j, postgres and
// in-memory backends.
type Store interface {
	UpsertMember(ctx context.Context, member domain.Member) error
	UpsertDeal(ctx context.Context, deal domain.Deal) error
	ListMembers(ctx context.Context, filter domain.MemberFilter) ([]domain.Member, error)
	ListDeals(ctx context.Context, filter domain.DealFilter) ([]domain.Deal, error)
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
