package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vanshika/downline/internal/domain"
	"github.com/vanshika/downline/internal/metrics"
)

// ErrInvalidInput marks ingest payloads rejected before reaching the store.
var ErrInvalidInput = errors.New("invalid input")

// IngestService normalises inbound members and deals and writes them to the
// store.
type IngestService struct {
	store Store
	nowFn func() time.Time
}

func NewIngestService(store Store) *IngestService {
	return &IngestService{store: store, nowFn: time.Now}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *IngestService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// UpsertMember validates and stores a member.
func (s *IngestService) UpsertMember(ctx context.Context, input MemberInput) (domain.Member, error) {
	member, err := s.buildMember(input)
	if err == nil {
		err = s.store.UpsertMember(ctx, member)
	}
	metrics.ObserveIngest("member", err)
	if err != nil {
		return domain.Member{}, err
	}
	return member, nil
}

// UpsertDeal validates and stores a deal. The premium is stored as given;
// coercion happens when reports are built.
func (s *IngestService) UpsertDeal(ctx context.Context, input DealInput) (domain.Deal, error) {
	deal, err := s.buildDeal(input)
	if err == nil {
		err = s.store.UpsertDeal(ctx, deal)
	}
	metrics.ObserveIngest("deal", err)
	if err != nil {
		return domain.Deal{}, err
	}
	return deal, nil
}

func (s *IngestService) buildMember(input MemberInput) (domain.Member, error) {
	id := normalizeID(input.ID)
	if id == "" {
		return domain.Member{}, fmt.Errorf("%w: member id is required", ErrInvalidInput)
	}
	parentID := normalizeID(input.ParentID)
	if parentID == id {
		return domain.Member{}, fmt.Errorf("%w: member %s cannot be its own upline", ErrInvalidInput, id)
	}

	createdAt, updatedAt := s.stamps(input.CreatedAt, input.UpdatedAt)
	return domain.Member{
		ID:        id,
		ParentID:  parentID,
		FirstName: sanitizeString(input.FirstName),
		LastName:  sanitizeString(input.LastName),
		Email:     normalizeEmail(input.Email),
		IsAdmin:   input.IsAdmin,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func (s *IngestService) buildDeal(input DealInput) (domain.Deal, error) {
	id := normalizeID(input.ID)
	if id == "" {
		return domain.Deal{}, fmt.Errorf("%w: deal id is required", ErrInvalidInput)
	}
	owner := normalizeID(input.OwnerID)
	if owner == "" {
		return domain.Deal{}, fmt.Errorf("%w: deal %s has no owner", ErrInvalidInput, id)
	}
	if input.OccurredAt.IsZero() {
		return domain.Deal{}, fmt.Errorf("%w: deal %s has no occurredAt", ErrInvalidInput, id)
	}

	createdAt, updatedAt := s.stamps(input.CreatedAt, input.UpdatedAt)
	return domain.Deal{
		ID:         id,
		OwnerID:    owner,
		OccurredAt: input.OccurredAt.UTC(),
		Premium:    normalizePremium(input.Premium),
		Carrier:    sanitizeString(input.Carrier),
		Product:    sanitizeString(input.Product),
		Status:     normalizeStatus(input.Status),
		ClientName: sanitizeString(input.ClientName),
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}

func (s *IngestService) stamps(created, updated *time.Time) (time.Time, time.Time) {
	now := s.nowFn().UTC()
	createdAt, updatedAt := now, now
	if created != nil && !created.IsZero() {
		createdAt = created.UTC()
	}
	if updated != nil && !updated.IsZero() {
		updatedAt = updated.UTC()
	}
	return createdAt, updatedAt
}
