package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/downline/internal/dataset"
	"github.com/vanshika/downline/internal/domain"
)

type recordingStore struct {
	mu        sync.Mutex
	members   []domain.Member
	deals     []domain.Deal
	memberErr error
	dealErr   error
}

func (s *recordingStore) UpsertMember(_ context.Context, m domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memberErr != nil {
		return s.memberErr
	}
	s.members = append(s.members, m)
	return nil
}

func (s *recordingStore) UpsertDeal(_ context.Context, d domain.Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dealErr != nil {
		return s.dealErr
	}
	s.deals = append(s.deals, d)
	return nil
}

func (s *recordingStore) ListMembers(context.Context, domain.MemberFilter) ([]domain.Member, error) {
	return s.members, nil
}

func (s *recordingStore) ListDeals(context.Context, domain.DealFilter) ([]domain.Deal, error) {
	return s.deals, nil
}

var ingestNow = time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)

func newIngest(store Store) *IngestService {
	svc := NewIngestService(store)
	svc.WithClock(func() time.Time { return ingestNow })
	return svc
}

func TestIngestService_UpsertMemberNormalizes(t *testing.T) {
	store := &recordingStore{}
	svc := newIngest(store)

	created := time.Date(2023, 5, 1, 8, 0, 0, 0, time.FixedZone("PDT", -7*3600))
	member, err := svc.UpsertMember(context.Background(), MemberInput{
		ID:        "  agent-7 ",
		ParentID:  " mgr-a",
		FirstName: "  Mary   Ann ",
		LastName:  "Lee",
		Email:     " Mary.Lee@Agency.TEST ",
		CreatedAt: &created,
	})
	require.NoError(t, err)

	assert.Equal(t, "agent-7", member.ID)
	assert.Equal(t, "mgr-a", member.ParentID)
	assert.Equal(t, "Mary Ann", member.FirstName)
	assert.Equal(t, "mary.lee@agency.test", member.Email)
	assert.Equal(t, created.UTC(), member.CreatedAt)
	assert.Equal(t, ingestNow, member.UpdatedAt)
	require.Len(t, store.members, 1)
	assert.Equal(t, member, store.members[0])
}

func TestIngestService_UpsertMemberValidation(t *testing.T) {
	store := &recordingStore{}
	svc := newIngest(store)

	_, err := svc.UpsertMember(context.Background(), MemberInput{ID: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpsertMember(context.Background(), MemberInput{ID: "a", ParentID: " a "})
	assert.ErrorIs(t, err, ErrInvalidInput, "a member cannot be its own upline")

	assert.Empty(t, store.members)
}

func TestIngestService_UpsertDeal(t *testing.T) {
	store := &recordingStore{}
	svc := newIngest(store)

	occurred := time.Date(2024, 3, 31, 22, 0, 0, 0, time.FixedZone("CST", -5*3600))
	deal, err := svc.UpsertDeal(context.Background(), DealInput{
		ID:         "deal-9",
		OwnerID:    "agent-7",
		OccurredAt: occurred,
		Premium:    "$120.00",
		Carrier:    "  Blue   Cross ",
	})
	require.NoError(t, err)

	assert.Equal(t, occurred.UTC(), deal.OccurredAt)
	assert.Equal(t, "$120.00", deal.Premium, "premium is stored untouched")
	assert.Equal(t, "Blue Cross", deal.Carrier)
	assert.Equal(t, ingestNow, deal.CreatedAt)
	assert.Len(t, store.deals, 1)
}

func TestIngestService_UpsertDealValidation(t *testing.T) {
	svc := newIngest(&recordingStore{})
	when := ingestNow

	tests := []struct {
		name  string
		input DealInput
	}{
		{name: "missing id", input: DealInput{OwnerID: "a", OccurredAt: when}},
		{name: "missing owner", input: DealInput{ID: "d", OccurredAt: when}},
		{name: "missing occurredAt", input: DealInput{ID: "d", OwnerID: "a"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpsertDeal(context.Background(), tc.input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestIngestService_StoreError(t *testing.T) {
	boom := errors.New("write failed")
	svc := newIngest(&recordingStore{memberErr: boom})

	_, err := svc.UpsertMember(context.Background(), MemberInput{ID: "a"})
	assert.ErrorIs(t, err, boom)
}

func TestBulkIngestor_IngestsIntoStore(t *testing.T) {
	store := dataset.NewStore()
	bulk := NewBulkIngestor(newIngest(store), 3)

	members := []MemberInput{{ID: "owner"}, {ID: "a", ParentID: "owner"}, {ID: "b", ParentID: "owner"}}
	require.NoError(t, bulk.IngestMembers(context.Background(), members))

	deals := make([]DealInput, 20)
	for i := range deals {
		deals[i] = DealInput{ID: string(rune('A' + i)), OwnerID: "a", OccurredAt: ingestNow, Premium: i}
	}
	require.NoError(t, bulk.IngestDeals(context.Background(), deals))

	listed, err := store.ListDeals(context.Background(), domain.DealFilter{})
	require.NoError(t, err)
	assert.Len(t, listed, 20)
}

func TestBulkIngestor_CollectsErrors(t *testing.T) {
	bulk := NewBulkIngestor(newIngest(&recordingStore{}), 0)

	err := bulk.IngestMembers(context.Background(), []MemberInput{{ID: "ok"}, {ID: ""}, {ID: "x", ParentID: "x"}})
	require.Error(t, err)

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Len(t, taskErr.Errors, 2)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "2 records failed:")
}

func TestBulkIngestor_Empty(t *testing.T) {
	bulk := NewBulkIngestor(newIngest(&recordingStore{}), 2)
	assert.NoError(t, bulk.IngestDeals(context.Background(), nil))
}

func TestConversions(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := MemberInputFrom(domain.Member{ID: "a", ParentID: "b", CreatedAt: created})
	assert.Equal(t, "b", in.ParentID)
	require.NotNil(t, in.CreatedAt)
	assert.Nil(t, in.UpdatedAt)

	d := DealInputFrom(domain.Deal{ID: "d", OwnerID: "a", Premium: "12"})
	assert.Equal(t, "12", d.Premium)
	assert.Nil(t, d.CreatedAt)
}

func TestBulkIngestor_ProgressAndCancel(t *testing.T) {
	store := dataset.NewStore()

	var calls []int
	bulk := NewBulkIngestor(newIngest(store), 1).WithProgress(func(kind string, done, total int) {
		assert.Equal(t, "members", kind)
		assert.Equal(t, 3, total)
		calls = append(calls, done)
	})
	require.NoError(t, bulk.IngestMembers(context.Background(), []MemberInput{{ID: "a"}, {ID: "b"}, {ID: "c"}}))
	assert.Equal(t, []int{1, 2, 3}, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewBulkIngestor(newIngest(store), 2).IngestMembers(ctx, []MemberInput{{ID: "d"}})
	assert.ErrorIs(t, err, context.Canceled)
}
