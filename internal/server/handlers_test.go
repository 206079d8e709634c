package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/downline/internal/dataset"
	"github.com/vanshika/downline/internal/domain"
	"github.com/vanshika/downline/internal/service"
)

var testNow = time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, store service.Store) http.Handler {
	t.Helper()
	analytics := service.NewAnalyticsService(store, service.AnalyticsOptions{Logger: testLogger()})
	analytics.WithClock(func() time.Time { return testNow })
	ingest := service.NewIngestService(store)
	ingest.WithClock(func() time.Time { return testNow })

	return NewRouter(testLogger(), RouterDependencies{
		Health:         StoreHealthService{Store: store},
		API:            NewAPIHandlers(testLogger(), analytics, ingest, time.UTC),
		AllowedOrigins: []string{"https://app.agency.test"},
		MetricsEnabled: true,
	})
}

func seededStore() *dataset.Store {
	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	return dataset.FromSnapshot(dataset.Snapshot{
		Members: []domain.Member{
			{ID: "owner", FirstName: "Olive", CreatedAt: created},
			{ID: "agent-1", ParentID: "owner", FirstName: "Ava", CreatedAt: created.Add(time.Hour)},
			{ID: "agent-2", ParentID: "owner", Email: "b@agency.test", CreatedAt: created.Add(2 * time.Hour)},
		},
		Deals: []domain.Deal{
			{ID: "d1", OwnerID: "agent-1", OccurredAt: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC), Premium: "$100.00", Carrier: "Aetna"},
			{ID: "d2", OwnerID: "owner", OccurredAt: time.Date(2024, 3, 8, 10, 0, 0, 0, time.UTC), Premium: 20},
		},
	})
}

func doRequest(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, newTestRouter(t, seededStore()), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

type brokenStore struct {
	*dataset.Store
	err error
}

func (b brokenStore) Ping(context.Context) error { return b.err }

func (b brokenStore) ListDeals(context.Context, domain.DealFilter) ([]domain.Deal, error) {
	return nil, b.err
}

func TestHealthz_Degraded(t *testing.T) {
	store := brokenStore{Store: dataset.NewStore(), err: errors.New("graph unreachable")}
	rec := doRequest(t, newTestRouter(t, store), http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestUpsertMemberAndDeal(t *testing.T) {
	store := dataset.NewStore()
	router := newTestRouter(t, store)

	rec := doRequest(t, router, http.MethodPost, "/members", map[string]any{
		"id": "owner", "firstName": "Olive", "email": "OLIVE@Agency.test",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"ok","id":"owner"}`, rec.Body.String())

	rec = doRequest(t, router, http.MethodPost, "/deals", `{"id":"d1","ownerId":"owner","occurredAt":"2024-03-02T12:00:00Z","premium":19.99,"carrier":"Humana"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	members, err := store.ListMembers(context.Background(), domain.MemberFilter{})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "olive@agency.test", members[0].Email)

	deals, err := store.ListDeals(context.Background(), domain.DealFilter{})
	require.NoError(t, err)
	require.Len(t, deals, 1)
	assert.Equal(t, json.Number("19.99"), deals[0].Premium)
}

func TestUpsertMember_BadRequests(t *testing.T) {
	router := newTestRouter(t, dataset.NewStore())

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"id":`},
		{name: "unknown field", body: `{"id":"a","role":"boss"}`},
		{name: "missing id", body: `{"firstName":"Ava"}`},
		{name: "own upline", body: `{"id":"a","parentId":"a"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/members", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestUpsertDeal_MissingOwner(t *testing.T) {
	rec := doRequest(t, newTestRouter(t, dataset.NewStore()), http.MethodPost, "/deals", `{"id":"d1","occurredAt":"2024-03-02T12:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMemberScopeAndUpline(t *testing.T) {
	router := newTestRouter(t, seededStore())

	rec := doRequest(t, router, http.MethodGet, "/members/owner/scope", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var scope service.ScopeView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scope))
	assert.Len(t, scope.Members, 3)
	assert.Equal(t, "owner", scope.Members[0].MemberID)

	rec = doRequest(t, router, http.MethodGet, "/members/owner/scope?limit=two", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/members/agent-2/upline", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var upline service.UplineView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upline))
	require.Len(t, upline.Ancestors, 1)
	assert.Equal(t, "owner", upline.Ancestors[0].MemberID)

	rec = doRequest(t, router, http.MethodGet, "/members/ghost/upline", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFullReport(t *testing.T) {
	router := newTestRouter(t, seededStore())

	rec := doRequest(t, router, http.MethodGet, "/reports/owner?from=2024-03-01&to=2024-04-01&granularity=week", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rep service.TeamReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, 3, rep.ScopeSize)
	assert.Equal(t, domain.GranularityWeek, rep.Granularity)
	assert.Equal(t, 2, rep.Summary.Deals)
	require.Len(t, rep.Leaderboard, 3)
	assert.Equal(t, "agent-1", rep.Leaderboard[0].MemberID)
	assert.InDelta(t, 1200.0, rep.Leaderboard[0].Annual, 1e-9)
	require.Len(t, rep.Inactive, 1)
	assert.Equal(t, "agent-2", rep.Inactive[0].MemberID)
}

func TestReportSections(t *testing.T) {
	router := newTestRouter(t, seededStore())

	rec := doRequest(t, router, http.MethodGet, "/reports/owner/leaderboard?top=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var board leaderboardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "agent-1", board.Entries[0].MemberID)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), board.Window.Start, "default preset is this month")

	rec = doRequest(t, router, http.MethodGet, "/reports/owner/carriers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var carriers categoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &carriers))
	require.Len(t, carriers.Categories, 2)
	assert.Equal(t, "Aetna", carriers.Categories[0].Label)
	assert.Equal(t, "Other", carriers.Categories[1].Label)

	rec = doRequest(t, router, http.MethodGet, "/reports/owner/trend?preset=last7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var trend trendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trend))
	assert.Len(t, trend.Points, 7)

	for _, path := range []string{"inactive", "products", "branches", "grid"} {
		rec = doRequest(t, router, http.MethodGet, "/reports/owner/"+path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestReport_BadQueries(t *testing.T) {
	router := newTestRouter(t, seededStore())

	for _, target := range []string{
		"/reports/owner?preset=fortnight",
		"/reports/owner?granularity=hourly",
		"/reports/owner?tz=Nowhere/City",
		"/reports/owner?from=yesterday&to=2024-03-01",
		"/reports/owner?from=2024-03-01",
		"/reports/owner?top=ten",
	} {
		rec := doRequest(t, router, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestReport_StoreFailure(t *testing.T) {
	store := brokenStore{Store: seededStore(), err: errors.New("timeout")}
	rec := doRequest(t, newTestRouter(t, store), http.MethodGet, "/reports/owner", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "timeout")
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, seededStore())

	req := httptest.NewRequest(http.MethodOptions, "/reports/owner", nil)
	req.Header.Set("Origin", "https://app.agency.test")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.agency.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/reports/owner", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, seededStore())
	doRequest(t, router, http.MethodGet, "/healthz", nil)

	rec := doRequest(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "downline_http_requests_total")
}

func TestUnknownRoutes(t *testing.T) {
	router := newTestRouter(t, seededStore())

	rec := doRequest(t, router, http.MethodGet, "/teams/owner", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"route not found"}`, rec.Body.String())

	rec = doRequest(t, router, http.MethodDelete, "/members", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
