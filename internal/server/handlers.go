package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vanshika/downline/internal/domain"
	"github.com/vanshika/downline/internal/report"
	"github.com/vanshika/downline/internal/service"
)

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger    *slog.Logger
	analytics *service.AnalyticsService
	ingest    *service.IngestService
	// location interprets date-only from/to values when no tz is given.
	location *time.Location
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, analytics *service.AnalyticsService, ingest *service.IngestService, loc *time.Location) *APIHandlers {
	if loc == nil {
		loc = time.UTC
	}
	return &APIHandlers{
		logger:    logger,
		analytics: analytics,
		ingest:    ingest,
		location:  loc,
	}
}

// Routes mounts the API on r.
func (h *APIHandlers) Routes(r chi.Router) {
	r.Post("/members", h.upsertMember)
	r.Post("/deals", h.upsertDeal)
	r.Get("/members/{id}/scope", h.memberScope)
	r.Get("/members/{id}/upline", h.memberUpline)

	r.Route("/reports/{id}", func(r chi.Router) {
		r.Get("/", h.fullReport)
		r.Get("/leaderboard", h.reportSection(func(rep service.TeamReport) any {
			return leaderboardResponse{Window: rep.Window, Entries: nonNilSlice(rep.Leaderboard)}
		}))
		r.Get("/inactive", h.reportSection(func(rep service.TeamReport) any {
			return inactiveResponse{Window: rep.Window, Members: nonNilSlice(rep.Inactive)}
		}))
		r.Get("/carriers", h.reportSection(func(rep service.TeamReport) any {
			return categoryResponse{Window: rep.Window, Categories: nonNilSlice(rep.Carriers)}
		}))
		r.Get("/products", h.reportSection(func(rep service.TeamReport) any {
			return categoryResponse{Window: rep.Window, Categories: nonNilSlice(rep.Products)}
		}))
		r.Get("/trend", h.reportSection(func(rep service.TeamReport) any {
			return trendResponse{Window: rep.Window, Granularity: rep.Granularity, Points: nonNilSlice(rep.Trend)}
		}))
		r.Get("/branches", h.reportSection(func(rep service.TeamReport) any {
			return branchesResponse{Window: rep.Window, Branches: nonNilSlice(rep.Branches)}
		}))
		r.Get("/grid", h.reportSection(func(rep service.TeamReport) any {
			return gridResponse{Window: rep.Window, Granularity: rep.Granularity, Grid: rep.Grid}
		}))
	})
}

func (h *APIHandlers) upsertMember(w http.ResponseWriter, r *http.Request) {
	var payload service.MemberInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	member, err := h.ingest.UpsertMember(r.Context(), payload)
	if err != nil {
		h.writeIngestError(w, err, "member", payload.ID)
		return
	}

	respondJSON(w, http.StatusCreated, statusResponse{Status: "ok", ID: member.ID})
}

func (h *APIHandlers) upsertDeal(w http.ResponseWriter, r *http.Request) {
	var payload service.DealInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	deal, err := h.ingest.UpsertDeal(r.Context(), payload)
	if err != nil {
		h.writeIngestError(w, err, "deal", payload.ID)
		return
	}

	respondJSON(w, http.StatusCreated, statusResponse{Status: "ok", ID: deal.ID})
}

func (h *APIHandlers) memberScope(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit, err := parseInt(r.URL.Query().Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	view, err := h.analytics.Scope(r.Context(), id, limit)
	if err != nil {
		h.writeQueryError(w, err, "scope", id)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *APIHandlers) memberUpline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view, err := h.analytics.Upline(r.Context(), id)
	if err != nil {
		h.writeQueryError(w, err, "upline", id)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *APIHandlers) fullReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.buildReport(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (h *APIHandlers) reportSection(pick func(service.TeamReport) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, ok := h.buildReport(w, r)
		if !ok {
			return
		}
		respondJSON(w, http.StatusOK, pick(rep))
	}
}

func (h *APIHandlers) buildReport(w http.ResponseWriter, r *http.Request) (service.TeamReport, bool) {
	id := chi.URLParam(r, "id")
	query, err := h.parseReportQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return service.TeamReport{}, false
	}
	query.RootID = id

	rep, err := h.analytics.Report(r.Context(), query)
	if err != nil {
		h.writeQueryError(w, err, "report", id)
		return service.TeamReport{}, false
	}
	return rep, true
}

// parseReportQuery reads preset, from, to, granularity, tz and top. from and
// to accept RFC 3339 instants or YYYY-MM-DD dates; a date-only to is
// exclusive, so from=2024-03-01&to=2024-04-01 covers March.
func (h *APIHandlers) parseReportQuery(r *http.Request) (service.ReportQuery, error) {
	values := r.URL.Query()
	q := service.ReportQuery{
		Preset:      values.Get("preset"),
		Granularity: values.Get("granularity"),
		Timezone:    values.Get("tz"),
	}

	top, err := parseInt(values.Get("top"), 0)
	if err != nil {
		return q, errors.New("top must be an integer")
	}
	q.Top = top

	loc := h.location
	if q.Timezone != "" {
		loaded, err := time.LoadLocation(q.Timezone)
		if err != nil {
			return q, fmt.Errorf("unknown timezone %q", q.Timezone)
		}
		loc = loaded
	}

	if q.From, err = parseInstant(values.Get("from"), loc); err != nil {
		return q, fmt.Errorf("from: %w", err)
	}
	if q.To, err = parseInstant(values.Get("to"), loc); err != nil {
		return q, fmt.Errorf("to: %w", err)
	}
	return q, nil
}

func (h *APIHandlers) writeIngestError(w http.ResponseWriter, err error, kind, id string) {
	if errors.Is(err, service.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error("failed to persist "+kind, "error", err, "id", id)
	writeError(w, http.StatusInternalServerError, "failed to persist "+kind)
}

func (h *APIHandlers) writeQueryError(w http.ResponseWriter, err error, op, id string) {
	switch {
	case errors.Is(err, service.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrMemberNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("failed to build "+op, "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to build "+op)
	}
}

type statusResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

type leaderboardResponse struct {
	Window  domain.TimeWindow         `json:"window"`
	Entries []report.LeaderboardEntry `json:"entries"`
}

type inactiveResponse struct {
	Window  domain.TimeWindow       `json:"window"`
	Members []report.InactiveMember `json:"members"`
}

type categoryResponse struct {
	Window     domain.TimeWindow      `json:"window"`
	Categories []report.CategoryTotal `json:"categories"`
}

type trendResponse struct {
	Window      domain.TimeWindow   `json:"window"`
	Granularity domain.Granularity  `json:"granularity"`
	Points      []report.TrendPoint `json:"points"`
}

type branchesResponse struct {
	Window   domain.TimeWindow `json:"window"`
	Branches []report.Branch   `json:"branches"`
}

type gridResponse struct {
	Window      domain.TimeWindow  `json:"window"`
	Granularity domain.Granularity `json:"granularity"`
	Grid        report.Grid        `json:"grid"`
}

// decodeJSON rejects unknown fields and keeps numbers as json.Number so
// premiums reach the store without float rounding.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	decoder.UseNumber()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func parseInt(value string, fallback int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func parseInstant(value string, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, loc)
	if err != nil {
		return nil, fmt.Errorf("expected RFC 3339 or YYYY-MM-DD, got %q", value)
	}
	return &t, nil
}

func nonNilSlice[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}
