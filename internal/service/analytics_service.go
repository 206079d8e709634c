package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanshika/downline/internal/aggregate"
	"github.com/vanshika/downline/internal/domain"
	"github.com/vanshika/downline/internal/hierarchy"
	"github.com/vanshika/downline/internal/metrics"
	"github.com/vanshika/downline/internal/report"
)

var (
	// ErrInvalidQuery marks report and scope requests with bad parameters.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrMemberNotFound is returned when a lookup names an unknown member.
	ErrMemberNotFound = errors.New("member not found")
)

// AnalyticsOptions tunes AnalyticsService. Zero values select the defaults.
type AnalyticsOptions struct {
	ScopeLimit    int
	TrendCap      int
	Location      *time.Location
	DefaultPreset aggregate.Preset
	Logger        *slog.Logger
}

// AnalyticsService builds team reports from store snapshots.
type AnalyticsService struct {
	store  Store
	opts   AnalyticsOptions
	logger *slog.Logger
	nowFn  func() time.Time
}

// ReportQuery selects the team, window and presentation of a report. From
// and To override Preset when both are set.
type ReportQuery struct {
	RootID      string
	Preset      string
	From        *time.Time
	To          *time.Time
	Granularity string
	Timezone    string
	Top         int
}

// TeamReport is every report builder's output for one scope and window.
type TeamReport struct {
	RootID      string                    `json:"rootId" yaml:"rootId"`
	RootName    string                    `json:"rootName" yaml:"rootName"`
	Window      domain.TimeWindow         `json:"window" yaml:"window"`
	Granularity domain.Granularity        `json:"granularity" yaml:"granularity"`
	Timezone    string                    `json:"timezone" yaml:"timezone"`
	ScopeSize   int                       `json:"scopeSize" yaml:"scopeSize"`
	Truncated   bool                      `json:"truncated" yaml:"truncated"`
	Summary     report.TeamSummary        `json:"summary" yaml:"summary"`
	Leaderboard []report.LeaderboardEntry `json:"leaderboard" yaml:"leaderboard"`
	Inactive    []report.InactiveMember   `json:"inactive" yaml:"inactive"`
	Carriers    []report.CategoryTotal    `json:"carriers" yaml:"carriers"`
	Products    []report.CategoryTotal    `json:"products" yaml:"products"`
	Trend       []report.TrendPoint       `json:"trend" yaml:"trend"`
	Branches    []report.Branch           `json:"branches" yaml:"branches"`
	Grid        report.Grid               `json:"grid" yaml:"grid"`
	GeneratedAt time.Time                 `json:"generatedAt" yaml:"generatedAt"`
}

// ScopeMember is one entry of a resolved scope.
type ScopeMember struct {
	MemberID string `json:"memberId" yaml:"memberId"`
	Name     string `json:"name" yaml:"name"`
	ParentID string `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Depth    int    `json:"depth" yaml:"depth"`
}

// ScopeView is a resolved scope in breadth-first order.
type ScopeView struct {
	RootID    string        `json:"rootId" yaml:"rootId"`
	Members   []ScopeMember `json:"members" yaml:"members"`
	Truncated bool          `json:"truncated" yaml:"truncated"`
}

// UplineView is a member's ancestor chain, nearest first.
type UplineView struct {
	MemberID  string        `json:"memberId" yaml:"memberId"`
	Ancestors []ScopeMember `json:"ancestors" yaml:"ancestors"`
}

// NewAnalyticsService constructs the service, filling unset options.
func NewAnalyticsService(store Store, opts AnalyticsOptions) *AnalyticsService {
	if opts.ScopeLimit <= 0 {
		opts.ScopeLimit = hierarchy.DefaultScopeLimit
	}
	if opts.TrendCap <= 0 {
		opts.TrendCap = report.DefaultTrendCap
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DefaultPreset == "" {
		opts.DefaultPreset = aggregate.PresetThisMonth
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{
		store:  store,
		opts:   opts,
		logger: logger.With("component", "analytics"),
		nowFn:  time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *AnalyticsService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Scope resolves rootID's team. A limit of zero or less uses the configured
// scope limit.
func (s *AnalyticsService) Scope(ctx context.Context, rootID string, limit int) (ScopeView, error) {
	rootID = normalizeID(rootID)
	if rootID == "" {
		return ScopeView{}, fmt.Errorf("%w: root id is required", ErrInvalidQuery)
	}
	if limit <= 0 || limit > s.opts.ScopeLimit {
		limit = s.opts.ScopeLimit
	}

	members, err := s.fetchMembers(ctx)
	if err != nil {
		return ScopeView{}, err
	}
	dir := hierarchy.NewDirectory(members)
	scope, truncated := s.resolve(rootID, dir.Index(), limit)
	depths := hierarchy.Depths(rootID, dir.Index(), limit)

	view := ScopeView{RootID: rootID, Truncated: truncated, Members: make([]ScopeMember, 0, len(scope))}
	for _, id := range scope {
		view.Members = append(view.Members, s.scopeMember(dir, id, depths[id]))
	}
	return view, nil
}

// Upline returns the ancestors of memberID, nearest first.
func (s *AnalyticsService) Upline(ctx context.Context, memberID string) (UplineView, error) {
	memberID = normalizeID(memberID)
	if memberID == "" {
		return UplineView{}, fmt.Errorf("%w: member id is required", ErrInvalidQuery)
	}

	members, err := s.fetchMembers(ctx)
	if err != nil {
		return UplineView{}, err
	}
	dir := hierarchy.NewDirectory(members)
	if !dir.Has(memberID) {
		return UplineView{}, fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
	}

	chain := hierarchy.Upline(dir, memberID, s.opts.ScopeLimit)
	view := UplineView{MemberID: memberID, Ancestors: make([]ScopeMember, 0, len(chain))}
	for i, id := range chain {
		view.Ancestors = append(view.Ancestors, s.scopeMember(dir, id, i+1))
	}
	return view, nil
}

// Report builds the full team report for q.
func (s *AnalyticsService) Report(ctx context.Context, q ReportQuery) (TeamReport, error) {
	rootID := normalizeID(q.RootID)
	if rootID == "" {
		return TeamReport{}, fmt.Errorf("%w: root id is required", ErrInvalidQuery)
	}

	loc, err := s.location(q.Timezone)
	if err != nil {
		return TeamReport{}, err
	}
	g, err := domain.ParseGranularity(q.Granularity)
	if err != nil {
		return TeamReport{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	window, err := s.window(q, loc)
	if err != nil {
		return TeamReport{}, err
	}
	members, deals, err := s.snapshot(ctx, window)
	if err != nil {
		return TeamReport{}, err
	}

	dir := hierarchy.NewDirectory(members)
	scope, truncated := s.resolve(rootID, dir.Index(), s.opts.ScopeLimit)
	if truncated {
		s.logger.Warn("scope truncated", "root", rootID, "limit", s.opts.ScopeLimit)
	}

	started := time.Now()
	res := aggregate.Aggregate(deals, scope, window, aggregate.Options{
		Granularity: g,
		Location:    loc,
		MaxBuckets:  s.opts.TrendCap,
	})
	metrics.ObserveAggregate(string(g), len(deals), time.Since(started))

	return TeamReport{
		RootID:      rootID,
		RootName:    dir.DisplayName(rootID),
		Window:      window,
		Granularity: g,
		Timezone:    loc.String(),
		ScopeSize:   len(scope),
		Truncated:   truncated,
		Summary:     report.Summary(res),
		Leaderboard: report.TopN(res, dir, q.Top),
		Inactive:    report.Inactive(res, dir),
		Carriers:    report.ByCategory(deals, scope, window, report.Carrier),
		Products:    report.ByCategory(deals, scope, window, report.Product),
		Trend:       report.Trend(res, s.opts.TrendCap),
		Branches:    report.Branches(rootID, dir.Index(), res, dir, s.opts.ScopeLimit),
		Grid:        report.BuildGrid(res, dir),
		GeneratedAt: s.nowFn().UTC(),
	}, nil
}

// resolve walks one id past limit so truncation can be reported.
func (s *AnalyticsService) resolve(rootID string, index hierarchy.ChildrenIndex, limit int) ([]string, bool) {
	scope := hierarchy.Resolve(rootID, index, limit+1)
	truncated := len(scope) > limit
	if truncated {
		scope = scope[:limit]
	}
	metrics.ObserveScope(len(scope), truncated)
	return scope, truncated
}

func (s *AnalyticsService) scopeMember(dir hierarchy.Directory, id string, depth int) ScopeMember {
	m, _ := dir.Get(id)
	return ScopeMember{
		MemberID: id,
		Name:     dir.DisplayName(id),
		ParentID: m.ParentID,
		Depth:    depth,
	}
}

func (s *AnalyticsService) location(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return s.opts.Location, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrInvalidQuery, tz)
	}
	return loc, nil
}

func (s *AnalyticsService) window(q ReportQuery, loc *time.Location) (domain.TimeWindow, error) {
	switch {
	case q.From != nil && q.To != nil:
		if q.To.Before(*q.From) {
			return domain.TimeWindow{}, fmt.Errorf("%w: window end precedes start", ErrInvalidQuery)
		}
		return domain.NewTimeWindow(*q.From, *q.To), nil
	case q.From != nil || q.To != nil:
		return domain.TimeWindow{}, fmt.Errorf("%w: from and to must be given together", ErrInvalidQuery)
	}

	preset := s.opts.DefaultPreset
	if strings.TrimSpace(q.Preset) != "" {
		p, err := aggregate.ParsePreset(q.Preset)
		if err != nil {
			return domain.TimeWindow{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		preset = p
	}
	w, err := aggregate.PresetWindow(preset, s.nowFn(), loc)
	if err != nil {
		return domain.TimeWindow{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return w, nil
}

// snapshot fetches the directory and the window's deals concurrently. Only
// the window start is pushed down; the scope is not known until the
// directory arrives and the aggregator filters by it anyway.
func (s *AnalyticsService) snapshot(ctx context.Context, window domain.TimeWindow) ([]domain.Member, []domain.Deal, error) {
	var (
		members []domain.Member
		deals   []domain.Deal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = s.fetchMembers(gctx)
		return err
	})
	g.Go(func() error {
		started := time.Now()
		since := window.Start
		var err error
		deals, err = s.store.ListDeals(gctx, domain.DealFilter{Since: &since})
		metrics.ObserveFetch("deals", time.Since(started))
		if err != nil {
			return fmt.Errorf("list deals: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return members, deals, nil
}

func (s *AnalyticsService) fetchMembers(ctx context.Context) ([]domain.Member, error) {
	started := time.Now()
	members, err := s.store.ListMembers(ctx, domain.MemberFilter{})
	metrics.ObserveFetch("members", time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}
