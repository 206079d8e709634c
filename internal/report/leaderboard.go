// Package report shapes aggregation results into the views the dashboard
// renders. Builders are pure and return numbers only; formatting currency,
// dates and percentages is the client's concern.
package report

import (
	"github.com/vanshika/downline/internal/aggregate"
	"github.com/vanshika/downline/internal/hierarchy"
)

// LeaderboardEntry is one ranked member.
type LeaderboardEntry struct {
	Rank     int     `json:"rank" yaml:"rank"`
	MemberID string  `json:"memberId" yaml:"memberId"`
	Name     string  `json:"name" yaml:"name"`
	Count    int     `json:"count" yaml:"count"`
	Premium  float64 `json:"premium" yaml:"premium"`
	Annual   float64 `json:"annual" yaml:"annual"`
}

// TopN ranks the scope and keeps the first n entries. n <= 0 keeps all.
func TopN(res aggregate.Result, dir hierarchy.Directory, n int) []LeaderboardEntry {
	ranked := aggregate.Rank(res.Members)
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	entries := make([]LeaderboardEntry, 0, len(ranked))
	for i, row := range ranked {
		entries = append(entries, LeaderboardEntry{
			Rank:     i + 1,
			MemberID: row.MemberID,
			Name:     dir.DisplayName(row.MemberID),
			Count:    row.Count,
			Premium:  row.Premium,
			Annual:   row.Annual,
		})
	}
	return entries
}

// InactiveMember is a scope member with no deals in the window.
type InactiveMember struct {
	MemberID string `json:"memberId" yaml:"memberId"`
	Name     string `json:"name" yaml:"name"`
	Email    string `json:"email" yaml:"email"`
}

// Inactive lists non-writers in scope order.
func Inactive(res aggregate.Result, dir hierarchy.Directory) []InactiveMember {
	inactive := []InactiveMember{}
	for _, row := range res.Members {
		if row.Count > 0 {
			continue
		}
		item := InactiveMember{MemberID: row.MemberID, Name: dir.DisplayName(row.MemberID)}
		if m, ok := dir.Get(row.MemberID); ok {
			item.Email = m.Email
		}
		inactive = append(inactive, item)
	}
	return inactive
}

// TeamSummary condenses a result into headline numbers.
type TeamSummary struct {
	Members         int     `json:"members" yaml:"members"`
	Writers         int     `json:"writers" yaml:"writers"`
	NonWriters      int     `json:"nonWriters" yaml:"nonWriters"`
	Deals           int     `json:"deals" yaml:"deals"`
	Premium         float64 `json:"premium" yaml:"premium"`
	Annual          float64 `json:"annual" yaml:"annual"`
	AnnualPerWriter float64 `json:"annualPerWriter" yaml:"annualPerWriter"`
}

// Summary computes headline numbers for res.
func Summary(res aggregate.Result) TeamSummary {
	s := TeamSummary{
		Members: len(res.Members),
		Deals:   res.Total.Count,
		Premium: res.Total.Premium,
		Annual:  res.Total.Annual,
	}
	for _, row := range res.Members {
		if row.Count > 0 {
			s.Writers++
		}
	}
	s.NonWriters = s.Members - s.Writers
	if s.Writers > 0 {
		s.AnnualPerWriter = s.Annual / float64(s.Writers)
	}
	return s
}
