package report

import (
	"sort"

	"github.com/vanshika/downline/internal/aggregate"
	"github.com/vanshika/downline/internal/hierarchy"
)

// Branch rolls up one direct downline of the root, or the root's personal
// production when Personal is set.
type Branch struct {
	LeaderID string `json:"leaderId" yaml:"leaderId"`
	Name     string `json:"name" yaml:"name"`
	Personal bool   `json:"personal" yaml:"personal"`
	// Size counts members of the branch that are inside the aggregated scope.
	Size   int     `json:"size" yaml:"size"`
	Count  int     `json:"count" yaml:"count"`
	Annual float64 `json:"annual" yaml:"annual"`
}

// Branches splits res by the root's direct children. Members beyond the
// aggregated scope are ignored, so a truncated scope yields partial
// branches rather than inflated ones. A member reachable from several
// children (a diamond in bad data) is counted once, in the first branch in
// index order that reaches it, so branch totals never exceed the team total.
func Branches(rootID string, index hierarchy.ChildrenIndex, res aggregate.Result, dir hierarchy.Directory, limit int) []Branch {
	branches := []Branch{personalBranch(rootID, res, dir)}
	claimed := map[string]struct{}{rootID: {}}

	for _, child := range index.Children(rootID) {
		if child == rootID || !res.InScope(child) {
			continue
		}
		b := Branch{LeaderID: child, Name: dir.DisplayName(child)}
		for _, id := range hierarchy.Resolve(child, index, limit) {
			if _, taken := claimed[id]; taken {
				continue
			}
			row, ok := res.Member(id)
			if !ok {
				continue
			}
			claimed[id] = struct{}{}
			b.Size++
			b.Count += row.Count
			b.Annual += row.Annual
		}
		branches = append(branches, b)
	}

	sort.SliceStable(branches[1:], func(i, j int) bool {
		a, b := branches[1+i], branches[1+j]
		if a.Annual != b.Annual {
			return a.Annual > b.Annual
		}
		return a.LeaderID < b.LeaderID
	})
	return branches
}

func personalBranch(rootID string, res aggregate.Result, dir hierarchy.Directory) Branch {
	b := Branch{LeaderID: rootID, Name: dir.DisplayName(rootID), Personal: true, Size: 1}
	if row, ok := res.Member(rootID); ok {
		b.Count = row.Count
		b.Annual = row.Annual
	}
	return b
}

// GridRow is one member's per-bucket annual premium.
type GridRow struct {
	MemberID string    `json:"memberId" yaml:"memberId"`
	Name     string    `json:"name" yaml:"name"`
	Total    float64   `json:"total" yaml:"total"`
	Cells    []float64 `json:"cells" yaml:"cells"`
}

// Grid is a member-by-bucket matrix.
type Grid struct {
	Columns []aggregate.Bucket `json:"columns" yaml:"columns"`
	Rows    []GridRow          `json:"rows" yaml:"rows"`
}

// BuildGrid lays res out as a grid with rows in leaderboard order. Row
// totals cover the whole window even when the columns were capped.
func BuildGrid(res aggregate.Result, dir hierarchy.Directory) Grid {
	grid := Grid{Columns: res.Buckets, Rows: make([]GridRow, 0, len(res.Members))}
	for _, row := range aggregate.Rank(res.Members) {
		grid.Rows = append(grid.Rows, GridRow{
			MemberID: row.MemberID,
			Name:     dir.DisplayName(row.MemberID),
			Total:    row.Annual,
			Cells:    res.Row(row.MemberID),
		})
	}
	return grid
}
