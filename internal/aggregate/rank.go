package aggregate

import "sort"

// Rank orders rows by annual premium, then deal count, both descending.
// Remaining ties are broken by member id so the order does not depend on
// the caller's input order.
func Rank(rows []MemberTotals) []MemberTotals {
	ranked := append([]MemberTotals(nil), rows...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Annual != b.Annual {
			return a.Annual > b.Annual
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.MemberID < b.MemberID
	})
	return ranked
}
