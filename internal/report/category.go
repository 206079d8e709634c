package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vanshika/downline/internal/domain"
	"github.com/vanshika/downline/internal/premium"
)

// FallbackCategory labels deals whose category is blank.
const FallbackCategory = "Other"

// CategoryTotal is production for one category value.
type CategoryTotal struct {
	Label  string  `json:"label" yaml:"label"`
	Count  int     `json:"count" yaml:"count"`
	Annual float64 `json:"annual" yaml:"annual"`
	// Share is this category's fraction of the annual total, 0 when the
	// total is 0.
	Share float64 `json:"share" yaml:"share"`
}

// KeyFunc extracts the category of a deal.
type KeyFunc func(domain.Deal) string

// Carrier groups by carrier name.
func Carrier(d domain.Deal) string { return d.Carrier }

// Product groups by product line.
func Product(d domain.Deal) string { return d.Product }

// Status groups by deal status.
func Status(d domain.Deal) string { return d.Status }

// ByCategory re-buckets the deals that fall in scope and window by key
// instead of owner. Labels are trimmed and compared case-insensitively; the
// first spelling seen is reported.
func ByCategory(deals []domain.Deal, scope []string, window domain.TimeWindow, key KeyFunc) []CategoryTotal {
	inScope := make(map[string]struct{}, len(scope))
	for _, id := range scope {
		inScope[id] = struct{}{}
	}

	type acc struct {
		label  string
		count  int
		annual decimal.Decimal
	}
	byKey := make(map[string]*acc)
	var order []string
	total := decimal.Zero

	for _, deal := range deals {
		if _, ok := inScope[deal.OwnerID]; !ok || !window.Contains(deal.OccurredAt) {
			continue
		}
		label := strings.TrimSpace(key(deal))
		if label == "" {
			label = FallbackCategory
		}
		k := strings.ToLower(label)
		a, ok := byKey[k]
		if !ok {
			a = &acc{label: label}
			byKey[k] = a
			order = append(order, k)
		}
		annual := premium.Annualize(deal.Premium)
		a.count++
		a.annual = a.annual.Add(annual)
		total = total.Add(annual)
	}

	totals := make([]CategoryTotal, 0, len(order))
	for _, k := range order {
		a := byKey[k]
		ct := CategoryTotal{Label: a.label, Count: a.count, Annual: a.annual.InexactFloat64()}
		if total.IsPositive() {
			ct.Share = a.annual.Div(total).InexactFloat64()
		}
		totals = append(totals, ct)
	}
	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].Annual != totals[j].Annual {
			return totals[i].Annual > totals[j].Annual
		}
		if totals[i].Count != totals[j].Count {
			return totals[i].Count > totals[j].Count
		}
		return totals[i].Label < totals[j].Label
	})
	return totals
}
