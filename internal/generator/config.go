package generator

import "time"

// Config drives the synthetic agency generator.
type Config struct {
	NumMembers  int
	NumDeals    int
	MaxChildren int
	// HistoryDays is how far back deals are spread from Now.
	HistoryDays int
	// WriterShare is the fraction of members that write any deals.
	WriterShare float64
	// TextPremiumChance stores a premium as formatted text ("$1,234.50").
	TextPremiumChance float64
	// MalformedChance stores a premium that does not parse at all.
	MalformedChance float64
	// DanglingChance points a member at an upline missing from the dataset.
	DanglingChance float64
	Seed           int64
	Now            time.Time
}

// DefaultConfig returns a mid-sized agency.
func DefaultConfig() Config {
	return Config{
		NumMembers:        400,
		NumDeals:          6000,
		MaxChildren:       6,
		HistoryDays:       180,
		WriterShare:       0.7,
		TextPremiumChance: 0.2,
		MalformedChance:   0.03,
		DanglingChance:    0.01,
		Seed:              42,
	}
}
