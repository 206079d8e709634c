package domain

import "time"

const (
	// DefaultMemberFetchLimit caps directory fetches.
	DefaultMemberFetchLimit = 50000
	// DefaultDealFetchLimit caps record fetches.
	DefaultDealFetchLimit = 100000
)

// MemberFilter narrows a directory fetch.
type MemberFilter struct {
	Limit int
}

// DealFilter narrows a record fetch. Since is an approximate lower bound that
// stores may push down; the aggregator's window filter remains authoritative.
type DealFilter struct {
	Since    *time.Time
	OwnerIDs []string
	Limit    int
}

// EffectiveLimit returns the filter limit or the default member cap.
func (f MemberFilter) EffectiveLimit() int {
	if f.Limit <= 0 || f.Limit > DefaultMemberFetchLimit {
		return DefaultMemberFetchLimit
	}
	return f.Limit
}

// EffectiveLimit returns the filter limit or the default deal cap.
func (f DealFilter) EffectiveLimit() int {
	if f.Limit <= 0 || f.Limit > DefaultDealFetchLimit {
		return DefaultDealFetchLimit
	}
	return f.Limit
}
