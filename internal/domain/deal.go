package domain

import "time"

// Deal is a single written policy attributed to one member.
type Deal struct {
	ID         string    `json:"id" yaml:"id"`
	OwnerID    string    `json:"ownerId" yaml:"ownerId"`
	OccurredAt time.Time `json:"occurredAt" yaml:"occurredAt"`
	// Premium is the monthly premium as stored upstream. It may be a number, a
	// numeric string or free text and must be read through premium.Normalize.
	Premium    any       `json:"premium" yaml:"premium"`
	Carrier    string    `json:"carrier,omitempty" yaml:"carrier,omitempty"`
	Product    string    `json:"product,omitempty" yaml:"product,omitempty"`
	Status     string    `json:"status,omitempty" yaml:"status,omitempty"`
	ClientName string    `json:"clientName,omitempty" yaml:"clientName,omitempty"`
	CreatedAt  time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" yaml:"updatedAt"`
}
