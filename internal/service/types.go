package service

import (
	"time"

	"github.com/vanshika/downline/internal/domain"
)

// MemberInput is the inbound member payload. Keeping it apart from
// domain.Member lets ingestion normalise before anything is stored.
type MemberInput struct {
	ID        string     `json:"id"`
	ParentID  string     `json:"parentId"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	IsAdmin   bool       `json:"isAdmin"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// DealInput is the inbound deal payload. Premium is accepted in whatever
// shape the caller has it.
type DealInput struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"ownerId"`
	OccurredAt time.Time  `json:"occurredAt"`
	Premium    any        `json:"premium"`
	Carrier    string     `json:"carrier"`
	Product    string     `json:"product"`
	Status     string     `json:"status"`
	ClientName string     `json:"clientName"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// MemberInputFrom converts a stored member back into an ingest payload.
func MemberInputFrom(m domain.Member) MemberInput {
	return MemberInput{
		ID:        m.ID,
		ParentID:  m.ParentID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		IsAdmin:   m.IsAdmin,
		CreatedAt: timePtr(m.CreatedAt),
		UpdatedAt: timePtr(m.UpdatedAt),
	}
}

// DealInputFrom converts a stored deal back into an ingest payload.
func DealInputFrom(d domain.Deal) DealInput {
	return DealInput{
		ID:         d.ID,
		OwnerID:    d.OwnerID,
		OccurredAt: d.OccurredAt,
		Premium:    d.Premium,
		Carrier:    d.Carrier,
		Product:    d.Product,
		Status:     d.Status,
		ClientName: d.ClientName,
		CreatedAt:  timePtr(d.CreatedAt),
		UpdatedAt:  timePtr(d.UpdatedAt),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
