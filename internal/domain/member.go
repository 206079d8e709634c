package domain

import (
	"strings"
	"time"
)

// Member is a person in the agency hierarchy. ParentID points at the member's
// upline; an empty ParentID marks a root.
type Member struct {
	ID        string    `json:"id" yaml:"id"`
	ParentID  string    `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	FirstName string    `json:"firstName,omitempty" yaml:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty" yaml:"lastName,omitempty"`
	Email     string    `json:"email,omitempty" yaml:"email,omitempty"`
	IsAdmin   bool      `json:"isAdmin,omitempty" yaml:"isAdmin,omitempty"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// IsRoot reports whether the member has no upline.
func (m Member) IsRoot() bool {
	return m.ParentID == ""
}

// DisplayName joins the name parts, falling back to the email and then the id.
func (m Member) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(m.FirstName) + " " + strings.TrimSpace(m.LastName))
	if name != "" {
		return name
	}
	if m.Email != "" {
		return m.Email
	}
	return m.ID
}
