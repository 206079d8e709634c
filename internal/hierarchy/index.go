// Package hierarchy turns the flat member directory into an upline/downline
// forest and answers scope questions over it.
//
// The forest is never materialized as linked structs. Members live in an
// id-keyed arena and the tree is an index from parent id to child ids, so a
// cycle in the stored data can never become a reference cycle here. Every
// walk is bounded and keeps a seen set instead of validating acyclicity up
// front.
package hierarchy

import "github.com/vanshika/downline/internal/domain"

// ChildrenIndex maps a parent id to its direct children in directory order.
type ChildrenIndex map[string][]string

// BuildIndex groups members by parent. Roots are not listed as anybody's
// child. Parents missing from the input are indexed like any other key.
func BuildIndex(members []domain.Member) ChildrenIndex {
	index := make(ChildrenIndex)
	for _, m := range members {
		if m.ParentID == "" {
			continue
		}
		index[m.ParentID] = append(index[m.ParentID], m.ID)
	}
	return index
}

// Children returns the direct children of id.
func (idx ChildrenIndex) Children(id string) []string {
	return idx[id]
}

// Directory is an immutable snapshot of the member set.
type Directory struct {
	members map[string]domain.Member
	order   []string
	index   ChildrenIndex
}

// NewDirectory snapshots members. When an id repeats, the last record wins
// for lookups while the first position is kept for ordering.
func NewDirectory(members []domain.Member) Directory {
	dir := Directory{
		members: make(map[string]domain.Member, len(members)),
		order:   make([]string, 0, len(members)),
		index:   BuildIndex(members),
	}
	for _, m := range members {
		if _, exists := dir.members[m.ID]; !exists {
			dir.order = append(dir.order, m.ID)
		}
		dir.members[m.ID] = m
	}
	return dir
}

// Get looks up a member by id.
func (d Directory) Get(id string) (domain.Member, bool) {
	m, ok := d.members[id]
	return m, ok
}

// Has reports whether id is in the snapshot.
func (d Directory) Has(id string) bool {
	_, ok := d.members[id]
	return ok
}

// Len returns the number of distinct members.
func (d Directory) Len() int {
	return len(d.order)
}

// Index returns the children index built from the snapshot.
func (d Directory) Index() ChildrenIndex {
	return d.index
}

// IDs returns member ids in snapshot order.
func (d Directory) IDs() []string {
	return append([]string(nil), d.order...)
}

// DisplayName resolves a member's display name, or echoes the id for members
// outside the snapshot.
func (d Directory) DisplayName(id string) string {
	if m, ok := d.members[id]; ok {
		return m.DisplayName()
	}
	return id
}

// Roots lists members without an upline, including members whose upline is
// not in the snapshot.
func (d Directory) Roots() []string {
	var roots []string
	for _, id := range d.order {
		m := d.members[id]
		if m.ParentID == "" || !d.Has(m.ParentID) {
			roots = append(roots, id)
		}
	}
	return roots
}
