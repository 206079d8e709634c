package hierarchy

import "github.com/vanshika/downline/internal/domain"

// DefaultScopeLimit bounds every traversal. Hitting it means the data is
// either huge or cyclic; the walk stops quietly in both cases.
const DefaultScopeLimit = 2500

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultScopeLimit
	}
	return limit
}

// Resolve returns rootID followed by all of its descendants in breadth-first
// order, each id at most once, and at most limit ids. The root is always the
// first element, whether or not it is known to the directory. Callers must
// read the result as a lower bound on the team.
func Resolve(rootID string, index ChildrenIndex, limit int) []string {
	limit = effectiveLimit(limit)

	scope := []string{rootID}
	seen := map[string]struct{}{rootID: {}}
	for head := 0; head < len(scope) && len(scope) < limit; head++ {
		for _, child := range index[scope[head]] {
			if _, dup := seen[child]; dup {
				continue
			}
			seen[child] = struct{}{}
			scope = append(scope, child)
			if len(scope) >= limit {
				break
			}
		}
	}
	return scope
}

// ResolveSet is Resolve as a membership set.
func ResolveSet(rootID string, index ChildrenIndex, limit int) map[string]struct{} {
	ids := Resolve(rootID, index, limit)
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Depths returns the breadth-first level of each scope member, root at 0.
func Depths(rootID string, index ChildrenIndex, limit int) map[string]int {
	limit = effectiveLimit(limit)

	depth := map[string]int{rootID: 0}
	queue := []string{rootID}
	for head := 0; head < len(queue) && len(depth) < limit; head++ {
		parent := queue[head]
		for _, child := range index[parent] {
			if _, dup := depth[child]; dup {
				continue
			}
			depth[child] = depth[parent] + 1
			queue = append(queue, child)
			if len(depth) >= limit {
				break
			}
		}
	}
	return depth
}

// InScope reports whether candidateID sits in rootID's scope.
func InScope(rootID, candidateID string, index ChildrenIndex, limit int) bool {
	if rootID == candidateID {
		return true
	}
	_, ok := ResolveSet(rootID, index, limit)[candidateID]
	return ok
}

// Upline walks parent pointers from id and returns the ancestors nearest
// first. The walk ends at a root, at a parent missing from the directory, at
// a repeated id, or after limit ancestors.
func Upline(dir Directory, id string, limit int) []string {
	limit = effectiveLimit(limit)

	var chain []string
	seen := map[string]struct{}{id: {}}
	current, ok := dir.Get(id)
	for ok && current.ParentID != "" && len(chain) < limit {
		parentID := current.ParentID
		if _, dup := seen[parentID]; dup {
			break
		}
		seen[parentID] = struct{}{}
		current, ok = dir.Get(parentID)
		if !ok {
			break
		}
		chain = append(chain, parentID)
	}
	return chain
}

// FindUpline returns the nearest ancestor of id matching pred.
func FindUpline(dir Directory, id string, limit int, pred func(domain.Member) bool) (domain.Member, bool) {
	for _, ancestorID := range Upline(dir, id, limit) {
		m, _ := dir.Get(ancestorID)
		if pred(m) {
			return m, true
		}
	}
	return domain.Member{}, false
}
