// Package equality is the unification engine from §4.F: it assigns a fresh
// (ownership, group) type-variable pair to every instruction, then unifies
// them wherever the program demands two slots share an owner or an aliasing
// class - binds, constructor arguments, call sites, branch joins - and
// finally folds every field projection that lands on the same (root, index)
// pair into one class via a fixed point.
//
// Grounded on original_source/Compiler/Ownership/Equality.py and
// TypeVariableInfo.py for the exact unification shape; TypeVariableInfo.py's
// Substitution is a plain chained-write dict, which §9 explicitly flags for
// an upgrade to classical union-find with path compression (semantics
// unchanged) - that upgrade is what Substitution below implements.
package equality

import "ownc/internal/ids"

// Substitution is a union-find over ownership vars and group vars, kept
// separate since the two lattices never mix.
type Substitution struct {
	ownership map[ids.OwnershipVar]ids.OwnershipVar
	group     map[ids.GroupVar]ids.GroupVar
}

// NewSubstitution returns an empty substitution.
func NewSubstitution() *Substitution {
	return &Substitution{
		ownership: make(map[ids.OwnershipVar]ids.OwnershipVar),
		group:     make(map[ids.GroupVar]ids.GroupVar),
	}
}

// findOwnership chases v to its representative, compressing every link on
// the path it walks.
func (s *Substitution) findOwnership(v ids.OwnershipVar) ids.OwnershipVar {
	root := v
	for {
		next, ok := s.ownership[root]
		if !ok {
			break
		}
		root = next
	}
	for v != root {
		next := s.ownership[v]
		s.ownership[v] = root
		v = next
	}
	return root
}

func (s *Substitution) findGroup(v ids.GroupVar) ids.GroupVar {
	root := v
	for {
		next, ok := s.group[root]
		if !ok {
			break
		}
		root = next
	}
	for v != root {
		next := s.group[v]
		s.group[v] = root
		v = next
	}
	return root
}

// ApplyOwnership resolves v to its current representative.
func (s *Substitution) ApplyOwnership(v ids.OwnershipVar) ids.OwnershipVar {
	if !v.IsValid() {
		return v
	}
	return s.findOwnership(v)
}

// ApplyGroup resolves v to its current representative.
func (s *Substitution) ApplyGroup(v ids.GroupVar) ids.GroupVar {
	if !v.IsValid() {
		return v
	}
	return s.findGroup(v)
}

// ApplyTVI resolves both halves of a pair.
func (s *Substitution) ApplyTVI(info ids.TypeVariableInfo) ids.TypeVariableInfo {
	return ids.TypeVariableInfo{
		Ownership: s.ApplyOwnership(info.Ownership),
		Group:     s.ApplyGroup(info.Group),
	}
}

// UnionOwnership merges a and b's classes, picking the numerically smaller
// representative so the choice is deterministic and independent of union
// order. Reports whether the classes were actually distinct.
func (s *Substitution) UnionOwnership(a, b ids.OwnershipVar) bool {
	if !a.IsValid() || !b.IsValid() {
		return false
	}
	ra, rb := s.findOwnership(a), s.findOwnership(b)
	if ra == rb {
		return false
	}
	if ra < rb {
		s.ownership[rb] = ra
	} else {
		s.ownership[ra] = rb
	}
	return true
}

// UnionGroup merges a and b's classes; see UnionOwnership.
func (s *Substitution) UnionGroup(a, b ids.GroupVar) bool {
	if !a.IsValid() || !b.IsValid() {
		return false
	}
	ra, rb := s.findGroup(a), s.findGroup(b)
	if ra == rb {
		return false
	}
	if ra < rb {
		s.group[rb] = ra
	} else {
		s.group[ra] = rb
	}
	return true
}

// UnifyTVI merges both halves of a and b, reporting whether either class
// changed.
func (s *Substitution) UnifyTVI(a, b ids.TypeVariableInfo) bool {
	changedOwnership := s.UnionOwnership(a.Ownership, b.Ownership)
	changedGroup := s.UnionGroup(a.Group, b.Group)
	return changedOwnership || changedGroup
}
