package mono

import (
	"ownc/internal/forbidden"
	"ownc/internal/ids"
	"ownc/internal/ir"
)

// processClass instantiates signature's class exactly once (check-then-
// insert on Key()). For every declared field it resolves the field's
// MemberInfo by index (synthesizing a fresh TVI if the constructor never
// touched that field), then attaches the backend's lifetime/dep_lifetimes
// annotation straight from the signature's own Borrows list - since
// enqueueCallees already ran this signature's members through
// NormalizeClassSignature (which only keeps borrow-relevant members and
// borrows), no further ownership re-inference belongs here. Ports
// Monomorphizer.processClass.
func (m *Monomorphizer) processClass(sig ir.ClassInstantiationSignature) {
	key := sig.Key()
	if _, ok := m.out.Classes[key]; ok {
		return
	}

	orig := m.program.Classes[sig.Name]
	if orig == nil {
		m.out.Classes[key] = &MonoClass{Signature: sig}
		return
	}

	alloc := sig.Alloc
	if alloc == nil {
		alloc = ids.NewAllocator()
	}
	borrowOf := make(map[ids.OwnershipVar]ids.BorrowID, len(sig.Borrows))
	for _, b := range sig.Borrows {
		borrowOf[b.Ownership] = b.Borrow
	}
	ownDeps := forbidden.OwnershipDepMap(sig.Members)

	mc := &MonoClass{Signature: sig}
	for _, f := range orig.Fields {
		info := fieldInfo(sig, f.Index)
		if !info.IsValid() {
			info = alloc.NextTVI()
		}
		ref := refAnnotation{Ownership: ir.OwnOwner}
		if b, ok := borrowOf[info.Ownership]; ok {
			ref.Ownership = ir.OwnBorrow
			ref.Lifetime = b
		}
		ref.DepLifetime = depLifetimesFromBorrows(ownDeps, borrowOf, info.Group)
		mc.Fields = append(mc.Fields, FieldRef{Name: f.Name, Index: f.Index, refAnnotation: ref})
	}
	m.out.Classes[key] = mc
}

// fieldInfo finds index's MemberInfo rooted at sig's own group, the field
// lookup §4.L's class-instantiation bullet calls "pick its MemberInfo by
// field index". Returns the zero (invalid) TypeVariableInfo if the
// constructor this signature came from never touched that field.
func fieldInfo(sig ir.ClassInstantiationSignature, index int) ids.TypeVariableInfo {
	for _, mi := range sig.Members {
		if mi.Root == sig.Root.Group && mi.Index == index {
			return mi.Info
		}
	}
	return ids.TypeVariableInfo{}
}
