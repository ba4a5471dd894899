package diag

import "sort"

// Bag holds a collection of diagnostics. The core stops each engine
// at its first hard error (see design notes in §7), so in practice a Bag
// rarely grows past one entry, but the CLI driver can run several files in
// one invocation and wants them pooled for a single sorted report.
type Bag struct {
	items []Diagnostic
}

// NewBag creates an empty Bag.
func NewBag() *Bag {
	return &Bag{}
}

// Add appends a diagnostic.
func (b *Bag) Add(d Diagnostic) {
	if b == nil {
		return
	}
	b.items = append(b.items, d)
}

// HasErrors reports whether any diagnostic is SevError or above.
func (b *Bag) HasErrors() bool {
	if b == nil {
		return false
	}
	for _, d := range b.items {
		if d.Severity >= SevError {
			return true
		}
	}
	return false
}

// Len returns the number of diagnostics in the bag.
func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}

// Items returns the diagnostics. Callers must not mutate the slice.
func (b *Bag) Items() []Diagnostic {
	if b == nil {
		return nil
	}
	return b.items
}

// Sort orders diagnostics by file, span start, then severity (descending).
func (b *Bag) Sort() {
	if b == nil {
		return
	}
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		return di.Severity > dj.Severity
	})
}
