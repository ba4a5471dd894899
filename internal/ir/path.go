package ir

import (
	"strings"

	"ownc/internal/ids"
)

// PathKind distinguishes a whole-variable path from a field-projected one.
type PathKind uint8

const (
	PathWhole PathKind = iota
	PathPartial
)

// Path is either Whole(var, is_drop) or Partial(var, fields). Equality is
// structural; Path holds a slice and so is not comparable, and callers that
// need a map key use Key(), which joins Fields into a string.
type Path struct {
	Kind   PathKind
	Var    ids.TempVar
	IsDrop bool     // only meaningful for PathWhole
	Fields []string // only meaningful for PathPartial
}

// Whole builds a Whole(var, is_drop) path.
func Whole(v ids.TempVar, isDrop bool) Path {
	return Path{Kind: PathWhole, Var: v, IsDrop: isDrop}
}

// Partial builds a Partial(var, fields) path.
func Partial(v ids.TempVar, fields []string) Path {
	return Path{Kind: PathPartial, Var: v, Fields: append([]string(nil), fields...)}
}

// Key returns a comparable representation suitable for map keys, since
// Path itself holds a slice.
func (p Path) Key() string {
	var b strings.Builder
	if p.Var.IsArg {
		b.WriteString("arg")
	} else {
		b.WriteString("t")
	}
	b.WriteString(itoa(int(p.Var.Index)))
	if p.Kind == PathWhole {
		b.WriteByte('!')
		if p.IsDrop {
			b.WriteByte('d')
		}
		return b.String()
	}
	for _, f := range p.Fields {
		b.WriteByte('.')
		b.WriteString(f)
	}
	return b.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Invalidates reports whether p invalidates other: same root variable AND
// the paths overlap. A Whole path invalidates anything rooted at the same
// variable; two Partial paths overlap iff one's field sequence is a prefix
// of the other's, checked over min(len(p), len(other)) fields per §9's
// authoritative open-question resolution.
func (p Path) Invalidates(other Path) bool {
	if p.Var != other.Var {
		return false
	}
	if p.Kind == PathWhole || other.Kind == PathWhole {
		return true
	}
	n := len(p.Fields)
	if len(other.Fields) < n {
		n = len(other.Fields)
	}
	for i := 0; i < n; i++ {
		if p.Fields[i] != other.Fields[i] {
			return false
		}
	}
	return true
}

// Usage is one witnessed occurrence of a path at a CFG node.
type Usage struct {
	Site NodeKey
	Path Path
}

// Equal reports structural equality, used by the borrow-path analyzer's
// set-equality convergence check.
func (u Usage) Equal(o Usage) bool {
	if u.Site != o.Site {
		return false
	}
	return u.Path.Key() == o.Path.Key() && u.Path.Kind == o.Path.Kind
}
