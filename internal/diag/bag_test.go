package diag

import (
	"strings"
	"testing"

	"ownc/internal/source"
)

func TestBagSortOrdersBySpanThenSeverity(t *testing.T) {
	b := NewBag()
	b.Add(NewError(CloneRequired, source.Span{File: 2, Start: 5}, "second file"))
	b.Add(New(SevWarning, ConvergenceFailure, source.Span{File: 1, Start: 10}, "later in file 1"))
	b.Add(NewError(TypeMismatch, source.Span{File: 1, Start: 1}, "earliest"))

	b.Sort()

	got := b.Items()
	if len(got) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(got))
	}
	if got[0].Code != TypeMismatch || got[1].Code != ConvergenceFailure || got[2].Code != CloneRequired {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestBagHasErrors(t *testing.T) {
	b := NewBag()
	if b.HasErrors() {
		t.Fatalf("empty bag should have no errors")
	}
	b.Add(New(SevWarning, ConvergenceFailure, source.Span{}, "warn"))
	if b.HasErrors() {
		t.Fatalf("warning should not count as error")
	}
	b.Add(NewError(MissingProfile, source.Span{}, "boom"))
	if !b.HasErrors() {
		t.Fatalf("expected HasErrors to be true")
	}
}

func TestDiagnosticErrorIncludesSite(t *testing.T) {
	d := NewError(CloneRequired, source.Span{}, "cannot be cloned").WithSite("f", "b0:3")
	msg := d.Error()
	if msg == "" {
		t.Fatalf("expected non-empty message")
	}
	if !strings.Contains(msg, "in f at b0:3") {
		t.Fatalf("expected the message to name the function and instruction site, got %q", msg)
	}
}
