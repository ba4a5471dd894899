package cache

import (
	"testing"

	"ownc/internal/ids"
	"ownc/internal/ir"
)

func TestPutGetRoundTrips(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	sig := ir.FunctionOwnershipSignature{
		Name:  ids.QualifiedName{Module: "m", Name: "f"},
		Alloc: ids.NewAllocator(),
	}
	profile := &ir.DataFlowProfile{Signature: sig}
	key := HashBytes([]byte("fixture content"))

	if err := c.Put(key, profile); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, hit, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatalf("expected a cache hit")
	}
	if got.Signature.Name != sig.Name {
		t.Fatalf("expected signature name %v, got %v", sig.Name, got.Signature.Name)
	}
}

func TestGetMissReportsNoError(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, hit, err := c.Get(HashBytes([]byte("never written")))
	if err != nil {
		t.Fatalf("expected a clean miss, got error: %v", err)
	}
	if hit {
		t.Fatalf("expected a miss")
	}
}

func TestDropAllRemovesEntries(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	key := HashBytes([]byte("x"))
	profile := &ir.DataFlowProfile{Signature: ir.FunctionOwnershipSignature{Alloc: ids.NewAllocator()}}
	if err := c.Put(key, profile); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if _, hit, _ := c.Get(key); hit {
		t.Fatalf("expected DropAll to remove the entry")
	}
}
