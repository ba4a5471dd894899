package ownfmt

import (
	"ownc/internal/ids"
	"ownc/internal/ir"
)

type wireDataFlowProfile struct {
	Paths     []ir.DataFlowPath
	Signature wireFunctionSignature
}

// EncodeProfile serializes a published DataFlowProfile, the unit
// internal/cache persists keyed by content hash.
func EncodeProfile(p *ir.DataFlowProfile) ([]byte, error) {
	return marshal(wireDataFlowProfile{Paths: p.Paths, Signature: toWireFunctionSignature(p.Signature)})
}

// DecodeProfile rebuilds a DataFlowProfile from bytes produced by
// EncodeProfile, restoring the signature's allocator from its three
// counters (see ids.RestoreAllocator).
func DecodeProfile(data []byte) (*ir.DataFlowProfile, error) {
	var w wireDataFlowProfile
	if err := unmarshal(data, &w); err != nil {
		return nil, err
	}
	sig := ir.FunctionOwnershipSignature{
		Name: w.Signature.Name, Args: w.Signature.Args, Result: w.Signature.Result,
		Members: w.Signature.Members, Borrows: w.Signature.Borrows, Owners: w.Signature.Owners,
		Alloc: ids.RestoreAllocator(w.Signature.Alloc.Ownership, w.Signature.Alloc.Group, w.Signature.Alloc.Borrow),
	}
	return &ir.DataFlowProfile{Paths: w.Paths, Signature: sig}, nil
}
