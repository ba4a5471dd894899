package ir

import "slices"

// Clone returns a deep copy of fn's body, safe for a fixed-point iteration
// to mutate (TVInfo, Members, Moves, Ownership, Clone) without disturbing
// the next iteration's starting point. Mirrors the teacher's own
// clone*-family pattern for its HIR (mono/clone.go): value-copy the struct,
// slices.Clone every mutable slice field.
func (fn *Function) Clone() *Function {
	if fn == nil {
		return nil
	}
	out := *fn
	out.Params = slices.Clone(fn.Params)
	out.Body = fn.Body.Clone()
	return &out
}

// Clone deep-copies a Body: every block, every instruction, every
// per-instruction mutable slice.
func (b *Body) Clone() *Body {
	if b == nil {
		return nil
	}
	out := &Body{Blocks: make([]Block, len(b.Blocks))}
	for i, blk := range b.Blocks {
		out.Blocks[i] = blk.Clone()
	}
	return out
}

// Clone deep-copies a Block's instruction list.
func (blk Block) Clone() Block {
	out := blk
	out.Instr = make([]Instruction, len(blk.Instr))
	for i, in := range blk.Instr {
		out.Instr[i] = in.clone()
	}
	return out
}

// clone deep-copies an Instruction's Members/Moves slices; Data is a
// value-typed payload struct (its own slice fields, e.g. NamedFunctionCall
// args, are read-only after construction and so left shared). It is
// unexported because Instruction already has a field named Clone.
func (in Instruction) clone() Instruction {
	out := in
	out.Members = slices.Clone(in.Members)
	out.Moves = slices.Clone(in.Moves)
	return out
}
