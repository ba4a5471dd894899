package ir

// Body is a sequence of Blocks referenced by small integer ids. Block 0 is
// always the function's entry block.
type Body struct {
	Blocks []Block
}

// Block looks up a block by id; it panics on an out-of-range id since a
// well-formed Body never references a block it doesn't own.
func (b *Body) Block(id BlockID) *Block {
	return &b.Blocks[id]
}

// Entry returns the entry block.
func (b *Body) Entry() *Block {
	if b == nil || len(b.Blocks) == 0 {
		return nil
	}
	return &b.Blocks[0]
}

// AddBlock appends a new empty block and returns its id.
func (b *Body) AddBlock() BlockID {
	id := BlockID(len(b.Blocks))
	b.Blocks = append(b.Blocks, Block{ID: id})
	return id
}

// Walk visits every instruction in the body, block by block in slice
// order. The blocks of nested If/Loop bodies are visited in that same
// order, not depth-first from the instruction that references them.
func (b *Body) Walk(visit func(*Instruction)) {
	if b == nil {
		return
	}
	for i := range b.Blocks {
		blk := &b.Blocks[i]
		for j := range blk.Instr {
			visit(&blk.Instr[j])
		}
	}
}

// GetAllMembers collates MemberInfos from every instruction in the body and
// from every DataFlowPath's Src/Dest chains - the input the equality
// engine's member-merge fixed point iterates over. The function's own
// signature is not read, so its members are not included.
func (b *Body) GetAllMembers(paths []DataFlowPath) []MemberInfo {
	var out []MemberInfo
	b.Walk(func(in *Instruction) {
		out = append(out, in.Members...)
	})
	for _, p := range paths {
		out = append(out, p.Src...)
		out = append(out, p.Dest...)
	}
	return out
}
