package ir

// BlockID is a small integer referencing a Block within a Body's side
// table - blocks never reference each other by pointer, only by this id,
// so the structural back-edges a Loop produces in the CFG live only as
// edge records, never as a cyclic Go pointer graph (see design notes).
type BlockID uint32

const NoBlockID BlockID = 0

// Block is a flat sequence of instructions owned exclusively by its Body.
type Block struct {
	ID    BlockID
	Instr []Instruction
}

// GetLastReal returns the last non-Drop, non-Nop instruction - this is the
// block's "value" for type- and ownership-propagation, per §4.B.
func (b *Block) GetLastReal() *Instruction {
	if b == nil {
		return nil
	}
	for i := len(b.Instr) - 1; i >= 0; i-- {
		k := b.Instr[i].Kind
		if k == KindDropVar || k == KindNop {
			continue
		}
		return &b.Instr[i]
	}
	return nil
}

// TrimTrailingNops drops Nop instructions from the tail of the block. Per
// §9's open question on cancelled-drop Nops, the reference semantics trims
// them from the tail - this implements that choice.
func (b *Block) TrimTrailingNops() {
	if b == nil {
		return
	}
	i := len(b.Instr)
	for i > 0 && b.Instr[i-1].Kind == KindNop {
		i--
	}
	b.Instr = b.Instr[:i]
}
