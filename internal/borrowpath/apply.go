package borrowpath

import "ownc/internal/ir"

// Apply rewrites fn's body in place with this Result's findings: forces
// ValueRef.Borrow on every forced-borrow site, stamps per-instruction
// Moves, and - per §9's resolved open question - rewrites a cancelled
// DropVar into a Nop, then trims trailing Nops from every block.
func (res *Result) Apply(fn *ir.Function) {
	if fn == nil || fn.Body == nil {
		return
	}
	fn.Body.Walk(func(in *ir.Instruction) {
		switch in.Kind {
		case ir.KindValueRef:
			key := ir.NodeKey{Kind: ir.NodeInstruction, ID: in.ID}
			if res.Borrows[key] {
				data := in.Data.(ir.ValueRefData)
				data.Borrow = true
				in.Data = data
			}
		case ir.KindDropVar:
			key := ir.NodeKey{Kind: ir.NodeDrop, ID: in.ID}
			if res.CancelledDrops[key] {
				// Per §9: a cancelled drop is rewritten to a Nop rather
				// than merely flagged, so the backend never sees it.
				in.Kind = ir.KindNop
				in.Data = ir.NopData{}
			}
		}
		if moves, ok := res.Moves[in.ID]; ok {
			in.Moves = moves
		}
	})
	for i := range fn.Body.Blocks {
		fn.Body.Blocks[i].TrimTrailingNops()
	}
}
