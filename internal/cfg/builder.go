package cfg

import "ownc/internal/ir"

// loopFrame records the start/end node keys of one lexically enclosing
// loop, so Break/Continue can target the innermost one.
type loopFrame struct {
	start, end ir.NodeKey
}

type builder struct {
	body  *ir.Body
	g     *Graph
	loops []loopFrame
}

// Build lowers fn's body into a CFG per §4.D. A function with a nil body
// (extern/intrinsic) yields a graph with only the End node.
func Build(fn *ir.Function) *Graph {
	g := New()
	if fn == nil || fn.Body == nil || fn.Body.Entry() == nil {
		g.nodeFor(ir.EndKey)
		g.UpdateEdges()
		return g
	}
	b := &builder{body: fn.Body, g: g}
	last := b.lowerBlock(fn.Body.Entry(), nil)
	if last != nil {
		g.addEdge(*last, ir.EndKey)
	} else {
		g.nodeFor(ir.EndKey)
	}
	g.UpdateEdges()
	return g
}

// lowerBlock lowers one block's instructions in sequence, starting from
// the predecessor node last (nil if blk is the function's entry block or
// if control flow reaching it was already severed by an enclosing
// Break/Continue/Return). It returns the node that falls through to
// whatever follows blk, or nil if blk always diverges (every path out of
// it ends in Return/Break/Continue).
func (b *builder) lowerBlock(blk *ir.Block, last *ir.NodeKey) *ir.NodeKey {
	if blk == nil {
		return last
	}
	cur := last
	for i := range blk.Instr {
		in := &blk.Instr[i]
		switch in.Kind {
		case ir.KindDropVar:
			data := in.Data.(ir.DropVarData)
			key := ir.NodeKey{Kind: ir.NodeDrop, ID: in.ID}
			b.g.setUsage(key, ir.Whole(data.Name, true))
			cur = b.link(cur, key)

		case ir.KindValueRef:
			data := in.Data.(ir.ValueRefData)
			key := ir.NodeKey{Kind: ir.NodeInstruction, ID: in.ID}
			var usage ir.Path
			if len(data.Fields) == 0 {
				usage = ir.Whole(data.Name, false)
			} else {
				usage = ir.Partial(data.Name, data.Fields)
			}
			b.g.setUsage(key, usage)
			cur = b.link(cur, key)

		case ir.KindIf:
			data := in.Data.(ir.IfData)
			ifKey := ir.NodeKey{Kind: ir.NodeIf, ID: in.ID}
			trueEnd := b.lowerBlock(b.body.Block(data.TrueBranch), cur)
			falseEnd := b.lowerBlock(b.body.Block(data.FalseBranch), cur)
			b.g.nodeFor(ifKey)
			if trueEnd != nil {
				b.g.addEdge(*trueEnd, ifKey)
			}
			if falseEnd != nil {
				b.g.addEdge(*falseEnd, ifKey)
			}
			k := ifKey
			cur = &k

		case ir.KindLoop:
			data := in.Data.(ir.LoopData)
			startKey := ir.NodeKey{Kind: ir.NodeLoopStart, ID: in.ID}
			endKey := ir.NodeKey{Kind: ir.NodeLoopEnd, ID: in.ID}
			cur = b.link(cur, startKey)

			b.loops = append(b.loops, loopFrame{start: startKey, end: endKey})
			bodyEnd := b.lowerBlock(b.body.Block(data.Body), &startKey)
			b.loops = b.loops[:len(b.loops)-1]

			if bodyEnd != nil {
				b.g.addEdge(*bodyEnd, startKey) // back-edge
			}
			b.g.nodeFor(endKey)
			k := endKey
			cur = &k

		case ir.KindBreak:
			if len(b.loops) > 0 {
				target := b.loops[len(b.loops)-1].end
				if cur != nil {
					b.g.addEdge(*cur, target)
				} else {
					b.g.nodeFor(target)
				}
			}
			cur = nil

		case ir.KindContinue:
			if len(b.loops) > 0 {
				target := b.loops[len(b.loops)-1].start
				if cur != nil {
					b.g.addEdge(*cur, target)
				} else {
					b.g.nodeFor(target)
				}
			}
			cur = nil

		case ir.KindReturn:
			cur = nil

		default:
			// Every other kind (BlockRef, NamedFunctionCall,
			// DynamicFunctionCall, MethodCall, Bind, MemberAccess, Nop,
			// BoolLiteral, Tuple) is a linear instruction per §4.D.
			key := ir.NodeKey{Kind: ir.NodeInstruction, ID: in.ID}
			cur = b.link(cur, key)
		}
	}
	return cur
}

// link connects cur -> key if cur is reachable, otherwise just registers
// key as a node with no incoming edge (dead code after an early exit),
// and returns key as the new current node.
func (b *builder) link(cur *ir.NodeKey, key ir.NodeKey) *ir.NodeKey {
	if cur != nil {
		b.g.addEdge(*cur, key)
	} else {
		b.g.nodeFor(key)
	}
	k := key
	return &k
}
