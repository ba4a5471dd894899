package diag

import (
	"fmt"

	"ownc/internal/source"
)

// Convergence builds a ConvergenceFailure diagnostic for a fixed point that
// exhausted its iteration budget. Per §5's resource model, every bounded
// fixed point (borrow-path dataflow, equality's member merge, the profile
// builder's SCC inner loop) panics with this value as its safety valve; the
// driver's single top-level recover() turns it back into a reported error.
func Convergence(scope string, limit int) Diagnostic {
	return NewError(ConvergenceFailure, source.NoSpan, fmt.Sprintf("%s: exceeded max iterations (%d) without converging", scope, limit))
}
