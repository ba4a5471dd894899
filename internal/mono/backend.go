package mono

// BackendSink is the monomorphizer's output boundary: one method that
// receives the fully-reached program. A real transpiler is out of scope
// per §1 ("backend text emission"); this interface exists so a driver can
// plug in a debug/wire sink today (internal/ownfmt.MsgpackSink) without
// this package depending on anything backend-shaped.
type BackendSink interface {
	Emit(*Program) error
}
