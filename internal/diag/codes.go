package diag

// Code identifies the kind of a diagnostic. The ranges below mirror the
// error taxonomy of the ownership core: every kind is a hard, fatal error
// that terminates the compile run.
type Code uint16

const (
	UnknownCode Code = 0

	// TypeMismatch is raised by the equality engine when two slots that must
	// share an owner turn out to hold incompatible concrete types. The core
	// detects the clash; it delegates to the type checker's own notion of
	// compatibility rather than re-deriving it.
	TypeMismatch Code = 1001

	// UndefinedName is never raised by the core itself - it is reserved so
	// the driver can surface a name-resolution failure through the same
	// Diagnostic shape. Detected upstream, in the (external) name resolver.
	UndefinedName Code = 1002

	// CloneRequired is raised by ownership inference when a value needs a
	// clone but its class does not derive Clone.
	CloneRequired Code = 1003

	// MissingProfile is raised by the profile builder when a callee's
	// profile is absent outside of an active SCC - an internal invariant
	// violation, not a user-facing type error.
	MissingProfile Code = 1004

	// ConvergenceFailure is raised when a bounded fixed-point (member
	// merge, SCC inner loop, borrow-path dataflow) exhausts its iteration
	// budget without stabilizing.
	ConvergenceFailure Code = 1005
)

func (c Code) String() string {
	switch c {
	case TypeMismatch:
		return "type-mismatch"
	case UndefinedName:
		return "undefined-name"
	case CloneRequired:
		return "clone-required"
	case MissingProfile:
		return "missing-profile"
	case ConvergenceFailure:
		return "convergence-failure"
	default:
		return "unknown"
	}
}
