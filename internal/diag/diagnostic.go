package diag

import (
	"fmt"

	"ownc/internal/source"
)

// Note provides auxiliary context attached to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is a single fatal issue discovered by the core. FuncName and
// InstrID let the driver print the one-line "function + offending
// instruction" form required by the error-handling design.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	FuncName string
	InstrID  string
	Notes    []Note
}

// New builds a diagnostic with the given severity and code.
func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Primary: primary, Message: msg}
}

// NewError is a shortcut for the (only) severity the core ever emits.
func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

// WithSite annotates the diagnostic with the function and instruction it
// was raised against, per the one-line diagnostic contract in §7.
func (d Diagnostic) WithSite(funcName, instrID string) Diagnostic {
	d.FuncName = funcName
	d.InstrID = instrID
	return d
}

// WithNote appends a note to the diagnostic.
func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

// Error implements the error interface so a Diagnostic can be returned
// directly from engine entry points and propagated without a retry.
func (d Diagnostic) Error() string {
	if d.FuncName != "" {
		return fmt.Sprintf("%s: %s: in %s at %s: %s", d.Severity, d.Code, d.FuncName, d.InstrID, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Code, d.Message)
}
