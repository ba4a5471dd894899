package diag

// Reporter is the minimal sink engines report diagnostics through. Most
// engine entry points in this core return a single fatal Diagnostic as an
// error instead (see diagnostic.go's Error method) - Reporter exists for the
// driver-level passes (e.g. the borrow-path analyzer's diagnostic pass,
// which may want to surface more than one finding per run).
type Reporter interface {
	Report(Diagnostic)
}

// BagReporter adapts a *Bag to the Reporter interface.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// NopReporter discards every diagnostic.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}
