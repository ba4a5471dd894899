package trace

// Span gives RAII-style scoping around one engine pass: Begin at entry,
// End at exit, WithExtra to attach counters (edges built, constraints
// solved) that are only known once the pass finishes.
type Span struct {
	tracer Tracer
	scope  Scope
	name   string
	extra  map[string]string
}

// Begin starts a span. When the tracer is disabled or the scope would not
// be emitted, it returns a Span bound to Nop so later calls are free.
func Begin(t Tracer, scope Scope, name string) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return &Span{tracer: Nop}
	}
	return &Span{tracer: t, scope: scope, name: name}
}

// WithExtra attaches a key/value pair emitted alongside End's detail.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || !s.tracer.Enabled() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// End emits the span's event with the given detail message.
func (s *Span) End(detail string) {
	if s == nil || !s.tracer.Enabled() {
		return
	}
	s.tracer.Emit(Event{Scope: s.scope, Name: s.name, Detail: detail, Extra: s.extra})
}
