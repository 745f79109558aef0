package manager

import (
	"github.com/dshills/quicky/internal/definition"
	"github.com/dshills/quicky/internal/scope"
	"github.com/dshills/quicky/internal/value"
)

// evaluation is the state of one definition as seen from a resource.
type evaluation struct {
	def  definition.Definition
	insp scope.Inspection

	sample    value.Value
	hasSample bool

	// current is the effective value of the key.
	current value.Value

	// options holds each option value coerced to the sample kind.
	options []value.Value

	// active is the index of the first option matching current, or -1.
	active int
}

// evaluate reads the state of def from store.
func evaluate(store Store, def definition.Definition, resource string) evaluation {
	ev := evaluation{
		def:    def,
		insp:   store.Inspect(def.ID, resource),
		active: -1,
	}

	if raw, ok := ev.insp.Sample(); ok {
		// Non-primitive samples are treated as absent.
		ev.sample, ev.hasSample = value.Normalize(raw)
	}

	ev.current = ev.currentValue(store, resource)

	ev.options = make([]value.Value, len(def.Options))
	for i, opt := range def.Options {
		ev.options[i] = ev.coerce(opt.Value)
		if ev.active < 0 && value.Equivalent(ev.current, ev.options[i]) {
			ev.active = i
		}
	}
	return ev
}

// currentValue is the stored value when it is a primitive, otherwise the
// default coerced to the sample kind.
func (ev evaluation) currentValue(store Store, resource string) value.Value {
	if raw, ok := store.Get(ev.def.ID, resource); ok {
		if v, ok := value.Normalize(raw); ok {
			return v
		}
	}
	if len(ev.def.Options) == 0 {
		return value.Null()
	}
	return ev.coerce(ev.def.Default)
}

func (ev evaluation) coerce(v value.Value) value.Value {
	return value.CoerceToSample(v, ev.sample, ev.hasSample)
}

// activeOption returns the option matching the current value.
func (ev evaluation) activeOption() (definition.Option, bool) {
	if ev.active < 0 {
		return definition.Option{}, false
	}
	return ev.def.Options[ev.active], true
}

// isCurrent reports whether option i matches the current value.
func (ev evaluation) isCurrent(i int) bool {
	return value.Equivalent(ev.current, ev.options[i])
}
