package definition

// containerFields are the fields searched, in order, when definitions are
// supplied wrapped in an object.
var containerFields = []string{"definitions", "items", "settings"}

// Extract accepts a bare list of definitions, an object wrapping the list
// under one of the container fields, or a single definition object.
// Any other shape yields no definitions.
func Extract(data any) []Raw {
	switch v := data.(type) {
	case []any:
		return wrapAll(v)
	case []map[string]any:
		raws := make([]Raw, len(v))
		for i, obj := range v {
			raws[i] = NewRaw(obj)
		}
		return raws
	case map[string]any:
		for _, field := range containerFields {
			if nested, ok := v[field].([]any); ok {
				return wrapAll(nested)
			}
		}
		return []Raw{NewRaw(v)}
	default:
		return nil
	}
}

func wrapAll(list []any) []Raw {
	raws := make([]Raw, len(list))
	for i, item := range list {
		raws[i] = NewRaw(item)
	}
	return raws
}

// Set is an insertion-ordered collection of definitions keyed by id.
type Set struct {
	order []string
	byID  map[string]Definition
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{byID: make(map[string]Definition)}
}

// Put adds def, replacing any definition with the same id. A replaced
// definition keeps its original position.
func (s *Set) Put(def Definition) {
	if _, exists := s.byID[def.ID]; !exists {
		s.order = append(s.order, def.ID)
	}
	s.byID[def.ID] = def
}

// Lookup returns the definition for id.
func (s *Set) Lookup(id string) (Definition, bool) {
	def, ok := s.byID[id]
	return def, ok
}

// Has reports whether id is defined.
func (s *Set) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Len returns the number of definitions.
func (s *Set) Len() int {
	return len(s.order)
}

// IDs returns the ids in insertion order.
func (s *Set) IDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Definitions returns the definitions in insertion order.
func (s *Set) Definitions() []Definition {
	defs := make([]Definition, 0, len(s.order))
	for _, id := range s.order {
		defs = append(defs, s.byID[id])
	}
	return defs
}

// Merge normalizes raws from source into s. Rejected entries are returned
// so the caller can report them; they never stop the remaining entries.
func (s *Set) Merge(raws []Raw, source Source) []error {
	var rejected []error
	for _, raw := range raws {
		def, err := Normalize(raw, source)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		s.Put(def)
	}
	return rejected
}
