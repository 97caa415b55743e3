package record

// FilterSet tracks which record types a search is restricted to. It is
// never empty: either the sentinel "all" is active, or at least one
// concrete type is. The two are mutually exclusive.
type FilterSet struct {
	all    bool
	active map[Type]bool
}

// FilterAll is the wire token for the sentinel that selects every type.
const FilterAll = "all"

// NewFilterSet returns a set with the "all" sentinel active.
func NewFilterSet() *FilterSet {
	return &FilterSet{all: true, active: make(map[Type]bool)}
}

// ParseFilterSet builds a set from wire tokens. Unknown tokens are ignored;
// an empty or all-unknown list yields the "all" sentinel.
func ParseFilterSet(tokens []string) *FilterSet {
	f := NewFilterSet()
	for _, tok := range tokens {
		if tok == FilterAll {
			return NewFilterSet()
		}
		if t, ok := ParseType(tok); ok {
			f.Toggle(t)
		}
	}
	return f
}

// All reports whether the sentinel is active.
func (f *FilterSet) All() bool { return f.all }

// Contains reports whether the type participates in the next search.
func (f *FilterSet) Contains(t Type) bool {
	if f.all {
		return true
	}
	return f.active[t]
}

// Toggle flips one concrete type. Selecting a type while "all" is active
// clears the sentinel first; removing the last concrete type reverts the
// set to "all".
func (f *FilterSet) Toggle(t Type) {
	if f.all {
		f.all = false
		f.active = map[Type]bool{t: true}
		return
	}
	if f.active[t] {
		delete(f.active, t)
		if len(f.active) == 0 {
			f.all = true
		}
		return
	}
	f.active[t] = true
}

// SelectAll activates the sentinel and clears every concrete type.
func (f *FilterSet) SelectAll() {
	f.all = true
	f.active = make(map[Type]bool)
}

// Active returns the participating types in enumeration order, never empty.
func (f *FilterSet) Active() []Type {
	out := make([]Type, 0, len(AllTypes()))
	for _, t := range AllTypes() {
		if f.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

// Tokens renders the set for wire transport and traces: ["all"] or the
// concrete members in enumeration order.
func (f *FilterSet) Tokens() []string {
	if f.all {
		return []string{FilterAll}
	}
	out := make([]string, 0, len(f.active))
	for _, t := range AllTypes() {
		if f.active[t] {
			out = append(out, string(t))
		}
	}
	return out
}

// Clone returns an independent copy.
func (f *FilterSet) Clone() *FilterSet {
	cp := &FilterSet{all: f.all, active: make(map[Type]bool, len(f.active))}
	for t := range f.active {
		cp.active[t] = true
	}
	return cp
}
