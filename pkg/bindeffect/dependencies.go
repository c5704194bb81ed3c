package bindeffect

import (
	"sort"
	"strings"

	"github.com/rebind-dev/rebind/pkg/binding"
)

// shape tags the input form a dependency set was built from.
// It is resolved once at construction and retained only to mirror the
// form in the extracted Values.
type shape uint8

const (
	shapeNone shape = iota
	shapeSingle
	shapeList
	shapeNamed
)

// sigDelimiter joins change UIDs into a signature string.
const sigDelimiter = ","

// Dependencies is the normalized, ordered set of bindings an effect
// observes. Construct one with None, One, List, Named, or FromMap.
//
// Pointer identity is the stability contract: a coordinator re-subscribes
// only when handed a Dependencies pointer different from its current one,
// so hosts should reuse the same instance across passes as long as the
// set has not changed. Use, the hook layer, memoizes this automatically;
// Equal supports hosts doing their own memoization.
type Dependencies struct {
	shape shape

	// list holds the bindings in normalized order.
	list []binding.Binding

	// names parallels list when the set was built from named bindings.
	names []string
}

// emptyDeps backs None so every absent set shares one identity.
var emptyDeps = &Dependencies{shape: shapeNone}

// None returns the empty dependency set.
func None() *Dependencies {
	return emptyDeps
}

// One returns a dependency set observing a single binding.
func One(b binding.Binding) *Dependencies {
	return &Dependencies{
		shape: shapeSingle,
		list:  []binding.Binding{b},
	}
}

// List returns a dependency set observing bindings in the given order.
func List(bs ...binding.Binding) *Dependencies {
	list := make([]binding.Binding, len(bs))
	copy(list, bs)
	return &Dependencies{
		shape: shapeList,
		list:  list,
	}
}

// NamedBinding pairs a name with a binding for Named.
type NamedBinding struct {
	Name    string
	Binding binding.Binding
}

// Bind is a convenience constructor for NamedBinding.
func Bind(name string, b binding.Binding) NamedBinding {
	return NamedBinding{Name: name, Binding: b}
}

// Named returns a dependency set whose values extract as a name→value
// mapping. Argument order is the normalized order.
func Named(pairs ...NamedBinding) *Dependencies {
	list := make([]binding.Binding, len(pairs))
	names := make([]string, len(pairs))
	for i, p := range pairs {
		list[i] = p.Binding
		names[i] = p.Name
	}
	return &Dependencies{
		shape: shapeNamed,
		list:  list,
		names: names,
	}
}

// FromMap returns a named dependency set built from m. Keys are ordered
// lexicographically so the normalized order, and with it the change
// signature, is deterministic across calls.
func FromMap(m map[string]binding.Binding) *Dependencies {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	list := make([]binding.Binding, len(names))
	for i, name := range names {
		list[i] = m[name]
	}
	return &Dependencies{
		shape: shapeNamed,
		list:  list,
		names: names,
	}
}

// normalize maps a nil set to None.
func normalize(d *Dependencies) *Dependencies {
	if d == nil {
		return None()
	}
	return d
}

// Len returns the number of bindings in normalized order.
func (d *Dependencies) Len() int {
	return len(d.list)
}

// IsEmpty reports whether the set observes no bindings.
func (d *Dependencies) IsEmpty() bool {
	return len(d.list) == 0
}

// Bindings returns a copy of the normalized binding list.
func (d *Dependencies) Bindings() []binding.Binding {
	out := make([]binding.Binding, len(d.list))
	copy(out, d.list)
	return out
}

// Equal reports whether o observes the same binding identities, in the
// same order, under the same names. Hosts use it to hand a coordinator
// the same pointer across passes when the set has not really changed.
func (d *Dependencies) Equal(o *Dependencies) bool {
	if d == o {
		return true
	}
	if d == nil || o == nil {
		return false
	}
	if d.shape != o.shape || len(d.list) != len(o.list) {
		return false
	}
	for i, b := range d.list {
		ob := o.list[i]
		if (b == nil) != (ob == nil) {
			return false
		}
		if b != nil && b.UID() != ob.UID() {
			return false
		}
	}
	for i, name := range d.names {
		if name != o.names[i] {
			return false
		}
	}
	return true
}

// signature joins each binding's current change UID in normalized order.
// Nil entries contribute an empty segment. The result is a cheap proxy
// for "did any binding change".
func (d *Dependencies) signature() string {
	if len(d.list) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, b := range d.list {
		if i > 0 {
			sb.WriteString(sigDelimiter)
		}
		if b != nil {
			sb.WriteString(b.ChangeUID())
		}
	}
	return sb.String()
}

// values extracts the current binding values, mirroring the input shape.
func (d *Dependencies) values() Values {
	vals := make([]any, len(d.list))
	for i, b := range d.list {
		if b != nil {
			vals[i] = b.Value()
		}
	}
	return Values{
		shape: d.shape,
		list:  vals,
		names: d.names,
	}
}

// Values carries the binding values extracted for one callback
// invocation. Its accessors mirror the shape the dependency set was
// built from.
type Values struct {
	shape shape
	list  []any
	names []string
}

// Len returns the number of extracted values.
func (v Values) Len() int {
	return len(v.list)
}

// IsEmpty reports whether no values were extracted.
func (v Values) IsEmpty() bool {
	return len(v.list) == 0
}

// At returns the value at position i in normalized order, or nil when i
// is out of range.
func (v Values) At(i int) any {
	if i < 0 || i >= len(v.list) {
		return nil
	}
	return v.list[i]
}

// Single returns the value of a single-binding set, or nil for any
// other shape.
func (v Values) Single() any {
	if v.shape != shapeSingle || len(v.list) != 1 {
		return nil
	}
	return v.list[0]
}

// Get returns the value extracted under name for a named set.
func (v Values) Get(name string) (any, bool) {
	for i, n := range v.names {
		if n == name {
			return v.list[i], true
		}
	}
	return nil, false
}

// Slice returns a copy of the values in normalized order.
func (v Values) Slice() []any {
	out := make([]any, len(v.list))
	copy(out, v.list)
	return out
}

// Map returns the values as a name→value mapping for a named set, or
// nil for any other shape.
func (v Values) Map() map[string]any {
	if v.shape != shapeNamed {
		return nil
	}
	out := make(map[string]any, len(v.list))
	for i, n := range v.names {
		out[n] = v.list[i]
	}
	return out
}
