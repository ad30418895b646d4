package inherit

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// slot is the per-setting storage on a node. For required settings a stored
// value is always usable; for nullable settings value may be nil, which
// records an explicit null.
type slot struct {
	value any
}

// Node is one layer in a settings graph. It holds explicit values for a
// subset of its schema's settings and an ordered list of parents used as a
// fallback chain. Identity is reference identity; two nodes with equal
// values are still distinct layers.
type Node struct {
	id     uuid.UUID
	name   string
	schema *Schema

	parents []*Node
	values  map[string]slot

	onChange func(setting string)
}

// NewNode creates an empty node: no explicit values, no parents.
func NewNode(s *Schema) *Node {
	return &Node{
		id:     uuid.New(),
		schema: s,
		values: make(map[string]slot),
	}
}

// ID returns the node's diagnostic identifier.
func (n *Node) ID() uuid.UUID {
	return n.id
}

// Name returns the node's diagnostic name, if one was assigned.
func (n *Node) Name() string {
	return n.name
}

// SetName assigns a diagnostic name used by Explain and logging. It has no
// effect on resolution.
func (n *Node) SetName(name string) {
	n.name = name
}

// Schema returns the schema this node was created against.
func (n *Node) Schema() *Schema {
	return n.schema
}

// Parents returns a copy of the parent list in precedence order.
func (n *Node) Parents() []*Node {
	parents := make([]*Node, len(n.parents))
	copy(parents, n.parents)
	return parents
}

// InsertParent appends a parent at the lowest precedence position.
func (n *Node) InsertParent(p *Node) {
	n.parents = append(n.parents, p)
}

// InsertParentAt inserts a parent at the given precedence index, shifting
// lower-precedence parents down. Index 0 is the highest priority. Panics if
// the index is out of range, matching slice indexing behavior.
func (n *Node) InsertParentAt(index int, p *Node) {
	if index < 0 || index > len(n.parents) {
		panic(fmt.Sprintf("inherit: parent index %d out of range [0,%d]", index, len(n.parents)))
	}
	n.parents = append(n.parents, nil)
	copy(n.parents[index+1:], n.parents[index:])
	n.parents[index] = p
}

// CreateChild derives a new node with this node as its sole initial parent.
// Settings declared CopyOnInherit are materialized into the child from the
// parent's resolved state, then the schema's OnChildCreated hook runs.
func (n *Node) CreateChild() *Node {
	child := NewNode(n.schema)
	child.InsertParent(n)

	for _, name := range n.schema.order {
		d := n.schema.decls[name]
		if !d.CopyOnInherit {
			continue
		}
		if sl, ok := resolve(n, name, 0); ok {
			child.values[name] = sl
		}
	}

	if n.schema.onChildCreated != nil {
		n.schema.onChildCreated(n, child)
	}
	return child
}

// OnChange registers a callback fired whenever a Set or Clear actually
// changes this node's stored state. Resolution never fires it.
func (n *Node) OnChange(fn func(setting string)) {
	n.onChange = fn
}

// Has reports whether this node itself holds an explicit value for the
// setting. Ancestor state is irrelevant: a node inheriting a value still
// reports false.
func (n *Node) Has(name string) bool {
	_, ok := n.values[name]
	return ok
}

// SetValue stores an explicit value for a declared setting. For nullable
// settings a nil value records an explicit null, and re-setting an already
// stored equal value is a no-op so observers see no spurious change. For
// required settings the value must be non-nil and is stored unconditionally.
func (n *Node) SetValue(name string, value any) error {
	d, ok := n.schema.decls[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, name)
	}

	switch d.Kind {
	case KindRequired:
		if value == nil {
			return fmt.Errorf("required setting %s cannot be set to null", name)
		}
	case KindNullable:
		if prev, set := n.values[name]; set && equalValue(prev.value, value) {
			return nil
		}
	}

	n.values[name] = slot{value: value}
	n.notify(name)
	return nil
}

// ClearValue removes this node's explicit value, reverting the setting to
// inherited or default behavior. Clearing an already clear setting is a
// no-op.
func (n *Node) ClearValue(name string) error {
	if _, ok := n.schema.decls[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, name)
	}
	if _, set := n.values[name]; !set {
		return nil
	}
	delete(n.values, name)
	n.notify(name)
	return nil
}

// Resolve returns the resolved value for a declared setting: the node's
// explicit value, else the first explicit value found depth-first through
// the parents, else the declared default.
func (n *Node) Resolve(name string) (any, error) {
	d, ok := n.schema.decls[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, name)
	}
	if sl, found := resolve(n, name, 0); found {
		return sl.value, nil
	}
	return d.Default, nil
}

// ResolveAll resolves every declared setting, in declaration order.
func (n *Node) ResolveAll() map[string]any {
	out := make(map[string]any, len(n.schema.order))
	for _, name := range n.schema.order {
		if sl, found := resolve(n, name, 0); found {
			out[name] = sl.value
		} else {
			out[name] = n.schema.decls[name].Default
		}
	}
	return out
}

// Explicit describes one explicitly stored value on a node. Null reports an
// explicit null on a nullable setting, which is distinct from the setting
// being absent entirely.
type Explicit struct {
	Name  string
	Value any
	Null  bool
}

// Explicits returns this node's explicitly stored values in declaration
// order. Inherited and default values are not included.
func (n *Node) Explicits() []Explicit {
	out := make([]Explicit, 0, len(n.values))
	for _, name := range n.schema.order {
		sl, set := n.values[name]
		if !set {
			continue
		}
		out = append(out, Explicit{Name: name, Value: sl.value, Null: sl.value == nil})
	}
	return out
}

func (n *Node) notify(setting string) {
	if n.onChange != nil {
		n.onChange(setting)
	}
}

// equalValue compares two stored values without panicking on types that do
// not support ==. Pointer values compare by identity, which is the contract
// nullable settings rely on for no-op detection.
func equalValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
