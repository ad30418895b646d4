package inherit

import (
	"fmt"
)

// Key is a typed handle for a required-with-default setting. Keys are
// produced by Declare at registration time and expose the four-operation
// contract against any node of the declaring schema.
type Key[T any] struct {
	name string
}

// Declare registers a required-with-default setting and returns its typed
// key. It panics on a conflicting or invalid declaration, which is a
// registration-time programmer error.
func Declare[T any](s *Schema, name string, def T) Key[T] {
	if err := s.DeclareSetting(Declaration{Name: name, Kind: KindRequired, Default: def}); err != nil {
		panic(fmt.Sprintf("inherit: %v", err))
	}
	return Key[T]{name: name}
}

// Name returns the declared setting name.
func (k Key[T]) Name() string {
	return k.name
}

// Has reports whether the node itself holds an explicit value.
func (k Key[T]) Has(n *Node) bool {
	return n.Has(k.name)
}

// Get returns the resolved value: explicit, else inherited, else the
// declared default. It is total for well-formed graphs.
func (k Key[T]) Get(n *Node) T {
	if sl, found := resolve(n, k.name, 0); found {
		return sl.value.(T)
	}
	d, ok := n.schema.decls[k.name]
	if !ok {
		panic(fmt.Sprintf("inherit: setting %q is not declared in the node's schema", k.name))
	}
	return d.Default.(T)
}

// Set stores an explicit value on the node.
func (k Key[T]) Set(n *Node, value T) {
	if err := n.SetValue(k.name, value); err != nil {
		panic(fmt.Sprintf("inherit: %v", err))
	}
}

// Clear removes the node's explicit value, reverting Get to inherited or
// default behavior.
func (k Key[T]) Clear(n *Node) {
	if err := n.ClearValue(k.name); err != nil {
		panic(fmt.Sprintf("inherit: %v", err))
	}
}

// NullableKey is a typed handle for a nullable setting. Get returns a
// reference-or-null, and Set accepts nil to record an explicit null, which
// resolves terminally instead of falling through to parents.
type NullableKey[T any] struct {
	name string
}

// DeclareNullable registers a nullable setting and returns its typed key.
// The default may be nil. It panics on a conflicting or invalid
// declaration.
func DeclareNullable[T any](s *Schema, name string, def *T) NullableKey[T] {
	d := Declaration{Name: name, Kind: KindNullable}
	if def != nil {
		d.Default = def
	}
	if err := s.DeclareSetting(d); err != nil {
		panic(fmt.Sprintf("inherit: %v", err))
	}
	return NullableKey[T]{name: name}
}

// Name returns the declared setting name.
func (k NullableKey[T]) Name() string {
	return k.name
}

// Has reports whether the node itself holds an explicit value, including an
// explicit null. It reflects the set flag, not whether the stored value is
// null.
func (k NullableKey[T]) Has(n *Node) bool {
	return n.Has(k.name)
}

// Get returns the resolved reference-or-null. An explicit null anywhere in
// the chain is terminal; only a fully unset chain falls back to the
// declared default.
func (k NullableKey[T]) Get(n *Node) *T {
	if sl, found := resolve(n, k.name, 0); found {
		if sl.value == nil {
			return nil
		}
		return sl.value.(*T)
	}
	d, ok := n.schema.decls[k.name]
	if !ok {
		panic(fmt.Sprintf("inherit: setting %q is not declared in the node's schema", k.name))
	}
	if d.Default == nil {
		return nil
	}
	return d.Default.(*T)
}

// Set stores an explicit value, where nil records an explicit null.
// Re-setting the already stored value is a no-op: collaborators observing
// changes (settings UIs, bindings) rely on not receiving spurious signals.
func (k NullableKey[T]) Set(n *Node, value *T) {
	var v any
	if value != nil {
		v = value
	}
	if err := n.SetValue(k.name, v); err != nil {
		panic(fmt.Sprintf("inherit: %v", err))
	}
}

// Clear removes the node's explicit value or explicit null.
func (k NullableKey[T]) Clear(n *Node) {
	if err := n.ClearValue(k.name); err != nil {
		panic(fmt.Sprintf("inherit: %v", err))
	}
}
