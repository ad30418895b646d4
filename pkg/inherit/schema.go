package inherit

import (
	"fmt"
)

// Kind classifies how a setting stores and resolves its value.
type Kind string

const (
	// KindRequired settings always resolve to a usable value: an explicit
	// value on the node, an inherited value, or the declared default.
	KindRequired Kind = "required"

	// KindNullable settings may be explicitly set to null. An explicit null
	// is a terminal resolution, not a request to consult parents.
	KindNullable Kind = "nullable"
)

// Declaration describes one named setting in a Schema.
type Declaration struct {
	// Name is the setting name, unique within the schema.
	Name string `json:"name" validate:"required"`

	// Kind selects the storage and resolution behavior.
	Kind Kind `json:"kind" validate:"required,oneof=required nullable"`

	// Default is the compiled-in fallback used when neither the node nor any
	// ancestor holds an explicit value. Required settings must declare a
	// non-nil default; nullable settings may default to nil.
	Default any `json:"default,omitempty"`

	// CopyOnInherit marks a setting whose resolved value is materialized
	// into a child at CreateChild time instead of being looked up lazily.
	// Used for values that must not silently change if the parent is
	// mutated after the child was derived.
	CopyOnInherit bool `json:"copy_on_inherit,omitempty"`
}

// Schema is a declarative table of settings shared by every node of one
// settings type. Declarations are made once at registration time; nodes
// reject values for names the schema does not know.
type Schema struct {
	decls map[string]Declaration
	order []string

	onChildCreated func(parent, child *Node)
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{
		decls: make(map[string]Declaration),
	}
}

// DeclareSetting registers a setting from a dynamic declaration. It is the
// untyped path used when schemas are loaded from configuration documents;
// Go callers normally use Declare and DeclareNullable instead.
func (s *Schema) DeclareSetting(d Declaration) error {
	if d.Name == "" {
		return fmt.Errorf("setting declaration has empty name")
	}
	if _, exists := s.decls[d.Name]; exists {
		return fmt.Errorf("duplicate setting declaration: %s", d.Name)
	}
	switch d.Kind {
	case KindRequired:
		if d.Default == nil {
			return fmt.Errorf("required setting %s must declare a default", d.Name)
		}
	case KindNullable:
		// nil default is valid
	default:
		return fmt.Errorf("setting %s has unknown kind %q", d.Name, d.Kind)
	}

	s.decls[d.Name] = d
	s.order = append(s.order, d.Name)
	return nil
}

// Declaration returns the declaration for a setting name.
func (s *Schema) Declaration(name string) (Declaration, bool) {
	d, ok := s.decls[name]
	return d, ok
}

// Names returns the setting names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Len returns the number of declared settings.
func (s *Schema) Len() int {
	return len(s.order)
}

// OnChildCreated registers a finalize hook invoked after CreateChild has
// linked the parent and materialized any CopyOnInherit settings. Settings
// types use it to derive extra non-inherited state into the child.
func (s *Schema) OnChildCreated(fn func(parent, child *Node)) {
	s.onChildCreated = fn
}
