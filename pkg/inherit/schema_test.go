package inherit

import (
	"testing"
)

func TestSchema_DeclareSetting(t *testing.T) {
	s := NewSchema()

	if err := s.DeclareSetting(Declaration{Name: "fontSize", Kind: KindRequired, Default: 12}); err != nil {
		t.Fatalf("Declaration failed: %v", err)
	}
	if err := s.DeclareSetting(Declaration{Name: "fontSize", Kind: KindRequired, Default: 12}); err == nil {
		t.Error("Expected duplicate declaration to fail")
	}
	if err := s.DeclareSetting(Declaration{Name: "", Kind: KindRequired, Default: 1}); err == nil {
		t.Error("Expected empty name to fail")
	}
	if err := s.DeclareSetting(Declaration{Name: "padding", Kind: KindRequired}); err == nil {
		t.Error("Expected required setting without default to fail")
	}
	if err := s.DeclareSetting(Declaration{Name: "padding", Kind: Kind("weird"), Default: 1}); err == nil {
		t.Error("Expected unknown kind to fail")
	}
	if err := s.DeclareSetting(Declaration{Name: "fontFace", Kind: KindNullable}); err != nil {
		t.Errorf("Nullable setting without default should declare: %v", err)
	}

	names := s.Names()
	if len(names) != 2 || names[0] != "fontSize" || names[1] != "fontFace" {
		t.Errorf("Expected declaration order to be preserved, got %v", names)
	}
	if s.Len() != 2 {
		t.Errorf("Expected 2 declarations, got %d", s.Len())
	}

	d, ok := s.Declaration("fontSize")
	if !ok || d.Default != 12 {
		t.Errorf("Unexpected declaration lookup result: %+v (ok=%v)", d, ok)
	}
}

func TestSchema_DeclarePanicsOnConflict(t *testing.T) {
	s := NewSchema()
	Declare(s, "fontSize", 12)

	defer func() {
		if recover() == nil {
			t.Error("Expected typed re-declaration to panic")
		}
	}()
	Declare(s, "fontSize", 14)
}

func TestSchema_CopyOnInherit(t *testing.T) {
	s := NewSchema()
	if err := s.DeclareSetting(Declaration{
		Name:          "generatedGuid",
		Kind:          KindRequired,
		Default:       "",
		CopyOnInherit: true,
	}); err != nil {
		t.Fatalf("Declaration failed: %v", err)
	}
	size := Declare(s, "fontSize", 12)

	base := NewNode(s)
	if err := base.SetValue("generatedGuid", "abc-123"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	size.Set(base, 14)

	child := base.CreateChild()

	// The copied setting is materialized, not looked up lazily: the child
	// keeps the value captured at creation time even if the parent moves on.
	if !child.Has("generatedGuid") {
		t.Fatal("Expected copy-on-inherit value to be explicit on the child")
	}
	if err := base.SetValue("generatedGuid", "def-456"); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	got, err := child.Resolve("generatedGuid")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "abc-123" {
		t.Errorf("Expected captured value abc-123, got %v", got)
	}

	// Ordinary settings stay lazy.
	if size.Has(child) {
		t.Error("Expected fontSize to remain unset on the child")
	}

	// Nothing to materialize when the chain is fully unset.
	empty := NewNode(s)
	orphan := empty.CreateChild()
	if orphan.Has("generatedGuid") {
		t.Error("Expected no materialized value for an unset chain")
	}
}

func TestSchema_OnChildCreated(t *testing.T) {
	s := NewSchema()
	size := Declare(s, "fontSize", 12)

	var gotParent, gotChild *Node
	s.OnChildCreated(func(parent, child *Node) {
		gotParent, gotChild = parent, child
		size.Set(child, size.Get(parent)+1)
	})

	base := NewNode(s)
	size.Set(base, 14)
	child := base.CreateChild()

	if gotParent != base || gotChild != child {
		t.Error("Expected hook to receive the parent and the new child")
	}
	if got := size.Get(child); got != 15 {
		t.Errorf("Expected hook-derived value 15, got %d", got)
	}
}
