package inherit

import (
	"errors"
	"strings"
	"testing"
)

func TestResolve_MultiParentPrecedence(t *testing.T) {
	s := NewSchema()
	scheme := Declare(s, "colorScheme", "Campbell")

	p1 := NewNode(s)
	p2 := NewNode(s)
	scheme.Set(p2, "Solarized")

	c := NewNode(s)
	c.InsertParent(p1)
	c.InsertParent(p2)

	// p1 has no value, so p2 supplies it.
	if got := scheme.Get(c); got != "Solarized" {
		t.Errorf("Expected Solarized from second parent, got %q", got)
	}

	// Once p1 has a value, it wins.
	scheme.Set(p1, "One Half Dark")
	if got := scheme.Get(c); got != "One Half Dark" {
		t.Errorf("Expected first parent to win, got %q", got)
	}
}

func TestResolve_DepthFirstBeforeSecondParent(t *testing.T) {
	s := NewSchema()
	scheme := Declare(s, "colorScheme", "Campbell")

	gp := NewNode(s)
	scheme.Set(gp, "Tango Dark")

	p1 := NewNode(s)
	p1.InsertParent(gp)

	p2 := NewNode(s)
	scheme.Set(p2, "Vintage")

	c := NewNode(s)
	c.InsertParent(p1)
	c.InsertParent(p2)

	// The grandparent through p1 beats the directly attached p2.
	if got := scheme.Get(c); got != "Tango Dark" {
		t.Errorf("Expected depth-first grandparent value, got %q", got)
	}
}

func TestResolve_ReadsArePure(t *testing.T) {
	s := NewSchema()
	size := Declare(s, "fontSize", 12)

	base := NewNode(s)
	size.Set(base, 14)
	c := base.CreateChild()

	for i := 0; i < 3; i++ {
		if got := size.Get(c); got != 14 {
			t.Fatalf("Read %d: expected 14, got %d", i, got)
		}
	}
	if c.Has("fontSize") {
		t.Error("Expected repeated reads to leave the child unset")
	}
	if len(c.Explicits()) != 0 {
		t.Errorf("Expected no explicit values on the child, got %v", c.Explicits())
	}
}

func TestExplain_Origins(t *testing.T) {
	s := NewSchema()
	size := Declare(s, "fontSize", 12)

	base := NewNode(s)
	base.SetName("defaults")
	size.Set(base, 14)

	mid := base.CreateChild()
	c := mid.CreateChild()

	res, err := c.Explain("fontSize")
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}
	if res.Origin != OriginInherited {
		t.Errorf("Expected inherited origin, got %s", res.Origin)
	}
	if res.Source != base || res.SourceName != "defaults" {
		t.Errorf("Expected source to be the defaults node, got %q", res.SourceName)
	}
	if res.Depth != 2 {
		t.Errorf("Expected depth 2, got %d", res.Depth)
	}
	if res.Value != 14 {
		t.Errorf("Expected value 14, got %v", res.Value)
	}

	size.Set(c, 10)
	res, err = c.Explain("fontSize")
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}
	if res.Origin != OriginSelf || res.Depth != 0 {
		t.Errorf("Expected self origin at depth 0, got %s at %d", res.Origin, res.Depth)
	}

	fresh := NewNode(s)
	res, err = fresh.Explain("fontSize")
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}
	if res.Origin != OriginDefault || res.Value != 12 {
		t.Errorf("Expected default origin with 12, got %s with %v", res.Origin, res.Value)
	}
	if res.Source != nil {
		t.Error("Expected no source node for a default resolution")
	}

	if _, err := fresh.Explain("nope"); !errors.Is(err, ErrUnknownSetting) {
		t.Errorf("Expected ErrUnknownSetting, got %v", err)
	}
}

func TestExplain_NullableNull(t *testing.T) {
	s := NewSchema()
	face := DeclareNullable[string](s, "fontFace", nil)

	base := NewNode(s)
	v := "Consolas"
	face.Set(base, &v)

	c := base.CreateChild()
	face.Set(c, nil)

	res, err := c.Explain("fontFace")
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}
	if res.Origin != OriginSelf || !res.Null {
		t.Errorf("Expected terminal explicit null at self, got %+v", res)
	}
}

func TestCheckAcyclic(t *testing.T) {
	s := NewSchema()
	Declare(s, "fontSize", 12)

	base := NewNode(s)
	shared := base.CreateChild()
	a := shared.CreateChild()
	b := shared.CreateChild()
	a.InsertParent(b) // diamond through shared, still acyclic

	if err := CheckAcyclic(a, b); err != nil {
		t.Fatalf("Expected DAG to validate, got %v", err)
	}

	// Close a cycle and expect a CycleError naming the chain.
	x := NewNode(s)
	x.SetName("x")
	y := NewNode(s)
	y.SetName("y")
	x.InsertParent(y)
	y.InsertParent(x)

	err := CheckAcyclic(x)
	if err == nil {
		t.Fatal("Expected cycle to be reported")
	}
	var cerr *CycleError
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected *CycleError, got %T", err)
	}
	if !strings.Contains(cerr.Error(), "x -> y -> x") {
		t.Errorf("Unexpected cycle path: %s", cerr.Error())
	}
}

func TestExplain_CyclicChainFailsFast(t *testing.T) {
	s := NewSchema()
	Declare(s, "fontSize", 12)

	x := NewNode(s)
	y := NewNode(s)
	x.InsertParent(y)
	y.InsertParent(x)

	if _, err := x.Explain("fontSize"); !errors.Is(err, ErrChainTooDeep) {
		t.Errorf("Expected ErrChainTooDeep, got %v", err)
	}
}

func TestResolve_CyclicChainPanics(t *testing.T) {
	s := NewSchema()
	size := Declare(s, "fontSize", 12)

	x := NewNode(s)
	y := NewNode(s)
	x.InsertParent(y)
	y.InsertParent(x)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Expected resolution on a cyclic graph to panic")
		}
		if !strings.Contains(r.(string), "inheritance chain") {
			t.Errorf("Unexpected panic message: %v", r)
		}
	}()
	size.Get(x)
}
