package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/openfroyo/strata/pkg/inherit"
)

func buildTestGraph(t *testing.T, content string) *Graph {
	t.Helper()
	parser := NewParser()
	doc, err := parser.ParseInline(context.Background(), content)
	if err != nil {
		t.Fatalf("ParseInline failed: %v", err)
	}
	g, err := BuildGraph(doc)
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}
	return g
}

func TestBuildGraph_Resolution(t *testing.T) {
	g := buildTestGraph(t, testDocument)

	if len(g.Order) != 2 || g.Order[0] != "defaults" || g.Order[1] != "profile" {
		t.Fatalf("Unexpected layer order: %v", g.Order)
	}

	profile, ok := g.Layer("profile")
	if !ok {
		t.Fatal("Expected profile layer to exist")
	}

	// fontSize is inherited from defaults, coerced to int64.
	size, err := profile.Resolve("fontSize")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if size != int64(14) {
		t.Errorf("Expected inherited int64(14), got %v (%T)", size, size)
	}

	// fontFace carries an explicit null on the profile layer.
	if !profile.Has("fontFace") {
		t.Error("Expected explicit null to be set on profile")
	}
	face, err := profile.Resolve("fontFace")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if face != nil {
		t.Errorf("Expected explicit null, got %v", face)
	}

	// padding falls back to the coerced duration default.
	padding, err := profile.Resolve("padding")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if padding != 250*time.Millisecond {
		t.Errorf("Expected 250ms default, got %v", padding)
	}
}

func TestBuildGraph_MultiParentPrecedence(t *testing.T) {
	g := buildTestGraph(t, `
settings: [
	{name: "colorScheme", kind: "required", type: "string", default: "Campbell"},
]
layers: [
	{name: "global", values: {colorScheme: "Tango Dark"}},
	{name: "base", parents: ["global"]},
	{name: "overrides", values: {colorScheme: "Vintage"}},
	{name: "profile", parents: ["base", "overrides"]},
]
`)

	profile, _ := g.Layer("profile")
	// Depth-first through the first parent: global's value wins over the
	// directly attached overrides layer.
	got, err := profile.Resolve("colorScheme")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "Tango Dark" {
		t.Errorf("Expected depth-first resolution to Tango Dark, got %v", got)
	}
}

func TestBuildGraph_Errors(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "unknown parent",
			content: `
settings: [{name: "a", kind: "required", type: "int", default: 1}]
layers: [{name: "x", parents: ["missing"]}]
`,
			wantErr: "unknown parent",
		},
		{
			name: "duplicate layer",
			content: `
settings: [{name: "a", kind: "required", type: "int", default: 1}]
layers: [{name: "x"}, {name: "x"}]
`,
			wantErr: "duplicate layer",
		},
		{
			name: "cyclic parents",
			content: `
settings: [{name: "a", kind: "required", type: "int", default: 1}]
layers: [
	{name: "x", parents: ["y"]},
	{name: "y", parents: ["x"]},
]
`,
			wantErr: "cyclic",
		},
		{
			name: "undeclared setting",
			content: `
settings: [{name: "a", kind: "required", type: "int", default: 1}]
layers: [{name: "x", values: {b: 2}}]
`,
			wantErr: "undeclared setting",
		},
		{
			name: "null on required setting",
			content: `
settings: [{name: "a", kind: "required", type: "int", default: 1}]
layers: [{name: "x", values: {a: null}}]
`,
			wantErr: "required setting a to null",
		},
		{
			name: "required setting without default",
			content: `
settings: [{name: "a", kind: "required", type: "int"}]
layers: []
`,
			wantErr: "must declare a default",
		},
		{
			name: "mistyped value",
			content: `
settings: [{name: "a", kind: "required", type: "int", default: 1}]
layers: [{name: "x", values: {a: "ten"}}]
`,
			wantErr: "expected integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parser.ParseInline(context.Background(), tt.content)
			if err != nil {
				t.Fatalf("ParseInline failed: %v", err)
			}
			_, err = BuildGraph(doc)
			if err == nil {
				t.Fatal("Expected BuildGraph to fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBuildGraph_RejectsDocumentWithErrors(t *testing.T) {
	doc := &Document{
		Errors: []ValidationError{{Message: "boom", Severity: "error"}},
	}
	if _, err := BuildGraph(doc); err == nil {
		t.Error("Expected BuildGraph to reject a document with errors")
	}
}

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name        string
		settingType string
		in          any
		want        any
		wantErr     bool
	}{
		{name: "string", settingType: TypeString, in: "hi", want: "hi"},
		{name: "string from int", settingType: TypeString, in: 3, wantErr: true},
		{name: "int from int", settingType: TypeInt, in: 12, want: int64(12)},
		{name: "int from float", settingType: TypeInt, in: float64(12), want: int64(12)},
		{name: "int from fraction", settingType: TypeInt, in: 12.5, wantErr: true},
		{name: "float from int", settingType: TypeFloat, in: 2, want: float64(2)},
		{name: "bool", settingType: TypeBool, in: true, want: true},
		{name: "duration", settingType: TypeDuration, in: "1m30s", want: 90 * time.Second},
		{name: "bad duration", settingType: TypeDuration, in: "soon", wantErr: true},
		{name: "stringlist", settingType: TypeStringList, in: []any{"a", "b"}, want: []string{"a", "b"}},
		{name: "mixed stringlist", settingType: TypeStringList, in: []any{"a", 1}, wantErr: true},
		{name: "unknown type", settingType: "blob", in: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerceValue(tt.settingType, tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("coerceValue failed: %v", err)
			}
			if list, ok := tt.want.([]string); ok {
				gotList, ok := got.([]string)
				if !ok || len(gotList) != len(list) {
					t.Fatalf("Expected %v, got %v", tt.want, got)
				}
				for i := range list {
					if gotList[i] != list[i] {
						t.Errorf("Index %d: expected %q, got %q", i, list[i], gotList[i])
					}
				}
				return
			}
			if got != tt.want {
				t.Errorf("Expected %v (%T), got %v (%T)", tt.want, tt.want, got, got)
			}
		})
	}
}

func TestBuildGraph_ExplainAcrossLayers(t *testing.T) {
	g := buildTestGraph(t, testDocument)
	profile, _ := g.Layer("profile")

	res, err := profile.Explain("fontSize")
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}
	if res.Origin != inherit.OriginInherited || res.SourceName != "defaults" {
		t.Errorf("Expected value inherited from defaults, got %+v", res)
	}
}
