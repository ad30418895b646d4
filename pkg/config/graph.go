package config

import (
	"fmt"
	"time"

	"github.com/openfroyo/strata/pkg/inherit"
)

// Graph is a settings document realized as an inherit node graph.
type Graph struct {
	// Schema holds the declared settings.
	Schema *inherit.Schema

	// Layers maps layer names to their nodes.
	Layers map[string]*inherit.Node

	// Order lists layer names in document order.
	Order []string
}

// Layer returns the node for a named layer.
func (g *Graph) Layer(name string) (*inherit.Node, bool) {
	n, ok := g.Layers[name]
	return n, ok
}

// BuildGraph turns a parsed document into a schema and linked layer nodes.
// Defaults and values are coerced to the declared setting types, parents
// are linked in precedence order, and the resulting graph is verified to be
// acyclic before any value is applied.
func BuildGraph(doc *Document) (*Graph, error) {
	if len(doc.Errors) > 0 {
		return nil, fmt.Errorf("document has %d validation errors, first: %s", len(doc.Errors), doc.Errors[0].Message)
	}

	schema := inherit.NewSchema()
	for _, s := range doc.Settings {
		d := inherit.Declaration{
			Name: s.Name,
			Kind: inherit.Kind(s.Kind),
		}
		if s.Default != nil {
			def, err := coerceValue(s.Type, s.Default)
			if err != nil {
				return nil, fmt.Errorf("setting %s: invalid default: %w", s.Name, err)
			}
			d.Default = def
		}
		if err := schema.DeclareSetting(d); err != nil {
			return nil, err
		}
	}

	g := &Graph{
		Schema: schema,
		Layers: make(map[string]*inherit.Node, len(doc.Layers)),
	}

	for _, l := range doc.Layers {
		if _, exists := g.Layers[l.Name]; exists {
			return nil, fmt.Errorf("duplicate layer: %s", l.Name)
		}
		n := inherit.NewNode(schema)
		n.SetName(l.Name)
		g.Layers[l.Name] = n
		g.Order = append(g.Order, l.Name)
	}

	for _, l := range doc.Layers {
		n := g.Layers[l.Name]
		for _, parent := range l.Parents {
			p, ok := g.Layers[parent]
			if !ok {
				return nil, fmt.Errorf("layer %s references unknown parent %s", l.Name, parent)
			}
			n.InsertParent(p)
		}
	}

	nodes := make([]*inherit.Node, 0, len(g.Order))
	for _, name := range g.Order {
		nodes = append(nodes, g.Layers[name])
	}
	if err := inherit.CheckAcyclic(nodes...); err != nil {
		return nil, err
	}

	for _, l := range doc.Layers {
		n := g.Layers[l.Name]
		for name, raw := range l.Values {
			d, ok := schema.Declaration(name)
			if !ok {
				return nil, fmt.Errorf("layer %s sets undeclared setting %s", l.Name, name)
			}

			if raw == nil {
				if d.Kind != inherit.KindNullable {
					return nil, fmt.Errorf("layer %s sets required setting %s to null", l.Name, name)
				}
				if err := n.SetValue(name, nil); err != nil {
					return nil, fmt.Errorf("layer %s: %w", l.Name, err)
				}
				continue
			}

			st := settingType(doc, name)
			v, err := coerceValue(st, raw)
			if err != nil {
				return nil, fmt.Errorf("layer %s, setting %s: %w", l.Name, name, err)
			}
			if err := n.SetValue(name, v); err != nil {
				return nil, fmt.Errorf("layer %s: %w", l.Name, err)
			}
		}
	}

	return g, nil
}

// settingType looks up the declared value type for a setting name.
func settingType(doc *Document, name string) string {
	for _, s := range doc.Settings {
		if s.Name == name {
			return s.Type
		}
	}
	return ""
}

// coerceValue converts a decoded document value to the canonical Go type
// for the declared setting type. CUE and YAML decoders produce a mix of
// int, int64, uint64 and float64 for numbers, so numeric coercion is
// deliberately permissive as long as no precision is lost.
func coerceValue(settingType string, v any) (any, error) {
	switch settingType {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil

	case TypeInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case uint64:
			if n > 1<<62 {
				return nil, fmt.Errorf("integer %d out of range", n)
			}
			return int64(n), nil
		case float64:
			if n != float64(int64(n)) {
				return nil, fmt.Errorf("expected integer, got %v", n)
			}
			return int64(n), nil
		default:
			return nil, fmt.Errorf("expected integer, got %T", v)
		}

	case TypeFloat:
		switch n := v.(type) {
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case float64:
			return n, nil
		default:
			return nil, fmt.Errorf("expected number, got %T", v)
		}

	case TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil

	case TypeDuration:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected duration string, got %T", v)
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		return d, nil

	case TypeStringList:
		switch list := v.(type) {
		case []string:
			return list, nil
		case []any:
			out := make([]string, len(list))
			for i, item := range list {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("expected string at index %d, got %T", i, item)
				}
				out[i] = s
			}
			return out, nil
		default:
			return nil, fmt.Errorf("expected string list, got %T", v)
		}

	default:
		return nil, fmt.Errorf("unknown setting type %q", settingType)
	}
}
