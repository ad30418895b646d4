package inherit

import (
	"errors"
	"fmt"
	"strings"
)

// MaxChainDepth bounds the inheritance chain walked by a single resolution.
// Real chains are a handful of levels deep; hitting this limit means the
// caller built a cyclic or runaway parent graph.
const MaxChainDepth = 128

var (
	// ErrUnknownSetting is returned when a name is not declared in the
	// node's schema.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrChainTooDeep is returned by Explain and CheckAcyclic when the
	// inheritance chain exceeds MaxChainDepth.
	ErrChainTooDeep = errors.New("cyclic or excessively deep inheritance chain")
)

// CycleError reports a cycle found in a parent graph.
type CycleError struct {
	// Path is the chain of node names (or IDs for unnamed nodes) forming
	// the cycle, ending with a repeat of the first entry.
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic inheritance chain: %s", strings.Join(e.Path, " -> "))
}

// resolve walks the fallback chain for one setting: this node's explicit
// value, else each parent depth-first in precedence order. It reports
// whether any node in the chain held an explicit value; the caller supplies
// the default on a miss. Reads never mutate any node.
//
// Acyclicity of the parent graph is a caller precondition. The depth guard
// turns a violated precondition into a fast panic instead of unbounded
// recursion.
func resolve(n *Node, name string, depth int) (slot, bool) {
	if depth > MaxChainDepth {
		panic(fmt.Sprintf("inherit: %v while resolving %q (depth > %d)", ErrChainTooDeep, name, MaxChainDepth))
	}

	if sl, ok := n.values[name]; ok {
		return sl, true
	}
	for _, p := range n.parents {
		if sl, ok := resolve(p, name, depth+1); ok {
			return sl, true
		}
	}
	return slot{}, false
}

// Origin classifies where a resolved value came from.
type Origin string

const (
	// OriginSelf means the node itself holds the explicit value.
	OriginSelf Origin = "self"

	// OriginInherited means an ancestor supplied the value.
	OriginInherited Origin = "inherited"

	// OriginDefault means no node in the chain held an explicit value and
	// the schema default applied.
	OriginDefault Origin = "default"
)

// Resolution is the diagnostic record produced by Explain: the resolved
// value together with the node that supplied it and the chain walked to
// reach it.
type Resolution struct {
	// Setting is the resolved setting name.
	Setting string `json:"setting"`

	// Value is the resolved value. For nullable settings it may be nil.
	Value any `json:"value"`

	// Null is true when a nullable setting resolved to an explicit null.
	Null bool `json:"null,omitempty"`

	// Origin classifies the source of the value.
	Origin Origin `json:"origin"`

	// Source is the node that supplied the value; nil when the default
	// applied.
	Source *Node `json:"-"`

	// SourceName is the diagnostic name of Source, or its ID when unnamed.
	SourceName string `json:"source,omitempty"`

	// Depth is the number of parent hops from the queried node to Source.
	Depth int `json:"depth"`
}

// Explain resolves a setting and reports where the value came from. Unlike
// the plain accessors it returns ErrChainTooDeep instead of panicking on a
// runaway chain, so it is safe to run against graphs assembled from
// untrusted input.
func (n *Node) Explain(name string) (Resolution, error) {
	d, ok := n.schema.decls[name]
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s", ErrUnknownSetting, name)
	}

	src, sl, depth, found, err := trace(n, name, 0)
	if err != nil {
		return Resolution{}, fmt.Errorf("explaining %s: %w", name, err)
	}
	if !found {
		return Resolution{
			Setting: name,
			Value:   d.Default,
			Null:    d.Kind == KindNullable && d.Default == nil,
			Origin:  OriginDefault,
		}, nil
	}

	res := Resolution{
		Setting:    name,
		Value:      sl.value,
		Null:       sl.value == nil,
		Origin:     OriginInherited,
		Source:     src,
		SourceName: nodeLabel(src),
		Depth:      depth,
	}
	if src == n {
		res.Origin = OriginSelf
	}
	return res, nil
}

// trace is the error-returning twin of resolve, additionally reporting the
// source node and its distance from the queried node.
func trace(n *Node, name string, depth int) (*Node, slot, int, bool, error) {
	if depth > MaxChainDepth {
		return nil, slot{}, 0, false, ErrChainTooDeep
	}

	if sl, ok := n.values[name]; ok {
		return n, sl, depth, true, nil
	}
	for _, p := range n.parents {
		src, sl, d, found, err := trace(p, name, depth+1)
		if err != nil || found {
			return src, sl, d, found, err
		}
	}
	return nil, slot{}, 0, false, nil
}

// CheckAcyclic verifies that no cycle is reachable from the given nodes by
// following parent links. Callers that build graphs from untrusted input
// should run it after linking; the resolution path itself relies on the
// acyclicity precondition and only carries the MaxChainDepth panic guard.
func CheckAcyclic(nodes ...*Node) error {
	visited := make(map[*Node]bool)
	inStack := make(map[*Node]bool)

	var visit func(n *Node, path []string) error
	visit = func(n *Node, path []string) error {
		if inStack[n] {
			return &CycleError{Path: append(cyclePrefix(path, nodeLabel(n)), nodeLabel(n))}
		}
		if visited[n] {
			return nil
		}
		visited[n] = true
		inStack[n] = true
		path = append(path, nodeLabel(n))

		for _, p := range n.parents {
			if err := visit(p, path); err != nil {
				return err
			}
		}

		inStack[n] = false
		return nil
	}

	for _, n := range nodes {
		if err := visit(n, nil); err != nil {
			return err
		}
	}
	return nil
}

// cyclePrefix trims the path to start at the node that closes the cycle.
func cyclePrefix(path []string, label string) []string {
	for i, entry := range path {
		if entry == label {
			return append([]string(nil), path[i:]...)
		}
	}
	return append([]string(nil), path...)
}

// nodeLabel returns the node's name for diagnostics, falling back to its ID.
func nodeLabel(n *Node) string {
	if n.name != "" {
		return n.name
	}
	return n.id.String()
}
