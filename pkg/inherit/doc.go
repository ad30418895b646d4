// Package inherit implements layered settings resolution for Strata.
//
// # Overview
//
// The inherit package is the core of Strata: a node holds explicit values
// for a declared set of named settings and an ordered list of parent nodes.
// Reading a setting resolves it with a fixed fallback chain:
//
//	explicit value on the node --> first value found in parents --> declared default
//
// Parents are consulted depth-first in list order, so a grandparent reached
// through the first parent wins over a directly attached second parent. The
// precedence is deterministic and is relied on by diagnostics (Explain) and
// by anything presenting resolved settings to users.
//
// # Components
//
// Schema: a declarative table of settings. Each declaration names the
// setting, its kind (required-with-default or nullable), and its compiled
// default. Typed declarations via Declare and DeclareNullable return keys
// that carry the value type.
//
// Node: one layer in the graph. Nodes are created empty, created as children
// of an existing node with CreateChild, and linked into multi-parent chains
// with InsertParent / InsertParentAt. Parent lists are append/insert only.
//
// Key / NullableKey: typed handles for a declared setting, exposing the
// four-operation contract Has, Get, Set and Clear. A nullable setting
// distinguishes "never set" from "explicitly set to null": an explicit null
// is a terminal resolution and does not fall through to parents.
//
// # Usage Example
//
//	s := inherit.NewSchema()
//	fontSize := inherit.Declare(s, "fontSize", 12)
//	fontFace := inherit.DeclareNullable[string](s, "fontFace", nil)
//
//	base := inherit.NewNode(s)
//	fontSize.Set(base, 14)
//
//	profile := base.CreateChild()
//	fontSize.Get(profile) // 14, inherited
//	fontSize.Set(profile, 10)
//	fontSize.Get(profile) // 10; base is unchanged
//	fontSize.Clear(profile)
//	fontSize.Get(profile) // 14 again
//
//	fontFace.Set(profile, nil) // explicit null, terminal
//	fontFace.Has(profile)      // true
//
// # Acyclicity
//
// The parent graph MUST be acyclic. Parent links only point from child to
// parent, so well-behaved callers naturally build trees or DAGs, and the
// package does not pay for cycle detection on every read. A cyclic graph is
// a caller bug: resolution fails fast by panicking once the chain exceeds
// MaxChainDepth rather than recursing without bound. Callers that assemble
// graphs from untrusted input should run CheckAcyclic after linking, or use
// Explain, which reports the same condition as an error.
//
// # Thread Safety
//
// Nodes are not synchronized. Reads never mutate any node and may proceed
// concurrently, but a caller that mutates a node shared across goroutines
// must supply its own locking.
package inherit
