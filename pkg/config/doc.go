// Package config loads layered settings documents into inherit node graphs.
//
// # Overview
//
// The config package is the file-facing collaborator of the resolution
// engine: it parses settings documents, validates their shape, and builds
// the corresponding schema and layer graph. The engine itself never reads
// files; it only sees already-parsed values being set.
//
// A settings document declares the schema and the layers:
//
//	settings: [
//	    {name: "fontSize", kind: "required", type: "int", default: 12},
//	    {name: "fontFace", kind: "nullable", type: "string"},
//	]
//
//	layers: [
//	    {name: "defaults", values: {fontSize: 14}},
//	    {name: "profile", parents: ["defaults"], values: {fontFace: null}},
//	]
//
// A null value on a nullable setting records an explicit null, which is a
// terminal resolution. Parent lists are precedence-ordered, first parent
// highest.
//
// # Components
//
// Parser: parses CUE files, directories, and YAML files into a Document.
// Multiple sources merge by appending settings and layers.
//
// SchemaRegistry: CUE schemas validating document shape before decoding.
// The built-in "document" schema covers the settings/layers structure;
// custom schemas can be registered for stricter site-specific checks.
//
// BuildGraph: turns a Document into an inherit.Schema plus named
// inherit.Node layers, coercing values to the declared types, linking
// parents, and rejecting cyclic layer references.
//
// Watcher: re-parses and rebuilds the graph when any source file changes,
// for live settings reload.
//
// # Usage Example
//
//	parser := config.NewParser()
//	doc, err := parser.Parse(ctx, []string{"settings.cue"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	graph, err := config.BuildGraph(doc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	profile, _ := graph.Layer("profile")
//	size, _ := profile.Resolve("fontSize")
package config
