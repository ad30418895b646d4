package config

import (
	"time"
)

// Setting value types supported by documents. Values and defaults are
// coerced to a canonical Go type before reaching the engine.
const (
	TypeString     = "string"     // string
	TypeInt        = "int"        // int64
	TypeFloat      = "float"      // float64
	TypeBool       = "bool"       // bool
	TypeDuration   = "duration"   // time.Duration, parsed from a string like "250ms"
	TypeStringList = "stringlist" // []string
)

// SettingConfig declares one named setting in a document.
type SettingConfig struct {
	// Name is the setting name, unique across the document.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Kind is the storage kind: "required" or "nullable".
	Kind string `json:"kind" yaml:"kind" validate:"required,oneof=required nullable"`

	// Type is the value type of the setting.
	Type string `json:"type" yaml:"type" validate:"required,oneof=string int float bool duration stringlist"`

	// Default is the compiled-in fallback. Required settings must declare
	// one; nullable settings may omit it, which defaults to null.
	Default any `json:"default,omitempty" yaml:"default,omitempty"`
}

// LayerConfig declares one layer (node) in a document.
type LayerConfig struct {
	// Name identifies the layer, unique across the document.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Parents lists parent layer names in precedence order, first highest.
	Parents []string `json:"parents,omitempty" yaml:"parents,omitempty"`

	// Values are the explicit values set on this layer. A present key with
	// a null value records an explicit null on a nullable setting.
	Values map[string]any `json:"values,omitempty" yaml:"values,omitempty"`
}

// Document is a fully parsed settings document, possibly merged from
// multiple source files.
type Document struct {
	// Settings are the schema declarations, in document order.
	Settings []SettingConfig `json:"settings"`

	// Layers are the layer declarations, in document order.
	Layers []LayerConfig `json:"layers"`

	// SourceFiles are the files that were parsed.
	SourceFiles []string `json:"source_files"`

	// ParsedAt is when the document was parsed.
	ParsedAt time.Time `json:"parsed_at"`

	// Errors lists parse and validation errors. A document with errors must
	// not be handed to BuildGraph.
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError is a parse or validation failure with source location
// context where available.
type ValidationError struct {
	// File is the source file path.
	File string `json:"file,omitempty"`

	// Line is the line number (1-indexed).
	Line int `json:"line,omitempty"`

	// Column is the column number (1-indexed).
	Column int `json:"column,omitempty"`

	// Path is the document path to the error (e.g., "layers.profile").
	Path string `json:"path,omitempty"`

	// Message is the error message.
	Message string `json:"message"`

	// Severity is the error severity (error, warning, info).
	Severity string `json:"severity"`
}
