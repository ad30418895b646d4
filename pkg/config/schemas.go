package config

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// SchemaRegistry manages CUE schemas used to validate settings documents
// before they are decoded into Go structures.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

// NewSchemaRegistry creates a new schema registry with the built-in
// document schema registered.
func NewSchemaRegistry() *SchemaRegistry {
	sr := &SchemaRegistry{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}
	if err := sr.RegisterSchema("document", builtinDocumentSchema); err != nil {
		// The built-in schema is a compile-time constant; failing to
		// compile it is a build defect, not a runtime condition.
		panic(fmt.Sprintf("config: built-in schema is invalid: %v", err))
	}
	return sr
}

// RegisterSchema registers a CUE schema under the given name.
func (sr *SchemaRegistry) RegisterSchema(name, schema string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val := sr.ctx.CompileString(schema)
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	sr.schemas[name] = val
	return nil
}

// GetSchema retrieves a schema by name.
func (sr *SchemaRegistry) GetSchema(name string) (cue.Value, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	val, ok := sr.schemas[name]
	return val, ok
}

// ValidateAgainstSchema validates a decoded Go value against a named schema.
// Used for documents that did not originate from CUE (e.g. YAML files).
func (sr *SchemaRegistry) ValidateAgainstSchema(schemaName string, data any) error {
	schema, ok := sr.GetSchema(schemaName)
	if !ok {
		return fmt.Errorf("schema %s not found", schemaName)
	}

	dataVal := sr.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	return sr.validateUnified(schema, dataVal)
}

// ValidateValue validates a CUE value against a named schema without a
// round-trip through Go.
func (sr *SchemaRegistry) ValidateValue(schemaName string, val cue.Value) error {
	schema, ok := sr.GetSchema(schemaName)
	if !ok {
		return fmt.Errorf("schema %s not found", schemaName)
	}
	return sr.validateUnified(schema, val)
}

func (sr *SchemaRegistry) validateUnified(schema, data cue.Value) error {
	unified := schema.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ListSchemas returns all registered schema names.
func (sr *SchemaRegistry) ListSchemas() []string {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	names := make([]string, 0, len(sr.schemas))
	for name := range sr.schemas {
		names = append(names, name)
	}
	return names
}

// builtinDocumentSchema constrains the shape of a settings document:
// setting declarations with kind and type, and named layers with ordered
// parent lists and explicit values.
const builtinDocumentSchema = `
#Setting: {
	name:     string & !=""
	kind:     "required" | "nullable"
	type:     "string" | "int" | "float" | "bool" | "duration" | "stringlist"
	default?: _
}

#Layer: {
	name: string & !=""
	parents?: [...string]
	values?: {[string]: _}
}

settings?: [...#Setting]
layers?: [...#Layer]
`
