package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Parser parses settings documents from CUE and YAML sources.
type Parser struct {
	ctx       *cue.Context
	registry  *SchemaRegistry
	validator *validator.Validate
}

// NewParser creates a new document parser.
func NewParser() *Parser {
	return &Parser{
		ctx:       cuecontext.New(),
		registry:  NewSchemaRegistry(),
		validator: validator.New(),
	}
}

// Registry returns the parser's schema registry, so callers can register
// additional document schemas.
func (p *Parser) Registry() *SchemaRegistry {
	return p.registry
}

// Parse parses settings documents from the given sources. A source may be a
// CUE file, a directory holding a CUE package, or a YAML file. Settings and
// layers from multiple sources are appended in argument order.
func (p *Parser) Parse(ctx context.Context, sources []string) (*Document, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources provided")
	}

	doc := &Document{ParsedAt: time.Now()}

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(source)
		if err != nil {
			return nil, fmt.Errorf("failed to stat source %s: %w", source, err)
		}

		switch {
		case info.IsDir():
			val, files, errs := p.loadDirectory(source)
			doc.SourceFiles = append(doc.SourceFiles, files...)
			if len(errs) > 0 {
				doc.Errors = append(doc.Errors, errs...)
				continue
			}
			p.extractDocument(val, doc)
		case isYAMLPath(source):
			doc.SourceFiles = append(doc.SourceFiles, source)
			p.parseYAMLFile(source, doc)
		default:
			val, errs := p.loadFile(source)
			doc.SourceFiles = append(doc.SourceFiles, source)
			if len(errs) > 0 {
				doc.Errors = append(doc.Errors, errs...)
				continue
			}
			p.extractDocument(val, doc)
		}
	}

	return doc, nil
}

// ParseInline parses a settings document from inline CUE content.
func (p *Parser) ParseInline(ctx context.Context, content string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := &Document{ParsedAt: time.Now()}

	val := p.ctx.CompileString(content, cue.Filename("inline"))
	if err := val.Err(); err != nil {
		doc.Errors = append(doc.Errors, p.convertCUEErrors(err)...)
		return doc, nil
	}

	p.extractDocument(val, doc)
	return doc, nil
}

// loadDirectory loads a directory as a CUE package.
func (p *Parser) loadDirectory(dir string) (cue.Value, []string, []ValidationError) {
	buildInstances := load.Instances([]string{dir}, nil)
	if len(buildInstances) == 0 {
		return cue.Value{}, nil, []ValidationError{{
			File:     dir,
			Message:  "no CUE files found",
			Severity: "error",
		}}
	}

	inst := buildInstances[0]
	if inst.Err != nil {
		return cue.Value{}, nil, p.convertCUEErrors(inst.Err)
	}

	val := p.ctx.BuildInstance(inst)
	if err := val.Err(); err != nil {
		return cue.Value{}, nil, p.convertCUEErrors(err)
	}

	var files []string
	for _, file := range inst.Files {
		if file.Filename != "" {
			files = append(files, file.Filename)
		}
	}

	return val, files, nil
}

// loadFile loads a single CUE file.
func (p *Parser) loadFile(path string) (cue.Value, []ValidationError) {
	content, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, []ValidationError{{
			File:     path,
			Message:  fmt.Sprintf("failed to read file: %v", err),
			Severity: "error",
		}}
	}

	val := p.ctx.CompileString(string(content), cue.Filename(path))
	if err := val.Err(); err != nil {
		return cue.Value{}, p.convertCUEErrors(err)
	}

	return val, nil
}

// extractDocument validates a CUE value against the document schema and
// appends its settings and layers to doc.
func (p *Parser) extractDocument(val cue.Value, doc *Document) {
	if err := p.registry.ValidateValue("document", val); err != nil {
		doc.Errors = append(doc.Errors, ValidationError{
			Message:  err.Error(),
			Severity: "error",
		})
		return
	}

	settingsVal := val.LookupPath(cue.ParsePath("settings"))
	if settingsVal.Exists() {
		p.extractList(settingsVal, "settings", doc, func(idx int, item cue.Value) error {
			var s SettingConfig
			if err := item.Decode(&s); err != nil {
				return fmt.Errorf("failed to decode setting: %w", err)
			}
			if err := p.validator.Struct(s); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			doc.Settings = append(doc.Settings, s)
			return nil
		})
	}

	layersVal := val.LookupPath(cue.ParsePath("layers"))
	if layersVal.Exists() {
		p.extractList(layersVal, "layers", doc, func(idx int, item cue.Value) error {
			layer, err := p.extractLayer(item)
			if err != nil {
				return err
			}
			doc.Layers = append(doc.Layers, layer)
			return nil
		})
	}
}

// extractList iterates a CUE list, recording per-item errors with their
// document path instead of aborting the whole parse.
func (p *Parser) extractList(val cue.Value, path string, doc *Document, fn func(int, cue.Value) error) {
	list, err := val.List()
	if err != nil {
		doc.Errors = append(doc.Errors, ValidationError{
			Path:     path,
			Message:  fmt.Sprintf("failed to iterate %s: %v", path, err),
			Severity: "error",
		})
		return
	}

	idx := 0
	for list.Next() {
		if err := fn(idx, list.Value()); err != nil {
			doc.Errors = append(doc.Errors, ValidationError{
				Path:     fmt.Sprintf("%s[%d]", path, idx),
				Message:  err.Error(),
				Severity: "error",
			})
		}
		idx++
	}
}

// extractLayer decodes one layer. Values are walked field by field so that
// a CUE null is preserved as an explicit null instead of being dropped by
// the struct decoder.
func (p *Parser) extractLayer(val cue.Value) (LayerConfig, error) {
	var layer LayerConfig

	nameVal := val.LookupPath(cue.ParsePath("name"))
	if err := nameVal.Decode(&layer.Name); err != nil {
		return layer, fmt.Errorf("failed to decode layer name: %w", err)
	}

	parentsVal := val.LookupPath(cue.ParsePath("parents"))
	if parentsVal.Exists() {
		if err := parentsVal.Decode(&layer.Parents); err != nil {
			return layer, fmt.Errorf("failed to decode parents: %w", err)
		}
	}

	valuesVal := val.LookupPath(cue.ParsePath("values"))
	if valuesVal.Exists() {
		layer.Values = make(map[string]any)
		iter, err := valuesVal.Fields(cue.All())
		if err != nil {
			return layer, fmt.Errorf("failed to iterate values: %w", err)
		}
		for iter.Next() {
			name := iter.Selector().Unquoted()
			fieldVal := iter.Value()
			if fieldVal.Null() == nil {
				layer.Values[name] = nil
				continue
			}
			var v any
			if err := fieldVal.Decode(&v); err != nil {
				return layer, fmt.Errorf("failed to decode value %s: %w", name, err)
			}
			layer.Values[name] = v
		}
	}

	if err := p.validator.Struct(layer); err != nil {
		return layer, fmt.Errorf("validation failed: %w", err)
	}

	return layer, nil
}

// parseYAMLFile parses a YAML settings document and appends it to doc.
func (p *Parser) parseYAMLFile(path string, doc *Document) {
	content, err := os.ReadFile(path)
	if err != nil {
		doc.Errors = append(doc.Errors, ValidationError{
			File:     path,
			Message:  fmt.Sprintf("failed to read file: %v", err),
			Severity: "error",
		})
		return
	}

	var yamlDoc struct {
		Settings []SettingConfig `yaml:"settings"`
		Layers   []LayerConfig   `yaml:"layers"`
	}
	if err := yaml.Unmarshal(content, &yamlDoc); err != nil {
		doc.Errors = append(doc.Errors, ValidationError{
			File:     path,
			Message:  fmt.Sprintf("failed to parse YAML: %v", err),
			Severity: "error",
		})
		return
	}

	for i, s := range yamlDoc.Settings {
		if err := p.validator.Struct(s); err != nil {
			doc.Errors = append(doc.Errors, ValidationError{
				File:     path,
				Path:     fmt.Sprintf("settings[%d]", i),
				Message:  fmt.Sprintf("validation failed: %v", err),
				Severity: "error",
			})
			continue
		}
		doc.Settings = append(doc.Settings, s)
	}
	for i, l := range yamlDoc.Layers {
		if err := p.validator.Struct(l); err != nil {
			doc.Errors = append(doc.Errors, ValidationError{
				File:     path,
				Path:     fmt.Sprintf("layers[%d]", i),
				Message:  fmt.Sprintf("validation failed: %v", err),
				Severity: "error",
			})
			continue
		}
		doc.Layers = append(doc.Layers, l)
	}
}

// convertCUEErrors converts CUE errors into ValidationError entries with
// their source positions.
func (p *Parser) convertCUEErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	for _, e := range errors.Errors(err) {
		pos := errors.Positions(e)
		var file string
		var line, column int

		if len(pos) > 0 {
			file = pos[0].Filename()
			line = pos[0].Line()
			column = pos[0].Column()
		}

		validationErrors = append(validationErrors, ValidationError{
			File:     file,
			Line:     line,
			Column:   column,
			Message:  errors.Details(e, nil),
			Severity: "error",
		})
	}

	return validationErrors
}

func isYAMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
