package patterns

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// fileSchema is the JSON Schema for pattern files: a list of named
// definitions in the external pattern shape.
const fileSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["name", "confidence"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"confidence": {"type": "number", "minimum": 0, "maximum": 1},
			"user_agents": {
				"type": "array",
				"items": {
					"oneOf": [
						{"type": "string"},
						{
							"type": "object",
							"required": ["regex"],
							"properties": {"regex": {"type": "string", "minLength": 1}}
						}
					]
				}
			},
			"ip_ranges": {"type": "array", "items": {"type": "string"}},
			"headers": {
				"type": "object",
				"additionalProperties": {
					"oneOf": [
						{"type": "string"},
						{"type": "array", "items": {"type": "string"}}
					]
				}
			},
			"description": {"type": "string"},
			"company": {"type": "string"},
			"docs_url": {"type": "string"}
		}
	}
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var doc any
		if err := json.Unmarshal([]byte(fileSchema), &doc); err != nil {
			schemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("patterns.json", doc); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile("patterns.json")
	})
	return schema, schemaErr
}

// LoadFile reads a pattern file (JSON or YAML by extension) and returns its
// definitions. The document is validated against the pattern-file schema
// before decoding; a schema violation fails the whole load. Individual
// definitions that fail Validate are skipped and logged rather than fatal,
// so one bad community submission cannot take down ingestion.
func LoadFile(path string, logger *zap.Logger) ([]Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern file: %w", err)
	}

	isYAML := false
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		isYAML = true
	}

	// Decode to a generic document first for schema validation. YAML goes
	// through a JSON round-trip so scalar types match what the validator
	// expects (ints become float64 and so on).
	var doc any
	if isYAML {
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse pattern file: %w", err)
		}
		jsonRaw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("normalize pattern file: %w", err)
		}
		doc = nil
		if err := json.Unmarshal(jsonRaw, &doc); err != nil {
			return nil, fmt.Errorf("normalize pattern file: %w", err)
		}
	} else {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse pattern file: %w", err)
		}
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("pattern schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("pattern file schema validation: %w", err)
	}

	var defs []Definition
	if isYAML {
		if err := yaml.Unmarshal(raw, &defs); err != nil {
			return nil, fmt.Errorf("decode pattern file: %w", err)
		}
	} else {
		if err := json.Unmarshal(raw, &defs); err != nil {
			return nil, fmt.Errorf("decode pattern file: %w", err)
		}
	}

	out := make([]Definition, 0, len(defs))
	for _, def := range defs {
		if issues := Validate(def); len(issues) > 0 {
			logger.Warn("skipping invalid pattern definition",
				zap.String("name", def.Name),
				zap.Strings("issues", issues),
			)
			continue
		}
		out = append(out, def)
	}
	return out, nil
}

// LoadInto compiles definitions and upserts them into the registry.
// Nameless definitions are silently skipped.
func LoadInto(r *Registry, defs []Definition) int {
	n := 0
	for _, def := range defs {
		if def.Name == "" {
			continue
		}
		r.Upsert(def.Name, Compile(def.Name, def))
		n++
	}
	return n
}
