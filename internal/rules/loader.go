package rules

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/kaptinlin/jsonschema"
)

//go:embed schema/*.json
var schemaFS embed.FS

// Kind selects the schema a rule document is validated against.
type Kind string

const (
	KindClassification Kind = "classification"
	KindStructure      Kind = "structure"
	KindTag            Kind = "tag"
)

var (
	schemaOnce sync.Once
	schemas    map[Kind]*jsonschema.Schema
	schemaErr  error
)

func schemaFor(kind Kind) (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemas = make(map[Kind]*jsonschema.Schema)
		for _, k := range []Kind{KindClassification, KindStructure, KindTag} {
			data, err := schemaFS.ReadFile("schema/" + string(k) + ".json")
			if err != nil {
				schemaErr = fmt.Errorf("read %s schema: %w", k, err)
				return
			}
			compiler := jsonschema.NewCompiler()
			compiler.AssertFormat = true
			schema, err := compiler.Compile(data)
			if err != nil {
				schemaErr = fmt.Errorf("compile %s schema: %w", k, err)
				return
			}
			schemas[k] = schema
		}
	})
	if schemaErr != nil {
		return nil, schemaErr
	}
	return schemas[kind], nil
}

// IsRuleFile reports whether path has a rule document extension.
func IsRuleFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// DecodeDocument validates a single rule document and decodes it as one
// rule or an array of rules. YAML documents are converted to JSON first.
func DecodeDocument[T any](kind Kind, name string, data []byte) ([]T, error) {
	if ext := strings.ToLower(filepath.Ext(name)); ext == ".yaml" || ext == ".yml" {
		converted, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, &ConfigError{Path: name, Err: fmt.Errorf("convert yaml: %w", err)}
		}
		data = converted
	}

	schema, err := schemaFor(kind)
	if err != nil {
		return nil, err
	}
	if result := schema.ValidateJSON(data); !result.IsValid() {
		return nil, &ConfigError{Path: name, Err: fmt.Errorf("schema validation failed: %v", result.Errors)}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, &ConfigError{Path: name, Err: err}
		}
		return items, nil
	}
	var item T
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return nil, &ConfigError{Path: name, Err: err}
	}
	return []T{item}, nil
}

// LoadFolder decodes every rule document below dir, in lexical path order.
// A missing directory yields no rules. Failing documents are reported
// together after the walk; the rules of valid documents are still returned.
func LoadFolder[T any](kind Kind, dir string) ([]T, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, nil
	}

	var (
		items []T
		errs  []error
	)
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsRuleFile(path) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))
			return nil
		}
		decoded, err := DecodeDocument[T](kind, path, data)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		items = append(items, decoded...)
		return nil
	})
	if walkErr != nil {
		errs = append(errs, fmt.Errorf("walk %s: %w", dir, walkErr))
	}
	return items, errors.Join(errs...)
}
