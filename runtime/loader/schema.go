package loader

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	sequenceSchema  = "sequence.json"
	resourcesSchema = "resources.json"
)

// schemaCache compiles each embedded schema once.
type schemaCache struct {
	mu      sync.Mutex
	schemas map[string]*jsonschema.Schema
}

var schemas = &schemaCache{schemas: map[string]*jsonschema.Schema{}}

func (c *schemaCache) get(name string) (*jsonschema.Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.schemas[name]; ok {
		return s, nil
	}
	s, err := compileSchema(name)
	if err != nil {
		return nil, err
	}
	c.schemas[name] = s
	return s, nil
}

func compileSchema(name string) (*jsonschema.Schema, error) {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if compiler.Formats == nil {
		compiler.Formats = make(map[string]func(interface{}) bool)
	}
	compiler.Formats["semver"] = isSemver

	// Documents never pull schemas from elsewhere.
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("$ref to %s not allowed", url)
	}

	url := "schema://" + name
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	s, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return s, nil
}

// validate checks a raw document against one of the embedded schemas.
func validate(name string, data []byte) error {
	s, err := schemas.get(name)
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return s.Validate(doc)
}

func isSemver(v interface{}) bool {
	s, ok := v.(string)
	if !ok {
		return true // Type validation happens separately
	}
	return semver.IsValid(canonicalVersion(s))
}

// canonicalVersion accepts versions with and without the "v" prefix that
// semver requires.
func canonicalVersion(s string) string {
	if !strings.HasPrefix(s, "v") {
		s = "v" + s
	}
	return s
}
