package schema_registry

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// jsonResourceBase is the base URL of every schema added to a compiler.
const jsonResourceBase = "mem://schema-registry/"

// jsonCompilerLocks serializes parses that share a caller-supplied compiler.
var jsonCompilerLocks sync.Map

// JSONOptions configures the JSON Schema adapter.
type JSONOptions struct {
	// Compiler, when set, is reused for every parse so callers can register custom
	// formats, extensions or loaders. Parses using it are serialized. Every
	// referenced schema and every distinct root schema stays registered in it.
	Compiler *jsonschema.Compiler

	// Draft is the default draft for schemas without "$schema". Ignored when Compiler is set.
	Draft *jsonschema.Draft

	// AssertFormat turns "format" into an assertion. Ignored when Compiler is set.
	AssertFormat bool
}

func (o JSONOptions) compiler() *jsonschema.Compiler {
	if o.Compiler != nil {
		return o.Compiler
	}
	c := jsonschema.NewCompiler()
	if o.Draft != nil {
		c.Draft = o.Draft
	}
	c.AssertFormat = o.AssertFormat
	c.LoadURL = func(s string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("schema %q is not registered as a reference", s)
	}
	return c
}

// JSONSchema is a compiled JSON Schema validator.
type JSONSchema struct {
	definition string
	compiled   *jsonschema.Schema
}

// SchemaType implements ParsedSchema.
func (s *JSONSchema) SchemaType() SchemaType { return SchemaTypeJSON }

// Definition implements ParsedSchema.
func (s *JSONSchema) Definition() string { return s.definition }

// Compiled returns the underlying validator.
func (s *JSONSchema) Compiled() *jsonschema.Schema { return s.compiled }

type jsonAdapter struct{}

func (jsonAdapter) Type() SchemaType { return SchemaTypeJSON }

func (jsonAdapter) Parse(schema Schema, refs []ResolvedReference, opts SchemaOptions) (ParsedSchema, error) {
	c := opts.JSON.compiler()
	if c == opts.JSON.Compiler {
		mu, _ := jsonCompilerLocks.LoadOrStore(c, &sync.Mutex{})
		mu.(*sync.Mutex).Lock()
		defer mu.(*sync.Mutex).Unlock()
	}

	for _, ref := range refs {
		location, err := jsonReferenceURL(ref)
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(location, strings.NewReader(ref.Schema.Schema)); err != nil {
			return nil, wrapArgumentError(err, "invalid referenced json schema %q", ref.Name)
		}
	}

	sum := sha256.Sum256([]byte(schema.Schema))
	root := jsonResourceBase + "root-" + hex.EncodeToString(sum[:]) + ".json"
	if err := c.AddResource(root, strings.NewReader(schema.Schema)); err != nil {
		return nil, wrapArgumentError(err, "invalid json schema")
	}
	compiled, err := c.Compile(root)
	if err != nil {
		return nil, wrapArgumentError(err, "invalid json schema")
	}
	return &JSONSchema{definition: schema.Schema, compiled: compiled}, nil
}

// jsonReferenceURL returns the location a referenced schema is registered under:
// its "$id" when it declares one, the reference name otherwise. Relative
// locations resolve against jsonResourceBase.
func jsonReferenceURL(ref ResolvedReference) (string, error) {
	var attrs map[string]interface{}
	if err := json.Unmarshal([]byte(ref.Schema.Schema), &attrs); err != nil {
		return "", wrapArgumentError(err, "invalid referenced json schema %q", ref.Name)
	}
	location := ref.Name
	if id, ok := attrs["$id"].(string); ok && id != "" {
		location = id
	}

	base, _ := url.Parse(jsonResourceBase)
	u, err := url.Parse(location)
	if err != nil {
		return "", wrapArgumentError(err, "invalid reference location %q", location)
	}
	return base.ResolveReference(u).String(), nil
}

func (jsonAdapter) Validate(parsed ParsedSchema) error {
	if _, ok := parsed.(*JSONSchema); !ok {
		return mismatchedSchema(SchemaTypeJSON, parsed)
	}
	return nil
}

func (jsonAdapter) ToBytes(parsed ParsedSchema, payload interface{}) ([]byte, error) {
	s, ok := parsed.(*JSONSchema)
	if !ok {
		return nil, mismatchedSchema(SchemaTypeJSON, parsed)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, newValidationError(err.Error(), []ValidationIssue{{Path: []string{""}, Value: payload}})
	}
	if err := s.validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (jsonAdapter) FromBytes(parsed ParsedSchema, data []byte) (interface{}, error) {
	s, ok := parsed.(*JSONSchema)
	if !ok {
		return nil, mismatchedSchema(SchemaTypeJSON, parsed)
	}
	if err := s.validate(data); err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode json payload: %w", err)
	}
	return out, nil
}

func (s *JSONSchema) validate(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return newValidationError("payload is not valid json: "+err.Error(), []ValidationIssue{{Path: []string{""}}})
	}

	err := s.compiled.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("validate json payload: %w", err)
	}

	var issues []ValidationIssue
	for _, leaf := range jsonLeafErrors(verr) {
		path := normalizeJSONPath(leaf.InstanceLocation)
		issues = append(issues, ValidationIssue{
			Path:   []string{path},
			Value:  lookupJSONPointer(doc, path),
			Schema: leaf.KeywordLocation,
		})
	}
	return newValidationError(verr.Message, issues)
}

func jsonLeafErrors(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var leaves []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		leaves = append(leaves, jsonLeafErrors(cause)...)
	}
	return leaves
}

// normalizeJSONPath turns a dot path (".a.b", "a[0]") or a JSON pointer ("/a/b")
// into a JSON pointer.
func normalizeJSONPath(location string) string {
	if location == "" || strings.HasPrefix(location, "/") {
		return location
	}
	if strings.HasPrefix(location, "#") {
		return strings.TrimPrefix(location, "#")
	}
	replacer := strings.NewReplacer("[", ".", "]", "", "'", "", "\"", "")
	var b strings.Builder
	for _, token := range strings.Split(replacer.Replace(location), ".") {
		if token == "" {
			continue
		}
		token = strings.ReplaceAll(token, "~", "~0")
		token = strings.ReplaceAll(token, "/", "~1")
		b.WriteString("/")
		b.WriteString(token)
	}
	return b.String()
}

func lookupJSONPointer(doc interface{}, pointer string) interface{} {
	if pointer == "" {
		return doc
	}
	current := doc
	for _, token := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		token = strings.ReplaceAll(token, "~1", "/")
		token = strings.ReplaceAll(token, "~0", "~")
		switch v := current.(type) {
		case map[string]interface{}:
			current = v[token]
		case []interface{}:
			i, err := strconv.Atoi(token)
			if err != nil || i < 0 || i >= len(v) {
				return nil
			}
			current = v[i]
		default:
			return nil
		}
	}
	return current
}

// SubjectFor uses "title", then "$id".
func (jsonAdapter) SubjectFor(schema Schema, _ string) (string, error) {
	var attrs map[string]interface{}
	if err := json.Unmarshal([]byte(schema.Schema), &attrs); err != nil {
		return "", wrapArgumentError(err, "invalid json schema")
	}
	if title, ok := attrs["title"].(string); ok && title != "" {
		return title, nil
	}
	if id, ok := attrs["$id"].(string); ok && id != "" {
		return id, nil
	}
	return "", newArgumentError("invalid json schema: a subject is required when the schema has neither title nor $id")
}

func (jsonAdapter) Equal(a, b string) bool {
	return jsonEqual(a, b)
}

func (jsonAdapter) MessageIndexes(ParsedSchema) []int { return nil }
