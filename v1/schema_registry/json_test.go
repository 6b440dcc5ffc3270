package schema_registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonPerson = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"title": "Person",
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"age": {"type": "integer", "minimum": 0}
	},
	"required": ["name"]
}`

func parseJSON(t *testing.T, definition string, refs []ResolvedReference, opts SchemaOptions) *JSONSchema {
	t.Helper()
	parsed, err := jsonAdapter{}.Parse(NewJSONSchema(definition), refs, opts)
	require.NoError(t, err)
	require.NoError(t, jsonAdapter{}.Validate(parsed))
	return parsed.(*JSONSchema)
}

func TestJSONRoundTrip(t *testing.T) {
	s := parseJSON(t, jsonPerson, nil, SchemaOptions{})

	data, err := jsonAdapter{}.ToBytes(s, map[string]interface{}{"name": "ada", "age": 36})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"ada","age":36}`, string(data))

	decoded, err := jsonAdapter{}.FromBytes(s, data)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "ada", "age": float64(36)}, decoded)
}

func TestJSONValidationIssues(t *testing.T) {
	s := parseJSON(t, jsonPerson, nil, SchemaOptions{})

	_, err := jsonAdapter{}.ToBytes(s, map[string]interface{}{"name": 5, "age": -1})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, [][]string{{"/name"}, {"/age"}}, verr.Paths())
	for _, issue := range verr.Issues {
		assert.Len(t, issue.Path, 1)
		assert.NotEmpty(t, issue.Schema)
		if issue.Path[0] == "/age" {
			assert.Equal(t, "-1", issue.Value.(interface{ String() string }).String())
		}
	}
}

func TestJSONFromBytesValidates(t *testing.T) {
	s := parseJSON(t, jsonPerson, nil, SchemaOptions{})

	_, err := jsonAdapter{}.FromBytes(s, []byte(`{"age": 3}`))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, [][]string{{""}}, verr.Paths())
}

func TestJSONReferencesRegisteredByID(t *testing.T) {
	refs := []ResolvedReference{
		{
			Reference: Reference{Name: "address.json", Subject: "address", Version: 1},
			Schema: NewJSONSchema(`{
				"$id": "https://example.com/address.json",
				"type": "object",
				"properties": {"city": {"type": "string"}},
				"required": ["city"]
			}`),
		},
		{
			Reference: Reference{Name: "country.json", Subject: "country", Version: 1},
			Schema:    NewJSONSchema(`{"type": "string", "minLength": 2}`),
		},
	}
	s := parseJSON(t, `{
		"type": "object",
		"properties": {
			"home": {"$ref": "https://example.com/address.json"},
			"country": {"$ref": "country.json"}
		}
	}`, refs, SchemaOptions{})

	_, err := jsonAdapter{}.ToBytes(s, map[string]interface{}{
		"home":    map[string]interface{}{"city": "Berlin"},
		"country": "DE",
	})
	require.NoError(t, err)

	_, err = jsonAdapter{}.ToBytes(s, map[string]interface{}{
		"home":    map[string]interface{}{},
		"country": "D",
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, [][]string{{"/home"}, {"/country"}}, verr.Paths())
}

func TestJSONReusesSuppliedCompiler(t *testing.T) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	s := parseJSON(t, `{"type":"string","format":"email"}`, nil, SchemaOptions{JSON: JSONOptions{Compiler: compiler}})
	_, err := jsonAdapter{}.ToBytes(s, "not-an-email")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	lenient := parseJSON(t, `{"type":"string","format":"email"}`, nil, SchemaOptions{})
	_, err = jsonAdapter{}.ToBytes(lenient, "not-an-email")
	require.NoError(t, err)
}

func TestJSONParseRejectsInvalidSchema(t *testing.T) {
	_, err := jsonAdapter{}.Parse(NewJSONSchema(`{"type": 12}`), nil, SchemaOptions{})
	var argErr *ArgumentError
	require.True(t, errors.As(err, &argErr))

	_, err = jsonAdapter{}.Parse(NewJSONSchema(`{"$ref": "missing.json"}`), nil, SchemaOptions{})
	require.True(t, errors.As(err, &argErr))
}

func TestNormalizeJSONPath(t *testing.T) {
	cases := map[string]string{
		"":          "",
		"/a/b":      "/a/b",
		".a.b":      "/a/b",
		".list[0]":  "/list/0",
		"['a/b'].c": "/a~1b/c",
		"#/items/0": "/items/0",
		"plain":     "/plain",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeJSONPath(in), "input %q", in)
	}
}

func TestJSONSubjectFor(t *testing.T) {
	subject, err := jsonAdapter{}.SubjectFor(NewJSONSchema(jsonPerson), ".")
	require.NoError(t, err)
	assert.Equal(t, "Person", subject)

	subject, err = jsonAdapter{}.SubjectFor(NewJSONSchema(`{"$id":"https://example.com/person.json","title":"Person"}`), ".")
	require.NoError(t, err)
	assert.Equal(t, "Person", subject, "title wins over $id")

	subject, err = jsonAdapter{}.SubjectFor(NewJSONSchema(`{"$id":"https://example.com/person.json"}`), ".")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/person.json", subject)

	_, err = jsonAdapter{}.SubjectFor(NewJSONSchema(`{"type":"string"}`), ".")
	var argErr *ArgumentError
	require.True(t, errors.As(err, &argErr))
}

func TestJSONEqual(t *testing.T) {
	compact := strings.Join(strings.Fields(jsonPerson), "")
	assert.True(t, jsonAdapter{}.Equal(jsonPerson, compact))
	assert.False(t, jsonAdapter{}.Equal(jsonPerson, `{"type":"object"}`))
}

func TestJSONSharedCompilerConcurrentParses(t *testing.T) {
	opts := SchemaOptions{JSON: JSONOptions{Compiler: jsonschema.NewCompiler()}}

	const workers = 32
	var wg sync.WaitGroup
	parsed := make([]ParsedSchema, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			definition := fmt.Sprintf(`{"type":"object","properties":{"n":{"const":%d}},"required":["n"]}`, i)
			parsed[i], errs[i] = jsonAdapter{}.Parse(NewJSONSchema(definition), nil, opts)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		_, err := jsonAdapter{}.ToBytes(parsed[i], map[string]interface{}{"n": i})
		require.NoError(t, err, "schema %d", i)
		_, err = jsonAdapter{}.ToBytes(parsed[i], map[string]interface{}{"n": i + 1})
		require.Error(t, err, "schema %d", i)
	}
}

func TestJSONSharedCompilerReparsesSameSchema(t *testing.T) {
	opts := SchemaOptions{JSON: JSONOptions{Compiler: jsonschema.NewCompiler()}}

	first := parseJSON(t, jsonPerson, nil, opts)
	second := parseJSON(t, jsonPerson, nil, opts)

	_, err := jsonAdapter{}.ToBytes(second, map[string]interface{}{"name": "ada"})
	require.NoError(t, err)
	_, err = jsonAdapter{}.ToBytes(first, map[string]interface{}{"age": 1})
	require.Error(t, err)
}
