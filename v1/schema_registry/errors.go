package schema_registry

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound matches any ResponseError carrying HTTP 404.
//
//	if errors.Is(err, schema_registry.ErrNotFound) { ... }
var ErrNotFound = errors.New("not found")

// ArgumentError reports bad caller input: a missing id, a malformed buffer, a schema
// missing a required attribute or a reference that cannot be resolved.
type ArgumentError struct {
	Message string
	Err     error
}

func newArgumentError(format string, args ...interface{}) *ArgumentError {
	return &ArgumentError{Message: fmt.Sprintf(format, args...)}
}

func wrapArgumentError(err error, format string, args ...interface{}) *ArgumentError {
	return &ArgumentError{Message: fmt.Sprintf(format, args...), Err: err}
}

// Name returns the stable error name.
func (e *ArgumentError) Name() string { return "ArgumentError" }

func (e *ArgumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Name(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Name(), e.Message)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

// ValidationIssue is one offending location inside a payload.
type ValidationIssue struct {
	// Path locates the offending value. Avro and Protobuf report one element per
	// field or index; JSON Schema reports a single instance location.
	Path []string

	// Value is the offending value when the validator reports it.
	Value interface{}

	// Schema is the schema fragment (keyword location or type) that rejected Value.
	Schema string
}

// ValidationError reports a payload that does not satisfy its schema.
type ValidationError struct {
	Message string
	Issues  []ValidationIssue
}

func newValidationError(message string, issues []ValidationIssue) *ValidationError {
	return &ValidationError{Message: message, Issues: issues}
}

// Name returns the stable error name.
func (e *ValidationError) Name() string { return "ValidationError" }

func (e *ValidationError) Error() string {
	paths := e.Paths()
	parts := make([]string, 0, len(paths))
	for _, p := range paths {
		parts = append(parts, strings.Join(p, "."))
	}
	return fmt.Sprintf("%s: %s (invalid paths: %s)", e.Name(), e.Message, strings.Join(parts, ", "))
}

// Paths returns the path of every issue.
func (e *ValidationError) Paths() [][]string {
	paths := make([][]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		paths = append(paths, issue.Path)
	}
	return paths
}

// CompatibilityError reports a subject whose registry-side compatibility level
// differs from the level requested by the caller.
type CompatibilityError struct {
	Subject   string
	Requested Compatibility
	Actual    Compatibility
}

// Name returns the stable error name.
func (e *CompatibilityError) Name() string { return "CompatibilityError" }

func (e *CompatibilityError) Error() string {
	return fmt.Sprintf("%s: compatibility does not match the configuration for subject %q (%s != %s)",
		e.Name(), e.Subject, e.Requested, e.Actual)
}

// ResponseError is a non-2xx answer from the registry. It is surfaced unchanged by
// the registry facade except for the 404 on subject configuration lookups.
type ResponseError struct {
	Method     string
	URL        string
	StatusCode int
	ErrorCode  int    `json:"error_code"`
	Message    string `json:"message"`
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("schema registry returned status %d for %s %s", e.StatusCode, e.Method, e.URL)
	}
	return fmt.Sprintf("schema registry returned status %d for %s %s: %s", e.StatusCode, e.Method, e.URL, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *ResponseError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsNotFound reports whether err is, or wraps, a 404 from the registry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
