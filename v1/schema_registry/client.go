package schema_registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const contentType = "application/vnd.schemaregistry.v1+json"

// Client is the default implementation of API
// that communicates with a Confluent compatible Schema Registry over HTTP.
type Client struct {
	url        string
	httpClient *http.Client

	// Authentication
	username string
	password string
}

// NewClient creates a new schema registry client
// Returns the concrete *Client type.
func NewClient(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("schema registry URL is required")
	}

	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		url: strings.TrimRight(config.URL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		username: config.Username,
		password: config.Password,
	}, nil
}

// schemaPayload is the body of schema lookups and registrations.
type schemaPayload struct {
	Schema     string      `json:"schema"`
	SchemaType string      `json:"schemaType,omitempty"`
	References []Reference `json:"references,omitempty"`
}

func (p schemaPayload) toSchema() (Schema, error) {
	t, err := ParseSchemaType(p.SchemaType)
	if err != nil {
		return Schema{}, err
	}
	return Schema{Type: t, Schema: p.Schema, References: p.References}, nil
}

func newSchemaPayload(schema Schema) schemaPayload {
	p := schemaPayload{Schema: schema.Schema, References: schema.References}
	// The registry omits schemaType for Avro.
	if schema.Type != "" && schema.Type != SchemaTypeAvro {
		p.SchemaType = string(schema.Type)
	}
	return p
}

// SchemaByID retrieves a schema from the registry by its ID
func (c *Client) SchemaByID(ctx context.Context, id int) (Schema, error) {
	var result schemaPayload
	if err := c.do(ctx, http.MethodGet, "/schemas/ids/"+strconv.Itoa(id), nil, &result); err != nil {
		return Schema{}, err
	}
	return result.toSchema()
}

// SchemaByVersion retrieves one version of a subject; LatestVersion selects the newest.
func (c *Client) SchemaByVersion(ctx context.Context, subject string, version int) (SubjectSchema, error) {
	v := strconv.Itoa(version)
	if version == LatestVersion {
		v = "latest"
	}

	var result struct {
		Subject string `json:"subject"`
		Version int    `json:"version"`
		ID      int    `json:"id"`
		schemaPayload
	}
	if err := c.do(ctx, http.MethodGet, "/subjects/"+url.PathEscape(subject)+"/versions/"+v, nil, &result); err != nil {
		return SubjectSchema{}, err
	}

	schema, err := result.toSchema()
	if err != nil {
		return SubjectSchema{}, err
	}
	if result.Subject == "" {
		result.Subject = subject
	}
	return SubjectSchema{Subject: result.Subject, Version: result.Version, ID: result.ID, Schema: schema}, nil
}

// Compatibility returns the compatibility level configured for subject.
func (c *Client) Compatibility(ctx context.Context, subject string) (Compatibility, error) {
	var result struct {
		CompatibilityLevel string `json:"compatibilityLevel"`
	}
	if err := c.do(ctx, http.MethodGet, "/config/"+url.PathEscape(subject), nil, &result); err != nil {
		return "", err
	}
	return Compatibility(strings.ToUpper(result.CompatibilityLevel)), nil
}

// SetCompatibility configures the compatibility level of subject.
func (c *Client) SetCompatibility(ctx context.Context, subject string, level Compatibility) error {
	body := map[string]string{"compatibility": string(level)}
	return c.do(ctx, http.MethodPut, "/config/"+url.PathEscape(subject), body, nil)
}

// CreateSchema registers a new schema with the schema registry
func (c *Client) CreateSchema(ctx context.Context, subject string, schema Schema) (SubjectSchema, error) {
	var result struct {
		ID int `json:"id"`
	}
	path := "/subjects/" + url.PathEscape(subject) + "/versions"
	if err := c.do(ctx, http.MethodPost, path, newSchemaPayload(schema), &result); err != nil {
		return SubjectSchema{}, err
	}
	return SubjectSchema{Subject: subject, ID: result.ID, Schema: schema}, nil
}

// CheckCompatibility checks if a schema is compatible with the existing schema for a subject
func (c *Client) CheckCompatibility(ctx context.Context, subject string, schema Schema) (bool, error) {
	var result struct {
		IsCompatible bool `json:"is_compatible"`
	}
	path := "/compatibility/subjects/" + url.PathEscape(subject) + "/versions/latest"
	if err := c.do(ctx, http.MethodPost, path, newSchemaPayload(schema), &result); err != nil {
		return false, err
	}
	return result.IsCompatible, nil
}

// do sends one request and decodes a 2xx JSON answer into out. Any other status
// becomes a *ResponseError.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := c.url + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	req.Header.Set("Accept", contentType)
	if in != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call schema registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respErr := &ResponseError{Method: method, URL: endpoint, StatusCode: resp.StatusCode}
		respBody, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(respBody, respErr) != nil || respErr.Message == "" {
			respErr.Message = strings.TrimSpace(string(respBody))
		}
		return respErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

var _ API = (*Client)(nil)

// DefaultTimeout bounds every HTTP request when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second
