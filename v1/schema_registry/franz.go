package schema_registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/twmb/franz-go/pkg/sr"
)

// FranzClient implements API on top of franz-go's schema registry client, for
// applications that already configure sr.Client (TLS, retries, user agent) for
// their Kafka stack.
type FranzClient struct {
	client *sr.Client
}

// NewFranzClient wraps an existing sr.Client.
func NewFranzClient(client *sr.Client) *FranzClient {
	return &FranzClient{client: client}
}

// NewFranzClientFromConfig builds an sr.Client from cfg.
func NewFranzClientFromConfig(cfg Config) (*FranzClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("schema registry URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	opts := []sr.ClientOpt{
		sr.URLs(cfg.URL),
		sr.HTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.Username != "" {
		opts = append(opts, sr.BasicAuth(cfg.Username, cfg.Password))
	}
	client, err := sr.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema registry client: %w", err)
	}
	return NewFranzClient(client), nil
}

// SchemaByID implements API.
func (c *FranzClient) SchemaByID(ctx context.Context, id int) (Schema, error) {
	s, err := c.client.SchemaByID(ctx, id)
	if err != nil {
		return Schema{}, fromFranzError(err)
	}
	return fromFranzSchema(s)
}

// SchemaByVersion implements API.
func (c *FranzClient) SchemaByVersion(ctx context.Context, subject string, version int) (SubjectSchema, error) {
	ss, err := c.client.SchemaByVersion(ctx, subject, version)
	if err != nil {
		return SubjectSchema{}, fromFranzError(err)
	}
	return fromFranzSubjectSchema(ss)
}

// Compatibility implements API.
func (c *FranzClient) Compatibility(ctx context.Context, subject string) (Compatibility, error) {
	results := c.client.Compatibility(ctx, subject)
	if len(results) == 0 {
		return "", fmt.Errorf("no compatibility result for subject %q", subject)
	}
	if err := results[0].Err; err != nil {
		return "", fromFranzError(err)
	}
	return Compatibility(results[0].Level.String()), nil
}

// SetCompatibility implements API.
func (c *FranzClient) SetCompatibility(ctx context.Context, subject string, level Compatibility) error {
	var l sr.CompatibilityLevel
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return wrapArgumentError(err, "unknown compatibility level %q", level)
	}
	results := c.client.SetCompatibility(ctx, sr.SetCompatibility{Level: l}, subject)
	for _, r := range results {
		if r.Err != nil {
			return fromFranzError(r.Err)
		}
	}
	return nil
}

// CreateSchema implements API.
func (c *FranzClient) CreateSchema(ctx context.Context, subject string, schema Schema) (SubjectSchema, error) {
	ss, err := c.client.CreateSchema(ctx, subject, toFranzSchema(schema))
	if err != nil {
		return SubjectSchema{}, fromFranzError(err)
	}
	out, err := fromFranzSubjectSchema(ss)
	if err != nil {
		return SubjectSchema{}, err
	}
	if out.Subject == "" {
		out.Subject = subject
	}
	return out, nil
}

func toFranzSchema(s Schema) sr.Schema {
	out := sr.Schema{Schema: s.Schema}
	switch s.Type {
	case SchemaTypeJSON:
		out.Type = sr.TypeJSON
	case SchemaTypeProtobuf:
		out.Type = sr.TypeProtobuf
	default:
		out.Type = sr.TypeAvro
	}
	for _, ref := range s.References {
		out.References = append(out.References, sr.SchemaReference{
			Name:    ref.Name,
			Subject: ref.Subject,
			Version: ref.Version,
		})
	}
	return out
}

func fromFranzSchema(s sr.Schema) (Schema, error) {
	t, err := ParseSchemaType(s.Type.String())
	if err != nil {
		return Schema{}, err
	}
	out := Schema{Type: t, Schema: s.Schema}
	for _, ref := range s.References {
		out.References = append(out.References, Reference{Name: ref.Name, Subject: ref.Subject, Version: ref.Version})
	}
	return out, nil
}

func fromFranzSubjectSchema(ss sr.SubjectSchema) (SubjectSchema, error) {
	schema, err := fromFranzSchema(ss.Schema)
	if err != nil {
		return SubjectSchema{}, err
	}
	return SubjectSchema{Subject: ss.Subject, Version: ss.Version, ID: ss.ID, Schema: schema}, nil
}

// fromFranzError converts franz-go response errors into *ResponseError so
// IsNotFound works for both API implementations.
func fromFranzError(err error) error {
	var re *sr.ResponseError
	if errors.As(err, &re) {
		return &ResponseError{
			StatusCode: re.StatusCode,
			ErrorCode:  re.ErrorCode,
			Message:    re.Message,
		}
	}
	return err
}

var _ API = (*FranzClient)(nil)
