package schema_registry

import "time"

const (
	// ClientHTTP selects the built-in HTTP client.
	ClientHTTP = "http"

	// ClientFranz selects the franz-go sr.Client.
	ClientFranz = "franz"
)

// Config holds configuration for the schema registry client and facade
type Config struct {
	// URL is the schema registry endpoint (e.g., "http://localhost:8081")
	URL string `yaml:"url" envconfig:"SCHEMA_REGISTRY_URL"`

	// Username for basic auth (optional)
	Username string `yaml:"username" envconfig:"SCHEMA_REGISTRY_USERNAME"`

	// Password for basic auth (optional)
	Password string `yaml:"password" envconfig:"SCHEMA_REGISTRY_PASSWORD"`

	// Timeout for HTTP requests. Defaults to 10s.
	Timeout time.Duration `yaml:"timeout" envconfig:"SCHEMA_REGISTRY_TIMEOUT"`

	// Client selects the API implementation: "http" (default) or "franz".
	Client string `yaml:"client" envconfig:"SCHEMA_REGISTRY_CLIENT"`

	// SubjectSeparator joins namespace and name when a subject is derived. Defaults to ".".
	SubjectSeparator string `yaml:"subject_separator" envconfig:"SCHEMA_REGISTRY_SUBJECT_SEPARATOR"`

	// Compatibility is the level Register expects subjects to have. Defaults to BACKWARD.
	Compatibility string `yaml:"compatibility" envconfig:"SCHEMA_REGISTRY_COMPATIBILITY"`

	// ProtobufMessageName selects the message encoded for Protobuf schemas.
	ProtobufMessageName string `yaml:"protobuf_message_name" envconfig:"SCHEMA_REGISTRY_PROTOBUF_MESSAGE_NAME"`
}

// RegisterOptions returns the register options implied by the configuration.
func (c Config) RegisterOptions(subject string) RegisterOptions {
	return RegisterOptions{
		Subject:       subject,
		Compatibility: Compatibility(c.Compatibility),
		Separator:     c.SubjectSeparator,
	}
}

// SchemaOptions returns the adapter options implied by the configuration.
func (c Config) SchemaOptions() SchemaOptions {
	return SchemaOptions{Protobuf: ProtobufOptions{MessageName: c.ProtobufMessageName}}
}

// NewAPI builds the API implementation selected by c.Client.
func NewAPI(c Config) (API, error) {
	switch c.Client {
	case "", ClientHTTP:
		client, err := NewClient(c)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ClientFranz:
		client, err := NewFranzClientFromConfig(c)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return nil, newArgumentError("unknown schema registry client %q", c.Client)
}
