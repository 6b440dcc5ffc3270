package schema_registry

import "context"

//go:generate mockgen -source=api.go -destination=mock_api.go -package=schema_registry

// API is the subset of the schema registry REST API the Registry depends on.
//
// Implementations surface registry failures as *ResponseError (or an error that
// wraps one) so a 404 can be told apart with IsNotFound. Retries and timeouts
// are the implementation's business.
type API interface {
	// SchemaByID fetches GET /schemas/ids/{id}.
	SchemaByID(ctx context.Context, id int) (Schema, error)

	// SchemaByVersion fetches GET /subjects/{subject}/versions/{version}. Version
	// LatestVersion selects the newest version.
	SchemaByVersion(ctx context.Context, subject string, version int) (SubjectSchema, error)

	// Compatibility fetches GET /config/{subject}.
	Compatibility(ctx context.Context, subject string) (Compatibility, error)

	// SetCompatibility sends PUT /config/{subject}.
	SetCompatibility(ctx context.Context, subject string, level Compatibility) error

	// CreateSchema sends POST /subjects/{subject}/versions and returns the stored
	// schema with its id.
	CreateSchema(ctx context.Context, subject string, schema Schema) (SubjectSchema, error)
}
