package schema_registry

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"

	"github.com/Aleph-Alpha/schema-registry-client/v1/observability"
)

// Registry registers schemas and encodes and decodes framed messages.
//
// Parsed schemas are cached per registry id. Concurrent lookups of an id that is
// not cached yet share a single registry round-trip. A Registry is safe for
// concurrent use.
type Registry struct {
	api      API
	cache    *Cache
	resolver *Resolver
	options  SchemaOptions

	logger   Logger
	observer observability.Observer
	metrics  *registryMetrics
	tracer   trace.Tracer

	registerer     prometheus.Registerer
	tracerProvider trace.TracerProvider

	inflight singleflight.Group
}

// Option configures a Registry.
type Option func(*Registry)

// WithSchemaOptions sets the options handed to the adapters when parsing.
func WithSchemaOptions(opts SchemaOptions) Option {
	return func(r *Registry) { r.options = opts }
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver sets the observer notified after every operation.
func WithObserver(o observability.Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// WithMetrics registers the registry's Prometheus collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(r *Registry) { r.registerer = reg }
}

// WithTracerProvider sets the provider spans are created with.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Registry) { r.tracerProvider = tp }
}

// WithCache makes the registry use c, for example to share a pre-warmed cache.
func WithCache(c *Cache) Option {
	return func(r *Registry) {
		if c != nil {
			r.cache = c
		}
	}
}

// New returns a Registry talking to api.
func New(api API, opts ...Option) (*Registry, error) {
	if api == nil {
		return nil, fmt.Errorf("schema registry API is required")
	}

	r := &Registry{
		cache:    NewCache(),
		logger:   nopLogger{},
		observer: observability.NewNoOpObserver(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.registerer != nil {
		m, err := newRegistryMetrics(r.registerer)
		if err != nil {
			return nil, fmt.Errorf("failed to register schema registry metrics: %w", err)
		}
		r.metrics = m
	}
	if r.tracerProvider == nil {
		r.tracerProvider = noop.NewTracerProvider()
	}
	r.tracer = r.tracerProvider.Tracer(tracerName)

	r.api = instrumentedAPI{api: api, tracer: r.tracer, metrics: r.metrics}
	r.resolver = NewResolver(r.api)
	return r, nil
}

// Cache returns the cache backing the registry, for pre-warming or invalidation.
func (r *Registry) Cache() *Cache {
	return r.cache
}

// RegisterOptions configures Register.
type RegisterOptions struct {
	// Subject to register under. Derived from the schema when empty.
	Subject string

	// Compatibility the subject must be configured with. Defaults to BACKWARD.
	Compatibility Compatibility

	// Separator joins namespace and name of a derived subject. Defaults to ".".
	Separator string
}

// Register stores schema under a subject and returns its registry id.
//
// An unconfigured subject is configured with the requested compatibility first.
// A subject configured with a different level fails with *CompatibilityError and
// nothing is registered. Referenced schemas must already be registered.
func (r *Registry) Register(ctx context.Context, schema Schema, opts RegisterOptions) (result RegisteredSchema, err error) {
	start := time.Now()
	ctx, span := r.startSpan(ctx, "register")
	subject := opts.Subject
	defer func() {
		r.finish(span, "register", subject, strconv.Itoa(result.ID), start, err, 0,
			map[string]interface{}{"schema_type": string(schema.Type)})
	}()

	if schema.Type == "" {
		schema.Type = SchemaTypeAvro
	}
	if err = schema.validate(); err != nil {
		return RegisteredSchema{}, err
	}
	adapter, err := AdapterFor(schema.Type)
	if err != nil {
		return RegisteredSchema{}, err
	}

	compatibility := opts.Compatibility
	if compatibility == "" {
		compatibility = DefaultCompatibility
	}
	separator := opts.Separator
	if separator == "" {
		separator = DefaultSeparator
	}
	if subject == "" {
		if subject, err = adapter.SubjectFor(schema, separator); err != nil {
			return RegisteredSchema{}, err
		}
	}
	span.SetAttributes(attribute.String("schema_registry.subject", subject))

	if err = r.ensureCompatibility(ctx, subject, compatibility); err != nil {
		return RegisteredSchema{}, err
	}

	parsed, err := r.parse(ctx, schema)
	if err != nil {
		return RegisteredSchema{}, err
	}

	created, err := r.api.CreateSchema(ctx, subject, schema)
	if err != nil {
		r.logger.Error("failed to register schema", err, map[string]interface{}{"subject": subject})
		return RegisteredSchema{}, err
	}

	r.cache.SetLatestRegistryID(subject, created.ID)
	r.cache.SetSchema(created.ID, parsed)

	r.logger.Info("registered schema", nil, map[string]interface{}{
		"subject":     subject,
		"id":          created.ID,
		"schema_type": string(schema.Type),
	})
	return RegisteredSchema{ID: created.ID}, nil
}

func (r *Registry) ensureCompatibility(ctx context.Context, subject string, want Compatibility) error {
	level, err := r.api.Compatibility(ctx, subject)
	if err != nil {
		if !IsNotFound(err) {
			return err
		}
		r.logger.Info("subject has no compatibility configured, setting it", nil, map[string]interface{}{
			"subject":       subject,
			"compatibility": string(want),
		})
		return r.api.SetCompatibility(ctx, subject, want)
	}
	if !strings.EqualFold(string(level), string(want)) {
		return &CompatibilityError{Subject: subject, Requested: want, Actual: Compatibility(strings.ToUpper(string(level)))}
	}
	return nil
}

// parse resolves the references of schema and compiles it.
func (r *Registry) parse(ctx context.Context, schema Schema) (ParsedSchema, error) {
	adapter, err := AdapterFor(schema.Type)
	if err != nil {
		return nil, err
	}
	refs, err := r.resolver.Resolve(ctx, schema)
	if err != nil {
		return nil, err
	}
	parsed, err := adapter.Parse(schema, refs, r.options)
	if err != nil {
		return nil, err
	}
	if err := adapter.Validate(parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// GetSchema returns the parsed schema with the given registry id, fetching and
// compiling it on a cache miss.
func (r *Registry) GetSchema(ctx context.Context, id int) (parsed ParsedSchema, err error) {
	start := time.Now()
	ctx, span := r.startSpan(ctx, "get_schema", attribute.Int("schema_registry.id", id))
	hit := false
	defer func() {
		r.finish(span, "get_schema", "registry", strconv.Itoa(id), start, err, 0,
			map[string]interface{}{"cache_hit": hit})
	}()

	parsed, hit, err = r.getSchema(ctx, id)
	return parsed, err
}

func (r *Registry) getSchema(ctx context.Context, id int) (ParsedSchema, bool, error) {
	if s, ok := r.cache.GetSchema(id); ok {
		r.metrics.cacheLookup("schema", true)
		return s, true, nil
	}
	r.metrics.cacheLookup("schema", false)

	// The shared fetch outlives any single caller; each caller stops waiting
	// when its own context is done.
	fetchCtx := context.WithoutCancel(ctx)
	ch := r.inflight.DoChan(strconv.Itoa(id), func() (interface{}, error) {
		if s, ok := r.cache.GetSchema(id); ok {
			return s, nil
		}

		r.logger.Debug("schema cache miss, fetching from registry", nil, map[string]interface{}{"id": id})
		raw, err := r.api.SchemaByID(fetchCtx, id)
		if err != nil {
			return nil, err
		}
		parsed, err := r.parse(fetchCtx, raw)
		if err != nil {
			r.logger.Error("failed to parse schema fetched from registry", err, map[string]interface{}{"id": id})
			return nil, err
		}
		return r.cache.SetSchema(id, parsed), nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		if res.Shared {
			r.logger.Debug("schema fetch shared with concurrent callers", nil, map[string]interface{}{"id": id})
		}
		return res.Val.(ParsedSchema), false, nil
	}
}

// GetSchemaDefinition returns the schema text registered under id.
func (r *Registry) GetSchemaDefinition(ctx context.Context, id int) (string, error) {
	parsed, err := r.GetSchema(ctx, id)
	if err != nil {
		return "", err
	}
	return parsed.Definition(), nil
}

// Encode validates payload against the schema with the given registry id and
// returns it serialized and framed.
func (r *Registry) Encode(ctx context.Context, id int, payload interface{}) (out []byte, err error) {
	start := time.Now()
	ctx, span := r.startSpan(ctx, "encode", attribute.Int("schema_registry.id", id))
	defer func() {
		r.finish(span, "encode", "registry", strconv.Itoa(id), start, err, int64(len(out)), nil)
	}()

	if id == 0 {
		return nil, newArgumentError("invalid registry id: %d", id)
	}
	if id < math.MinInt32 || id > math.MaxInt32 {
		return nil, newArgumentError("invalid registry id: %d does not fit in 32 bits", id)
	}

	parsed, _, err := r.getSchema(ctx, id)
	if err != nil {
		return nil, err
	}
	adapter, err := AdapterFor(parsed.SchemaType())
	if err != nil {
		return nil, err
	}
	data, err := adapter.ToBytes(parsed, payload)
	if err != nil {
		return nil, err
	}
	return EncodeMessage(int32(id), data, adapter.MessageIndexes(parsed)...), nil
}

// Decode unframes buf and deserializes its payload with the schema it names.
func (r *Registry) Decode(ctx context.Context, buf []byte) (out interface{}, err error) {
	start := time.Now()
	ctx, span := r.startSpan(ctx, "decode")
	var id int32
	defer func() {
		r.finish(span, "decode", "registry", strconv.Itoa(int(id)), start, err, int64(len(buf)), nil)
	}()

	msg, err := DecodeMessage(buf)
	if err != nil {
		return nil, err
	}
	if err = checkMagicByte(msg.MagicByte); err != nil {
		return nil, err
	}
	id = msg.RegistryID
	span.SetAttributes(attribute.Int("schema_registry.id", int(id)))

	parsed, _, err := r.getSchema(ctx, int(id))
	if err != nil {
		return nil, err
	}
	adapter, err := AdapterFor(parsed.SchemaType())
	if err != nil {
		return nil, err
	}
	return adapter.FromBytes(parsed, msg.Payload)
}

// GetRegistryIDBySchema returns the id of the latest version of subject when its
// definition equals schema, and an *ArgumentError otherwise.
func (r *Registry) GetRegistryIDBySchema(ctx context.Context, subject string, schema Schema) (id int, err error) {
	start := time.Now()
	ctx, span := r.startSpan(ctx, "get_registry_id_by_schema", attribute.String("schema_registry.subject", subject))
	defer func() {
		r.finish(span, "get_registry_id_by_schema", subject, strconv.Itoa(id), start, err, 0, nil)
	}()

	if schema.Type == "" {
		schema.Type = SchemaTypeAvro
	}
	adapter, err := AdapterFor(schema.Type)
	if err != nil {
		return 0, err
	}

	latest, err := r.api.SchemaByVersion(ctx, subject, LatestVersion)
	if err != nil {
		if IsNotFound(err) {
			return 0, wrapArgumentError(err, "schema not found under subject %q", subject)
		}
		return 0, err
	}
	if latest.Type != schema.Type || !adapter.Equal(latest.Schema.Schema, schema.Schema) {
		return 0, newArgumentError("schema not found under subject %q", subject)
	}
	return latest.ID, nil
}

// GetLatestSchemaID returns the id of the newest version of subject and records
// it in the cache.
func (r *Registry) GetLatestSchemaID(ctx context.Context, subject string) (id int, err error) {
	start := time.Now()
	ctx, span := r.startSpan(ctx, "get_latest_schema_id", attribute.String("schema_registry.subject", subject))
	defer func() {
		r.finish(span, "get_latest_schema_id", subject, strconv.Itoa(id), start, err, 0, nil)
	}()

	latest, err := r.api.SchemaByVersion(ctx, subject, LatestVersion)
	if err != nil {
		return 0, err
	}
	r.cache.SetLatestRegistryID(subject, latest.ID)
	return latest.ID, nil
}

// LatestSchemaID returns the latest id of subject recorded in the cache, asking
// the registry only on a miss. The cached id is the one last seen by Register
// or GetLatestSchemaID; call GetLatestSchemaID to refresh it.
func (r *Registry) LatestSchemaID(ctx context.Context, subject string) (int, error) {
	if id, ok := r.cache.GetLatestRegistryID(subject); ok {
		r.metrics.cacheLookup("latest", true)
		return id, nil
	}
	r.metrics.cacheLookup("latest", false)
	return r.GetLatestSchemaID(ctx, subject)
}

// GetRegistryID returns the id of one version of subject.
func (r *Registry) GetRegistryID(ctx context.Context, subject string, version int) (id int, err error) {
	start := time.Now()
	ctx, span := r.startSpan(ctx, "get_registry_id",
		attribute.String("schema_registry.subject", subject),
		attribute.Int("schema_registry.version", version))
	defer func() {
		r.finish(span, "get_registry_id", subject, strconv.Itoa(version), start, err, 0, nil)
	}()

	ss, err := r.api.SchemaByVersion(ctx, subject, version)
	if err != nil {
		return 0, err
	}
	return ss.ID, nil
}

func (r *Registry) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "schema_registry."+operation, trace.WithAttributes(attrs...))
}

func (r *Registry) finish(span trace.Span, operation, resource, subResource string, start time.Time, err error, size int64, metadata map[string]interface{}) {
	endSpan(span, err)
	r.metrics.observeDuration(operation, start)
	r.observeOperation(operation, resource, subResource, time.Since(start), err, size, metadata)
}
