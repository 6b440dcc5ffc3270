package schema_registry

import (
	"context"
	"fmt"
)

// Resolver loads the schemas a schema references, transitively.
type Resolver struct {
	api API
}

// NewResolver returns a resolver fetching through api.
func NewResolver(api API) *Resolver {
	return &Resolver{api: api}
}

type resolveState struct {
	fetched  map[string]Schema
	emitted  map[string]bool
	visiting map[string]bool
	out      []ResolvedReference
}

// Resolve returns every schema reachable through schema.References, leaves first.
// A subject/version reachable through several paths is fetched once. Every call
// builds new values, so callers may modify the result freely.
//
// A reference the registry does not know or that leads back to itself fails
// with *ArgumentError, wrapping the not-found response. Other registry failures
// are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, schema Schema) ([]ResolvedReference, error) {
	state := &resolveState{
		fetched:  make(map[string]Schema),
		emitted:  make(map[string]bool),
		visiting: make(map[string]bool),
	}
	if err := r.resolve(ctx, schema.References, state); err != nil {
		return nil, err
	}
	return state.out, nil
}

func (r *Resolver) resolve(ctx context.Context, refs []Reference, state *resolveState) error {
	for _, ref := range refs {
		key := referenceKey(ref)
		if state.visiting[key] {
			return newArgumentError("circular reference %q (subject %q, version %d)", ref.Name, ref.Subject, ref.Version)
		}

		body, ok := state.fetched[key]
		if !ok {
			stored, err := r.api.SchemaByVersion(ctx, ref.Subject, ref.Version)
			if err != nil {
				if !IsNotFound(err) {
					return err
				}
				return wrapArgumentError(err, "reference %q not found at subject %q version %d", ref.Name, ref.Subject, ref.Version)
			}
			body = copySchema(stored.Schema)
			if body.Type == "" {
				body.Type = SchemaTypeAvro
			}
			state.fetched[key] = body

			state.visiting[key] = true
			if err := r.resolve(ctx, body.References, state); err != nil {
				return err
			}
			delete(state.visiting, key)
		}

		emitKey := ref.Name + "\x00" + key
		if state.emitted[emitKey] {
			continue
		}
		state.emitted[emitKey] = true
		state.out = append(state.out, ResolvedReference{Reference: ref, Schema: copySchema(body)})
	}
	return nil
}

func referenceKey(ref Reference) string {
	return fmt.Sprintf("%s:%d", ref.Subject, ref.Version)
}

func copySchema(s Schema) Schema {
	if s.References != nil {
		s.References = append([]Reference(nil), s.References...)
	}
	return s
}
