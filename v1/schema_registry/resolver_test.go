package schema_registry

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func subjectSchema(subject string, version, id int, schema Schema) SubjectSchema {
	return SubjectSchema{Subject: subject, Version: version, ID: id, Schema: schema}
}

func TestResolverOrdersLeavesFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMockAPI(ctrl)
	ctx := context.Background()

	c := NewAvroSchema(`{"type":"record","namespace":"t","name":"C","fields":[]}`)
	b := NewAvroSchema(`{"type":"record","namespace":"t","name":"B","fields":[{"name":"c","type":"t.C"}]}`,
		Reference{Name: "t.C", Subject: "C", Version: 1})
	d := NewAvroSchema(`{"type":"record","namespace":"t","name":"D","fields":[{"name":"c","type":"t.C"}]}`,
		Reference{Name: "t.C", Subject: "C", Version: 1})

	api.EXPECT().SchemaByVersion(ctx, "B", 1).Return(subjectSchema("B", 1, 2, b), nil).Times(1)
	api.EXPECT().SchemaByVersion(ctx, "C", 1).Return(subjectSchema("C", 1, 1, c), nil).Times(1)
	api.EXPECT().SchemaByVersion(ctx, "D", 3).Return(subjectSchema("D", 3, 3, d), nil).Times(1)

	root := NewAvroSchema(`{}`,
		Reference{Name: "t.B", Subject: "B", Version: 1},
		Reference{Name: "t.D", Subject: "D", Version: 3},
	)
	refs, err := NewResolver(api).Resolve(ctx, root)
	require.NoError(t, err)

	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	assert.Equal(t, []string{"t.C", "t.B", "t.D"}, names)
	assert.Equal(t, c.Schema, refs[0].Schema.Schema)
	assert.Equal(t, SchemaTypeAvro, refs[0].Schema.Type)
}

func TestResolverDefaultsMissingTypeToAvro(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMockAPI(ctrl)
	ctx := context.Background()

	api.EXPECT().SchemaByVersion(ctx, "B", LatestVersion).
		Return(subjectSchema("B", 4, 9, Schema{Schema: avroB}), nil)

	refs, err := NewResolver(api).Resolve(ctx, NewAvroSchema(`{}`, Reference{Name: "test.B", Subject: "B", Version: LatestVersion}))
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, SchemaTypeAvro, refs[0].Schema.Type)
}

func TestResolverDetectsCycles(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMockAPI(ctrl)
	ctx := context.Background()

	a := NewAvroSchema(`{}`, Reference{Name: "t.B", Subject: "B", Version: 1})
	b := NewAvroSchema(`{}`, Reference{Name: "t.A", Subject: "A", Version: 1})
	api.EXPECT().SchemaByVersion(ctx, "A", 1).Return(subjectSchema("A", 1, 1, a), nil)
	api.EXPECT().SchemaByVersion(ctx, "B", 1).Return(subjectSchema("B", 1, 2, b), nil)

	_, err := NewResolver(api).Resolve(ctx, NewAvroSchema(`{}`, Reference{Name: "t.A", Subject: "A", Version: 1}))
	var argErr *ArgumentError
	require.True(t, errors.As(err, &argErr))
	assert.Contains(t, err.Error(), "circular reference")
}

func TestResolverWrapsMissingReferences(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMockAPI(ctrl)
	ctx := context.Background()

	notFound := &ResponseError{Method: http.MethodGet, StatusCode: http.StatusNotFound, ErrorCode: 40401, Message: "Subject 'B' not found."}
	api.EXPECT().SchemaByVersion(ctx, "B", 1).Return(SubjectSchema{}, notFound)

	_, err := NewResolver(api).Resolve(ctx, NewAvroSchema(`{}`, Reference{Name: "t.B", Subject: "B", Version: 1}))

	var argErr *ArgumentError
	require.True(t, errors.As(err, &argErr))
	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	assert.Equal(t, 40401, respErr.ErrorCode)
	assert.True(t, IsNotFound(err))
}

func TestResolverPassesThroughRegistryFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMockAPI(ctrl)
	ctx := context.Background()

	unavailable := &ResponseError{Method: http.MethodGet, StatusCode: http.StatusServiceUnavailable, ErrorCode: 50003, Message: "Error while forwarding the request."}
	refused := errors.New("dial tcp 127.0.0.1:8081: connect: connection refused")
	api.EXPECT().SchemaByVersion(ctx, "B", 1).Return(SubjectSchema{}, unavailable)
	api.EXPECT().SchemaByVersion(ctx, "C", 1).Return(SubjectSchema{}, refused)

	_, err := NewResolver(api).Resolve(ctx, NewAvroSchema(`{}`, Reference{Name: "t.B", Subject: "B", Version: 1}))
	assert.Same(t, unavailable, err)
	var argErr *ArgumentError
	assert.False(t, errors.As(err, &argErr))

	_, err = NewResolver(api).Resolve(ctx, NewAvroSchema(`{}`, Reference{Name: "t.C", Subject: "C", Version: 1}))
	assert.Same(t, refused, err)
}

func TestResolverReturnsFreshCopies(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMockAPI(ctrl)
	ctx := context.Background()

	c := NewAvroSchema(`{"type":"record","namespace":"t","name":"C","fields":[]}`)
	b := NewAvroSchema(`{}`, Reference{Name: "t.C", Subject: "C", Version: 1})
	api.EXPECT().SchemaByVersion(ctx, "B", 1).Return(subjectSchema("B", 1, 2, b), nil).Times(2)
	api.EXPECT().SchemaByVersion(ctx, "C", 1).Return(subjectSchema("C", 1, 1, c), nil).Times(2)

	resolver := NewResolver(api)
	root := NewAvroSchema(`{}`, Reference{Name: "t.B", Subject: "B", Version: 1})

	first, err := resolver.Resolve(ctx, root)
	require.NoError(t, err)
	require.Len(t, first, 2)
	first[1].Schema.References[0].Subject = "changed"
	first[1].Schema.Schema = "changed"

	second, err := resolver.Resolve(ctx, root)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "C", second[1].Schema.References[0].Subject)
	assert.Equal(t, "{}", second[1].Schema.Schema)
	assert.Equal(t, "C", b.References[0].Subject)
}

func TestResolverWithoutReferences(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMockAPI(ctrl)

	refs, err := NewResolver(api).Resolve(context.Background(), NewAvroSchema(avroB))
	require.NoError(t, err)
	assert.Empty(t, refs)
}
