package schema_registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

const protoUser = `syntax = "proto3";
package test.users;

message User {
  int32 id = 1;
  string name = 2;
  repeated string tags = 3;
  Address address = 4;

  message Address {
    string city = 1;
  }
}

message Group {
  string name = 1;
}
`

const protoAddress = `syntax = "proto3";
package test.common;

message Address {
  string city = 1;
  string country = 2;
}
`

const protoOrder = `syntax = "proto3";
package test.orders;

import "common/address.proto";

message Order {
  int64 id = 1;
  test.common.Address shipping = 2;
}
`

func parseProto(t *testing.T, definition string, refs []ResolvedReference, opts SchemaOptions) *ProtobufSchema {
	t.Helper()
	parsed, err := protobufAdapter{}.Parse(NewProtobufSchema(definition), refs, opts)
	require.NoError(t, err)
	require.NoError(t, protobufAdapter{}.Validate(parsed))
	return parsed.(*ProtobufSchema)
}

func TestProtobufDefaultsToFirstMessage(t *testing.T) {
	s := parseProto(t, protoUser, nil, SchemaOptions{})
	assert.Equal(t, protoreflect.FullName("test.users.User"), s.Message().FullName())
}

func TestProtobufMessageNameOption(t *testing.T) {
	s := parseProto(t, protoUser, nil, SchemaOptions{Protobuf: ProtobufOptions{MessageName: "Group"}})
	assert.Equal(t, protoreflect.FullName("test.users.Group"), s.Message().FullName())

	nested := parseProto(t, protoUser, nil, SchemaOptions{Protobuf: ProtobufOptions{MessageName: "User.Address"}})
	assert.Equal(t, protoreflect.FullName("test.users.User.Address"), nested.Message().FullName())

	_, err := protobufAdapter{}.Parse(NewProtobufSchema(protoUser), nil, SchemaOptions{Protobuf: ProtobufOptions{MessageName: "Missing"}})
	var argErr *ArgumentError
	require.True(t, errors.As(err, &argErr))
}

func TestProtoLookupKey(t *testing.T) {
	assert.Equal(t, "test.users..User", protoLookupKey("test.users", "User"))
	assert.Equal(t, ".User", protoLookupKey("", "User"))
}

func TestProtobufRoundTrip(t *testing.T) {
	s := parseProto(t, protoUser, nil, SchemaOptions{})

	data, err := protobufAdapter{}.ToBytes(s, map[string]interface{}{
		"id":      7,
		"name":    "ada",
		"tags":    []interface{}{"a", "b"},
		"address": map[string]interface{}{"city": "Berlin"},
	})
	require.NoError(t, err)

	framed := append([]byte{0x00}, data...)
	decoded, err := protobufAdapter{}.FromBytes(s, framed)
	require.NoError(t, err)

	msg, ok := decoded.(*dynamicpb.Message)
	require.True(t, ok)
	fields := s.Message().Fields()
	assert.Equal(t, int32(7), msg.Get(fields.ByName("id")).Interface())
	assert.Equal(t, "ada", msg.Get(fields.ByName("name")).Interface())
	assert.Equal(t, 2, msg.Get(fields.ByName("tags")).List().Len())
	address := msg.Get(fields.ByName("address")).Message()
	assert.Equal(t, "Berlin", address.Get(address.Descriptor().Fields().ByName("city")).Interface())
}

func TestProtobufAcceptsProtoMessages(t *testing.T) {
	s := parseProto(t, protoUser, nil, SchemaOptions{})

	msg := dynamicpb.NewMessage(s.Message())
	msg.Set(s.Message().Fields().ByName("name"), protoreflect.ValueOfString("grace"))

	data, err := protobufAdapter{}.ToBytes(s, msg)
	require.NoError(t, err)

	want, err := proto.Marshal(msg)
	require.NoError(t, err)
	assert.Equal(t, want, data)

	other := parseProto(t, protoUser, nil, SchemaOptions{Protobuf: ProtobufOptions{MessageName: "Group"}})
	_, err = protobufAdapter{}.ToBytes(other, msg)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
}

func TestProtobufToBytesCollectsEveryInvalidPath(t *testing.T) {
	s := parseProto(t, protoUser, nil, SchemaOptions{})

	_, err := protobufAdapter{}.ToBytes(s, map[string]interface{}{
		"id":      "seven",
		"name":    5,
		"tags":    []interface{}{"ok", 3},
		"address": map[string]interface{}{"city": true},
		"unknown": 1,
	})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, [][]string{
		{"id"},
		{"name"},
		{"tags", "1"},
		{"address", "city"},
		{"unknown"},
	}, verr.Paths())
}

func TestProtobufInt32Range(t *testing.T) {
	s := parseProto(t, protoUser, nil, SchemaOptions{})

	_, err := protobufAdapter{}.ToBytes(s, map[string]interface{}{"id": float64(1 << 40)})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, [][]string{{"id"}}, verr.Paths())
}

func TestProtobufReferencesCompileIntoOneRoot(t *testing.T) {
	refs := []ResolvedReference{{
		Reference: Reference{Name: "common/address.proto", Subject: "address", Version: 1},
		Schema:    NewProtobufSchema(protoAddress),
	}}
	s := parseProto(t, protoOrder, refs, SchemaOptions{})
	assert.Equal(t, protoreflect.FullName("test.orders.Order"), s.Message().FullName())

	data, err := protobufAdapter{}.ToBytes(s, map[string]interface{}{
		"id":       "9007199254740993",
		"shipping": map[string]interface{}{"city": "Paris", "country": "FR"},
	})
	require.NoError(t, err)

	decoded, err := protobufAdapter{}.FromBytes(s, data)
	require.NoError(t, err)
	msg := decoded.(*dynamicpb.Message)
	assert.Equal(t, int64(9007199254740993), msg.Get(s.Message().Fields().ByName("id")).Int())

	byName := parseProto(t, protoOrder, refs, SchemaOptions{Protobuf: ProtobufOptions{MessageName: "test.common.Address"}})
	assert.Equal(t, protoreflect.FullName("test.common.Address"), byName.Message().FullName())
}

func TestProtobufMissingImportFails(t *testing.T) {
	_, err := protobufAdapter{}.Parse(NewProtobufSchema(protoOrder), nil, SchemaOptions{})
	var argErr *ArgumentError
	require.True(t, errors.As(err, &argErr))
}

func TestProtobufFromBytesStripsLeadingZeros(t *testing.T) {
	s := parseProto(t, protoUser, nil, SchemaOptions{Protobuf: ProtobufOptions{MessageName: "Group"}})

	data, err := protobufAdapter{}.ToBytes(s, map[string]interface{}{"name": "admins"})
	require.NoError(t, err)

	decoded, err := protobufAdapter{}.FromBytes(s, append([]byte{0x00, 0x00, 0x00}, data...))
	require.NoError(t, err)
	msg := decoded.(*dynamicpb.Message)
	assert.Equal(t, "admins", msg.Get(s.Message().Fields().ByName("name")).String())
}

func TestProtobufSubjectFor(t *testing.T) {
	subject, err := protobufAdapter{}.SubjectFor(NewProtobufSchema(protoOrder), ".")
	require.NoError(t, err)
	assert.Equal(t, "test.orders.Order", subject)

	_, err = protobufAdapter{}.SubjectFor(NewProtobufSchema(`syntax = "proto3"; package empty;`), ".")
	var argErr *ArgumentError
	require.True(t, errors.As(err, &argErr))
}

func TestProtobufMessageIndexes(t *testing.T) {
	s := parseProto(t, protoUser, nil, SchemaOptions{})
	assert.Equal(t, []int{0}, protobufAdapter{}.MessageIndexes(s))
}

func TestProtobufEqual(t *testing.T) {
	reformatted := `syntax = "proto3";  package test.common;
message Address { string city = 1; string country = 2; }`
	assert.True(t, protobufAdapter{}.Equal(protoAddress, reformatted))
	assert.False(t, protobufAdapter{}.Equal(protoAddress, protoOrder))
}
