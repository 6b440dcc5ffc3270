package schema_registry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/linker"
	"github.com/bufbuild/protocompile/parser"
	"github.com/bufbuild/protocompile/reporter"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// protoRootFile is the file name the registered schema compiles under. References
// compile under their reference name, which is the path the root imports.
const protoRootFile = "schema-registry-root.proto"

// ProtobufOptions configures the Protobuf adapter.
type ProtobufOptions struct {
	// MessageName selects the message used for encoding, relative to the root
	// file's package or fully qualified. Empty selects the first message of the
	// root file.
	MessageName string
}

// ProtobufSchema is a compiled Protobuf file with its selected message.
type ProtobufSchema struct {
	definition string
	files      linker.Files
	message    protoreflect.MessageDescriptor
}

// SchemaType implements ParsedSchema.
func (s *ProtobufSchema) SchemaType() SchemaType { return SchemaTypeProtobuf }

// Definition implements ParsedSchema.
func (s *ProtobufSchema) Definition() string { return s.definition }

// Message returns the descriptor of the selected message.
func (s *ProtobufSchema) Message() protoreflect.MessageDescriptor { return s.message }

// File returns the compiled root file.
func (s *ProtobufSchema) File() protoreflect.FileDescriptor { return s.files[0] }

type protobufAdapter struct{}

func (protobufAdapter) Type() SchemaType { return SchemaTypeProtobuf }

func (protobufAdapter) Parse(schema Schema, refs []ResolvedReference, opts SchemaOptions) (ParsedSchema, error) {
	sources := make(map[string]string, len(refs)+1)
	sources[protoRootFile] = schema.Schema
	for _, ref := range refs {
		sources[ref.Name] = ref.Schema.Schema
	}

	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			Accessor: protocompile.SourceAccessorFromMap(sources),
		}),
	}
	files, err := compiler.Compile(context.Background(), protoRootFile)
	if err != nil {
		return nil, wrapArgumentError(err, "invalid protobuf schema")
	}

	root := files[0]
	var message protoreflect.MessageDescriptor
	if opts.Protobuf.MessageName != "" {
		message = lookupMessage(root, protoLookupKey(string(root.Package()), opts.Protobuf.MessageName))
		if message == nil {
			return nil, newArgumentError("message %q not found in protobuf schema", opts.Protobuf.MessageName)
		}
	} else {
		if root.Messages().Len() == 0 {
			return nil, newArgumentError("invalid protobuf schema: no message type defined")
		}
		first := root.Messages().Get(0)
		message = lookupMessage(root, protoLookupKey(string(root.Package()), string(first.Name())))
	}

	return &ProtobufSchema{definition: schema.Schema, files: files, message: message}, nil
}

// protoLookupKey builds the message lookup key. The separating dot is kept even
// when the package is empty.
func protoLookupKey(pkg, name string) string {
	prefix := ""
	if pkg != "" {
		prefix = pkg + "."
	}
	return prefix + "." + name
}

// lookupMessage resolves a key built by protoLookupKey against root and its
// transitive imports. Names that are already fully qualified resolve too.
func lookupMessage(root protoreflect.FileDescriptor, key string) protoreflect.MessageDescriptor {
	var pkg, name string
	if i := strings.Index(key, ".."); i >= 0 {
		pkg, name = key[:i], key[i+2:]
	} else {
		name = strings.TrimPrefix(key, ".")
	}

	candidates := []protoreflect.FullName{protoreflect.FullName(name)}
	if pkg != "" {
		candidates = append([]protoreflect.FullName{protoreflect.FullName(pkg + "." + name)}, candidates...)
	}

	all := collectMessages(root, map[string]bool{})
	for _, c := range candidates {
		for _, md := range all {
			if md.FullName() == c {
				return md
			}
		}
	}
	for _, md := range all {
		if strings.HasSuffix(string(md.FullName()), "."+name) {
			return md
		}
	}
	return nil
}

// collectMessages lists every message of fd and its imports, depth first.
func collectMessages(fd protoreflect.FileDescriptor, seen map[string]bool) []protoreflect.MessageDescriptor {
	if seen[fd.Path()] {
		return nil
	}
	seen[fd.Path()] = true

	var out []protoreflect.MessageDescriptor
	var walk func(protoreflect.MessageDescriptors)
	walk = func(mds protoreflect.MessageDescriptors) {
		for i := 0; i < mds.Len(); i++ {
			md := mds.Get(i)
			out = append(out, md)
			walk(md.Messages())
		}
	}
	walk(fd.Messages())

	imports := fd.Imports()
	for i := 0; i < imports.Len(); i++ {
		out = append(out, collectMessages(imports.Get(i).FileDescriptor, seen)...)
	}
	return out
}

func (protobufAdapter) Validate(parsed ParsedSchema) error {
	s, ok := parsed.(*ProtobufSchema)
	if !ok {
		return mismatchedSchema(SchemaTypeProtobuf, parsed)
	}
	if s.message == nil {
		return newArgumentError("invalid protobuf schema: no message type selected")
	}
	return nil
}

func (protobufAdapter) ToBytes(parsed ParsedSchema, payload interface{}) ([]byte, error) {
	s, ok := parsed.(*ProtobufSchema)
	if !ok {
		return nil, mismatchedSchema(SchemaTypeProtobuf, parsed)
	}

	if m, ok := payload.(proto.Message); ok {
		got := m.ProtoReflect().Descriptor().FullName()
		if got != s.message.FullName() {
			return nil, newValidationError("message type does not match schema", []ValidationIssue{{
				Path:   []string{},
				Value:  string(got),
				Schema: string(s.message.FullName()),
			}})
		}
		data, err := proto.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("encode protobuf payload: %w", err)
		}
		return data, nil
	}

	fields, err := protoPayloadFields(payload)
	if err != nil {
		return nil, err
	}
	if issues := verifyProtoMessage(s.message, fields, []string{}); len(issues) > 0 {
		return nil, newValidationError("invalid protobuf payload", issues)
	}

	text, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode protobuf payload: %w", err)
	}
	msg := dynamicpb.NewMessage(s.message)
	if err := protojson.Unmarshal(text, msg); err != nil {
		return nil, newValidationError(err.Error(), []ValidationIssue{{
			Path:   []string{},
			Value:  payload,
			Schema: string(s.message.FullName()),
		}})
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode protobuf payload: %w", err)
	}
	return data, nil
}

// protoPayloadFields turns a payload that is not a proto.Message into a generic
// JSON object.
func protoPayloadFields(payload interface{}) (map[string]interface{}, error) {
	if fields, ok := payload.(map[string]interface{}); ok {
		return fields, nil
	}

	var text []byte
	switch v := payload.(type) {
	case json.RawMessage:
		text = v
	default:
		var err error
		if text, err = json.Marshal(v); err != nil {
			return nil, newValidationError(err.Error(), []ValidationIssue{{Path: []string{}, Value: payload}})
		}
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(text, &fields); err != nil || fields == nil {
		return nil, newValidationError("protobuf payload must be an object", []ValidationIssue{{Path: []string{}, Value: payload}})
	}
	return fields, nil
}

func verifyProtoMessage(md protoreflect.MessageDescriptor, fields map[string]interface{}, path []string) []ValidationIssue {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var issues []ValidationIssue
	for _, key := range keys {
		value := fields[key]
		fieldPath := childPath(path, key)
		fd := md.Fields().ByName(protoreflect.Name(key))
		if fd == nil {
			fd = md.Fields().ByJSONName(key)
		}
		if fd == nil {
			issues = append(issues, ValidationIssue{Path: fieldPath, Value: value, Schema: string(md.FullName())})
			continue
		}
		if value == nil {
			continue
		}
		issues = append(issues, verifyProtoField(fd, value, fieldPath)...)
	}
	return issues
}

func verifyProtoField(fd protoreflect.FieldDescriptor, value interface{}, path []string) []ValidationIssue {
	switch {
	case fd.IsMap():
		entries, ok := value.(map[string]interface{})
		if !ok {
			return []ValidationIssue{protoIssue(fd, value, path)}
		}
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var issues []ValidationIssue
		for _, k := range keys {
			issues = append(issues, verifyProtoSingular(fd.MapValue(), entries[k], childPath(path, k))...)
		}
		return issues
	case fd.IsList():
		items, ok := value.([]interface{})
		if !ok {
			return []ValidationIssue{protoIssue(fd, value, path)}
		}
		var issues []ValidationIssue
		for i, item := range items {
			issues = append(issues, verifyProtoSingular(fd, item, childPath(path, strconv.Itoa(i)))...)
		}
		return issues
	default:
		return verifyProtoSingular(fd, value, path)
	}
}

func verifyProtoSingular(fd protoreflect.FieldDescriptor, value interface{}, path []string) []ValidationIssue {
	var ok bool
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		if isWellKnown(fd.Message()) {
			return nil
		}
		nested, isObject := value.(map[string]interface{})
		if !isObject {
			return []ValidationIssue{protoIssue(fd, value, path)}
		}
		return verifyProtoMessage(fd.Message(), nested, path)
	case protoreflect.EnumKind:
		switch v := value.(type) {
		case string:
			ok = fd.Enum().Values().ByName(protoreflect.Name(v)) != nil
		default:
			ok = isProtoInteger(v, math.MinInt32, math.MaxInt32)
		}
	case protoreflect.BoolKind:
		_, ok = value.(bool)
	case protoreflect.StringKind:
		_, ok = value.(string)
	case protoreflect.BytesKind:
		switch v := value.(type) {
		case []byte:
			ok = true
		case string:
			_, err := base64.StdEncoding.DecodeString(v)
			ok = err == nil
		}
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		ok = isProtoInteger(value, math.MinInt32, math.MaxInt32)
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		ok = isProtoInteger(value, 0, math.MaxUint32)
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		ok = isProtoInteger(value, math.MinInt64, math.MaxInt64) || isNumericString(value)
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		ok = isProtoInteger(value, 0, math.MaxInt64) || isNumericString(value)
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		switch value.(type) {
		case float32, float64, int, int32, int64, json.Number:
			ok = true
		case string:
			ok = value == "NaN" || value == "Infinity" || value == "-Infinity"
		}
	}
	if ok {
		return nil
	}
	return []ValidationIssue{protoIssue(fd, value, path)}
}

func protoIssue(fd protoreflect.FieldDescriptor, value interface{}, path []string) ValidationIssue {
	return ValidationIssue{Path: path, Value: value, Schema: fd.Kind().String() + " " + string(fd.FullName())}
}

func isWellKnown(md protoreflect.MessageDescriptor) bool {
	return strings.HasPrefix(string(md.FullName()), "google.protobuf.")
}

func isProtoInteger(value interface{}, min, max float64) bool {
	var f float64
	switch v := value.(type) {
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return false
		}
		f = n
	default:
		return false
	}
	return f == math.Trunc(f) && f >= min && f <= max
}

func isNumericString(value interface{}) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return true
	}
	_, err = strconv.ParseUint(s, 10, 64)
	return err == nil
}

func (protobufAdapter) FromBytes(parsed ParsedSchema, data []byte) (interface{}, error) {
	s, ok := parsed.(*ProtobufSchema)
	if !ok {
		return nil, mismatchedSchema(SchemaTypeProtobuf, parsed)
	}
	// Drop the message indexes framed in front of the payload.
	for len(data) > 0 && data[0] == 0 {
		data = data[1:]
	}
	msg := dynamicpb.NewMessage(s.message)
	if err := proto.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("decode protobuf payload: %w", err)
	}
	return msg, nil
}

// SubjectFor returns the package and name of the first message, joined by separator.
func (protobufAdapter) SubjectFor(schema Schema, separator string) (string, error) {
	fdp, err := parseProtoFile(schema.Schema)
	if err != nil {
		return "", err
	}
	if len(fdp.GetMessageType()) == 0 {
		return "", newArgumentError("invalid protobuf schema: no message type defined")
	}
	name := fdp.GetMessageType()[0].GetName()
	if fdp.GetPackage() == "" {
		return name, nil
	}
	return fdp.GetPackage() + separator + name, nil
}

func (protobufAdapter) Equal(a, b string) bool {
	fa, errA := parseProtoFile(a)
	fb, errB := parseProtoFile(b)
	if errA != nil || errB != nil {
		return strings.Join(strings.Fields(a), " ") == strings.Join(strings.Fields(b), " ")
	}
	fa.SourceCodeInfo = nil
	fb.SourceCodeInfo = nil
	return proto.Equal(fa, fb)
}

func (protobufAdapter) MessageIndexes(ParsedSchema) []int {
	return append([]int(nil), DefaultMessageIndexes...)
}

// parseProtoFile parses text without linking, so imports need not be available.
func parseProtoFile(text string) (*descriptorpb.FileDescriptorProto, error) {
	handler := reporter.NewHandler(nil)
	node, err := parser.Parse(protoRootFile, strings.NewReader(text), handler)
	if err != nil {
		return nil, wrapArgumentError(err, "invalid protobuf schema")
	}
	result, err := parser.ResultFromAST(node, true, handler)
	if err != nil {
		return nil, wrapArgumentError(err, "invalid protobuf schema")
	}
	return result.FileDescriptorProto(), nil
}
