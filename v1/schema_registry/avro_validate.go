package schema_registry

import (
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/hamba/avro/v2"
)

// avroFieldTag is the struct tag hamba reads field names from.
const avroFieldTag = "avro"

// validateAvro checks payload against schema and returns one issue per invalid
// location. Values reached through a Go struct are checked against the Go
// types the encoder accepts, since they are marshalled as they are.
func validateAvro(schema avro.Schema, payload interface{}) []ValidationIssue {
	v := &avroValidator{collect: true}
	v.check(schema, payload, []string{})
	return v.issues
}

type avroValidator struct {
	collect bool
	// typed is set below a struct payload.
	typed  bool
	issues []ValidationIssue
}

func (v *avroValidator) fail(schema avro.Schema, value interface{}, path []string) bool {
	if v.collect {
		v.issues = append(v.issues, ValidationIssue{Path: path, Value: value, Schema: describeAvro(schema)})
	}
	return false
}

func (v *avroValidator) check(schema avro.Schema, value interface{}, path []string) bool {
	if v.typed {
		value = derefValue(value)
	}

	switch s := schema.(type) {
	case *avro.RefSchema:
		return v.check(s.Schema(), value, path)
	case *avro.UnionSchema:
		probe := &avroValidator{typed: v.typed}
		for _, member := range s.Types() {
			if probe.check(member, value, path) {
				return true
			}
		}
		return v.fail(schema, value, path)
	case *avro.RecordSchema:
		return v.checkRecord(s, value, path)
	case *avro.EnumSchema:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.String || (!v.typed && rv.Type() != reflect.TypeOf("")) {
			return v.fail(schema, value, path)
		}
		str := rv.String()
		for _, symbol := range s.Symbols() {
			if symbol == str {
				return true
			}
		}
		return v.fail(schema, value, path)
	case *avro.FixedSchema:
		if b, ok := value.([]byte); ok && len(b) == s.Size() {
			return true
		}
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 && rv.Len() == s.Size() {
			return true
		}
		if _, ok := value.(*big.Rat); ok && s.Logical() != nil {
			return true
		}
		return v.fail(schema, value, path)
	case *avro.ArraySchema:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return v.fail(schema, value, path)
		}
		valid := true
		for i := 0; i < rv.Len(); i++ {
			if !v.check(s.Items(), rv.Index(i).Interface(), childPath(path, strconv.Itoa(i))) {
				valid = false
				if !v.collect {
					return false
				}
			}
		}
		return valid
	case *avro.MapSchema:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return v.fail(schema, value, path)
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		valid := true
		for _, k := range keys {
			if !v.check(s.Values(), rv.MapIndex(k).Interface(), childPath(path, k.String())) {
				valid = false
				if !v.collect {
					return false
				}
			}
		}
		return valid
	}

	if checkAvroPrimitive(schema, value, v.typed) {
		return true
	}
	return v.fail(schema, value, path)
}

func (v *avroValidator) checkRecord(s *avro.RecordSchema, value interface{}, path []string) bool {
	if rv, ok := structValue(value); ok {
		return v.checkStruct(s, rv, path)
	}
	fields, ok := value.(map[string]interface{})
	if !ok {
		return v.fail(s, value, path)
	}
	valid := true
	for _, f := range s.Fields() {
		fv, present := fields[f.Name()]
		if !present && f.HasDefault() {
			continue
		}
		if !v.check(f.Type(), fv, childPath(path, f.Name())) {
			valid = false
			if !v.collect {
				return false
			}
		}
	}
	return valid
}

func (v *avroValidator) checkStruct(s *avro.RecordSchema, rv reflect.Value, path []string) bool {
	typed := v.typed
	v.typed = true
	defer func() { v.typed = typed }()

	fields := avroStructFields(rv)
	valid := true
	for _, f := range s.Fields() {
		fv, present := fields[f.Name()]
		if _, ok := fv.(unreadableField); ok {
			continue
		}
		if !present {
			if f.HasDefault() {
				continue
			}
			valid = v.fail(f.Type(), nil, childPath(path, f.Name())) && valid
		} else if !v.check(f.Type(), fv, childPath(path, f.Name())) {
			valid = false
		}
		if !valid && !v.collect {
			return false
		}
	}
	return valid
}

// unreadableField stands for a struct field reflection cannot read. The
// encoder reports its errors.
type unreadableField struct{}

// avroStructFields maps the exported fields of rv, including those promoted
// from embedded structs, by the name the encoder uses: the avro tag when set,
// the Go field name otherwise. Shallower fields win.
func avroStructFields(rv reflect.Value) map[string]interface{} {
	out := make(map[string]interface{})
	var walk func(reflect.Value)
	walk = func(sv reflect.Value) {
		var embedded []reflect.Value
		st := sv.Type()
		for i := 0; i < st.NumField(); i++ {
			field := st.Field(i)
			if field.Anonymous {
				inner := sv.Field(i)
				if inner.Kind() == reflect.Ptr {
					if inner.IsNil() {
						continue
					}
					inner = inner.Elem()
				}
				if inner.Kind() == reflect.Struct {
					embedded = append(embedded, inner)
				}
				continue
			}
			if !field.IsExported() {
				continue
			}
			name := field.Name
			if tag, ok := field.Tag.Lookup(avroFieldTag); ok {
				name = tag
			}
			if _, seen := out[name]; seen {
				continue
			}
			if fv := sv.Field(i); fv.CanInterface() {
				out[name] = fv.Interface()
			} else {
				// Promoted through an unexported embedded struct.
				out[name] = unreadableField{}
			}
		}
		for _, inner := range embedded {
			walk(inner)
		}
	}
	walk(rv)
	return out
}

func checkAvroPrimitive(schema avro.Schema, value interface{}, typed bool) bool {
	logical := false
	if p, ok := schema.(*avro.PrimitiveSchema); ok && p.Logical() != nil {
		logical = true
	}

	switch schema.Type() {
	case avro.Null:
		return value == nil
	case avro.Boolean:
		if typed {
			return kindOf(value) == reflect.Bool
		}
		_, ok := value.(bool)
		return ok
	case avro.String:
		if typed {
			return kindOf(value) == reflect.String
		}
		_, ok := value.(string)
		return ok
	case avro.Bytes:
		switch value.(type) {
		case []byte:
			return true
		case *big.Rat:
			return logical
		}
		return false
	case avro.Int:
		if logical && isTimeValue(value) {
			return true
		}
		if typed {
			return encodableAsInt(value)
		}
		return isInteger(value, 32) || isIntegralFloat(value, 32)
	case avro.Long:
		if logical && isTimeValue(value) {
			return true
		}
		if typed {
			return encodableAsLong(value)
		}
		return isInteger(value, 64) || isIntegralFloat(value, 64)
	case avro.Float:
		if typed {
			return kindOf(value) == reflect.Float32
		}
		return isNumber(value)
	case avro.Double:
		if typed {
			k := kindOf(value)
			return k == reflect.Float32 || k == reflect.Float64
		}
		return isNumber(value)
	}
	return false
}

// encodableAsInt and encodableAsLong mirror the Go kinds the encoder accepts
// for typed values.
func encodableAsInt(value interface{}) bool {
	switch kindOf(value) {
	case reflect.Int:
		return isInteger(value, 32)
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return true
	}
	return false
}

func encodableAsLong(value interface{}) bool {
	switch kindOf(value) {
	case reflect.Int, reflect.Int32, reflect.Int64, reflect.Uint32:
		return true
	}
	return false
}

func kindOf(value interface{}) reflect.Kind {
	if value == nil {
		return reflect.Invalid
	}
	return reflect.TypeOf(value).Kind()
}

func isTimeValue(value interface{}) bool {
	switch value.(type) {
	case time.Time, time.Duration:
		return true
	}
	return false
}

// isInteger reports whether value is an integer kind that fits in bits.
func isInteger(value interface{}, bits int) bool {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		return bits == 64 || (n >= math.MinInt32 && n <= math.MaxInt32)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := rv.Uint()
		if bits == 64 {
			return n <= math.MaxInt64
		}
		return n <= math.MaxInt32
	}
	return false
}

// isIntegralFloat reports whether value is a float without a fractional part
// that fits in bits. Numbers decoded from JSON arrive as float64.
func isIntegralFloat(value interface{}, bits int) bool {
	f, ok := floatValue(value)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return false
	}
	if bits == 32 {
		return f >= math.MinInt32 && f <= math.MaxInt32
	}
	return f >= math.MinInt64 && f < math.MaxInt64
}

func isNumber(value interface{}) bool {
	if _, ok := floatValue(value); ok {
		return true
	}
	return isInteger(value, 64)
}

func floatValue(value interface{}) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func structValue(value interface{}) (reflect.Value, bool) {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	return rv, rv.Kind() == reflect.Struct
}

// derefValue unwraps pointers; a nil pointer becomes nil.
func derefValue(value interface{}) interface{} {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Ptr {
		return value
	}
	if _, ok := value.(*big.Rat); ok {
		return value
	}
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

// normalizeAvro returns a copy of a validated dynamic payload with numbers
// converted to the Go type the encoder expects for their Avro type: int32 for
// int, int64 for long, float32 for float and float64 for double. Structs are
// returned unchanged.
func normalizeAvro(schema avro.Schema, value interface{}) interface{} {
	switch s := schema.(type) {
	case *avro.RefSchema:
		return normalizeAvro(s.Schema(), value)
	case *avro.UnionSchema:
		if value == nil {
			return nil
		}
		for _, member := range s.Types() {
			if (&avroValidator{}).check(member, value, nil) {
				return normalizeAvro(member, value)
			}
		}
		return value
	case *avro.RecordSchema:
		fields, ok := value.(map[string]interface{})
		if !ok {
			return value
		}
		out := make(map[string]interface{}, len(fields))
		for k, fv := range fields {
			out[k] = fv
		}
		for _, f := range s.Fields() {
			if fv, present := fields[f.Name()]; present {
				out[f.Name()] = normalizeAvro(f.Type(), fv)
			}
		}
		return out
	case *avro.ArraySchema:
		if _, ok := value.([]byte); ok {
			return value
		}
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return value
		}
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = normalizeAvro(s.Items(), rv.Index(i).Interface())
		}
		return out
	case *avro.MapSchema:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return value
		}
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = normalizeAvro(s.Values(), iter.Value().Interface())
		}
		return out
	}

	if isTimeValue(value) {
		return value
	}
	rv := reflect.ValueOf(value)
	switch schema.Type() {
	case avro.Int:
		if n, ok := integerValue(rv); ok {
			return int32(n)
		}
	case avro.Long:
		if n, ok := integerValue(rv); ok {
			return n
		}
	case avro.Float:
		if f, ok := numberValue(rv); ok {
			return float32(f)
		}
	case avro.Double:
		if f, ok := numberValue(rv); ok {
			return f
		}
	}
	return value
}

func integerValue(rv reflect.Value) (int64, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return int64(rv.Float()), true
	}
	return 0, false
}

func numberValue(rv reflect.Value) (float64, bool) {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

func childPath(path []string, elem string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

func describeAvro(schema avro.Schema) string {
	if named, ok := schema.(avro.NamedSchema); ok {
		return string(schema.Type()) + " " + named.FullName()
	}
	return string(schema.Type())
}
