package codec

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ajitpratap0/resourcekit/pkg/errors"
)

// Convert coerces a raw value into the declared type using the generic
// conversion rules. Nil values and "any" types pass through unchanged, as do
// values that already satisfy the declared type. Unresolvable types (such as
// a record name the directory does not know) are best-effort pass-throughs,
// never errors.
func (e *Engine) Convert(v interface{}, t *Type) (interface{}, error) {
	if v == nil || isNilValue(v) {
		return v, nil
	}
	if t == nil || t.Kind == KindAny || t.Kind == KindParam {
		return v, nil
	}

	switch t.Kind {
	case KindBool:
		return convertBool(v, t)
	case KindInt:
		return convertInt(v, t)
	case KindFloat:
		return convertFloat(v, t)
	case KindString:
		return convertString(v, t)
	case KindBytes:
		return convertBytes(v, t)
	case KindEnum:
		return convertEnum(v, t)
	case KindUUID:
		return convertUUID(v, t)
	case KindTime:
		return convertTime(v, t)
	case KindRecord:
		return e.convertRecord(v, t)
	case KindList, KindSet:
		return e.convertSequence(v, t)
	case KindMap:
		return e.convertMapping(v, t)
	case KindUnion:
		return e.convertUnion(v, t)
	default:
		return v, nil
	}
}

func convertBool(v interface{}, t *Type) (interface{}, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return nil, conversionFailure(v, t)
		}
		return b, nil
	}
	return nil, conversionFailure(v, t)
}

func convertInt(v interface{}, t *Type) (interface{}, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int8:
		return int(val), nil
	case int16:
		return int(val), nil
	case int32:
		return int(val), nil
	case int64:
		return int(val), nil
	case uint:
		return int(val), nil
	case uint8:
		return int(val), nil
	case uint16:
		return int(val), nil
	case uint32:
		return int(val), nil
	case uint64:
		return int(val), nil
	case float32:
		return int(val), nil
	case float64:
		return int(val), nil
	case string:
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, conversionFailure(v, t)
		}
		return n, nil
	}
	return nil, conversionFailure(v, t)
}

func convertFloat(v interface{}, t *Type) (interface{}, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, conversionFailure(v, t)
		}
		return f, nil
	}
	return nil, conversionFailure(v, t)
}

func convertString(v interface{}, t *Type) (interface{}, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return stringify(val), nil
	}
	return nil, conversionFailure(v, t)
}

func convertBytes(v interface{}, t *Type) (interface{}, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	}
	return nil, conversionFailure(v, t)
}

func convertEnum(v interface{}, t *Type) (interface{}, error) {
	if t.Enum == nil {
		return v, nil
	}
	if en, ok := v.(Enum); ok {
		if t.Enum.Contains(en.EnumValue()) {
			return v, nil
		}
		return nil, invalidEnumMember(en.EnumValue(), t)
	}
	raw, ok := v.(string)
	if !ok {
		return nil, conversionFailure(v, t)
	}
	if !t.Enum.Contains(raw) {
		return nil, invalidEnumMember(raw, t)
	}
	if t.Enum.Make != nil {
		return t.Enum.Make(raw), nil
	}
	return raw, nil
}

func convertUUID(v interface{}, t *Type) (interface{}, error) {
	switch val := v.(type) {
	case uuid.UUID:
		return val, nil
	case string:
		id, err := uuid.Parse(val)
		if err != nil {
			return nil, errors.WrapConversion(err, "invalid identifier").
				WithDetail("value", val)
		}
		return id, nil
	}
	return nil, conversionFailure(v, t)
}

func convertTime(v interface{}, t *Type) (interface{}, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		ts, err := parseTimestamp(val)
		if err != nil {
			return nil, errors.WrapConversion(err, "invalid timestamp").
				WithDetail("value", val)
		}
		return ts, nil
	}
	return nil, conversionFailure(v, t)
}

// convertRecord deserializes mapping values into the referenced record type.
// Values that already carry the target descriptor pass through; an unknown
// record name is a forward reference and passes the value through unchanged.
func (e *Engine) convertRecord(v interface{}, t *Type) (interface{}, error) {
	desc := e.dir.Lookup(t.Record)
	if desc == nil {
		return v, nil
	}
	if rec, ok := v.(Record); ok {
		if rd := rec.Descriptor(); rd != nil && rd.Name == desc.Name {
			return v, nil
		}
	}
	if m, ok := asStringMap(v); ok {
		return e.Deserialize(desc, m)
	}
	return nil, conversionFailure(v, t)
}

func (e *Engine) convertSequence(v interface{}, t *Type) (interface{}, error) {
	items, ok := asSlice(v)
	if !ok {
		return nil, conversionFailure(v, t)
	}
	out := make([]interface{}, len(items))
	for i, item := range items {
		converted, err := e.Convert(item, t.Elem)
		if err != nil {
			return nil, errors.WrapConversion(err, "sequence element conversion failed").
				WithDetail("index", i)
		}
		out[i] = converted
	}
	return out, nil
}

func (e *Engine) convertMapping(v interface{}, t *Type) (interface{}, error) {
	entries, ok := asEntries(v)
	if !ok {
		return nil, conversionFailure(v, t)
	}

	stringKeyed := t.Key == nil || t.Key.Kind == KindAny || t.Key.Kind == KindString

	if stringKeyed {
		out := make(map[string]interface{}, len(entries))
		for _, entry := range entries {
			key, keyOK := entry.key.(string)
			if !keyOK {
				key = stringify(entry.key)
			}
			converted, err := e.Convert(entry.value, t.Elem)
			if err != nil {
				return nil, errors.WrapConversion(err, "mapping value conversion failed").
					WithDetail("key", key)
			}
			out[key] = converted
		}
		return out, nil
	}

	out := make(map[interface{}]interface{}, len(entries))
	for _, entry := range entries {
		key, err := e.Convert(entry.key, t.Key)
		if err != nil {
			return nil, errors.WrapConversion(err, "mapping key conversion failed")
		}
		converted, err := e.Convert(entry.value, t.Elem)
		if err != nil {
			return nil, errors.WrapConversion(err, "mapping value conversion failed")
		}
		out[key] = converted
	}
	return out, nil
}

// convertUnion tries each member in declared order and returns the first
// success. When every member fails the last failure propagates.
func (e *Engine) convertUnion(v interface{}, t *Type) (interface{}, error) {
	var lastErr error
	for _, member := range t.Members {
		out, err := e.Convert(v, member)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return v, nil
}

type mapEntry struct {
	key   interface{}
	value interface{}
}

// asEntries normalizes any mapping value to a key/value entry list.
func asEntries(v interface{}) ([]mapEntry, bool) {
	if m, ok := v.(map[string]interface{}); ok {
		entries := make([]mapEntry, 0, len(m))
		for k, val := range m {
			entries = append(entries, mapEntry{key: k, value: val})
		}
		return entries, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	entries := make([]mapEntry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, mapEntry{
			key:   iter.Key().Interface(),
			value: iter.Value().Interface(),
		})
	}
	return entries, true
}

// asStringMap normalizes a mapping value to a string-keyed map. Mappings
// with any non-string key do not qualify.
func asStringMap(v interface{}) (map[string]interface{}, bool) {
	if m, ok := v.(map[string]interface{}); ok {
		return m, true
	}
	entries, ok := asEntries(v)
	if !ok {
		return nil, false
	}
	out := make(map[string]interface{}, len(entries))
	for _, entry := range entries {
		key, keyOK := entry.key.(string)
		if !keyOK {
			return nil, false
		}
		out[key] = entry.value
	}
	return out, true
}

// asSlice normalizes any sequence value to []interface{}. Byte slices are
// primitives, not sequences.
func asSlice(v interface{}) ([]interface{}, bool) {
	if items, ok := v.([]interface{}); ok {
		return items, true
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// isNilValue reports typed-nil values hiding behind a non-nil interface.
func isNilValue(v interface{}) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func stringify(v interface{}) string {
	return fmt.Sprint(v)
}

// parseTimestamp parses the ISO-8601 shapes that appear in wire-format
// configuration.
func parseTimestamp(s string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	var lastErr error
	for _, layout := range layouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func conversionFailure(v interface{}, t *Type) *errors.Error {
	return errors.NewConversion(fmt.Sprintf("cannot convert %s to %s", typeName(v), t)).
		WithDetail("expected", t.String()).
		WithDetail("value_type", typeName(v))
}

func invalidEnumMember(raw string, t *Type) *errors.Error {
	return errors.NewConversion(fmt.Sprintf("%q is not a valid member of %s", raw, t.Enum.Name)).
		WithDetail("enum", t.Enum.Name).
		WithDetail("value", raw)
}
