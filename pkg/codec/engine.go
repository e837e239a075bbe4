package codec

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ajitpratap0/resourcekit/pkg/logger"
)

// Engine performs type-directed conversion between typed records and plain
// nested structures. It owns no state across calls; every conversion is a
// pure function of the value, the declared type, and the directory's
// registered descriptors.
type Engine struct {
	dir    *Directory
	logger *zap.Logger
}

// NewEngine creates a codec engine backed by the given type directory. A nil
// directory falls back to the process-wide default.
func NewEngine(dir *Directory) *Engine {
	if dir == nil {
		dir = Default()
	}
	return &Engine{
		dir:    dir,
		logger: logger.Get().With(zap.String("component", "codec")),
	}
}

// Directory returns the type directory backing the engine
func (e *Engine) Directory() *Directory {
	return e.dir
}

// Serialize converts a value into a structure containing only
// JSON-encodable primitives, mappings, and sequences. The result never
// shares identity with the input record graph.
func (e *Engine) Serialize(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	if isNilValue(v) {
		return nil
	}

	switch val := v.(type) {
	case Enum:
		return val.EnumValue()
	case uuid.UUID:
		return val.String()
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.Format(time.RFC3339Nano)
	}

	if rec, ok := v.(Record); ok {
		if out, handled := e.serializeRecord(rec); handled {
			return out
		}
	}

	if s, ok := v.(Serializer); ok {
		out, err := s.Serialize()
		if err == nil {
			return out
		}
		// Fall through to the generic rules rather than propagating
		e.logger.Debug("value serializer failed",
			zap.String("value_type", typeName(v)),
			zap.Error(err),
		)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		return e.Serialize(rv.Elem().Interface())
	case reflect.Map:
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, ok := iter.Key().Interface().(string)
			if !ok {
				// Non-string keys cannot appear in a JSON-compatible mapping
				key = stringify(iter.Key().Interface())
			}
			out[key] = e.Serialize(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		if bs, ok := v.([]byte); ok {
			return bs
		}
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = e.Serialize(rv.Index(i).Interface())
		}
		return out
	}

	return v
}

// serializeRecord walks a record's declared fields through their Get
// closures. Records whose descriptor is unknown fall through to the generic
// rules.
func (e *Engine) serializeRecord(rec Record) (map[string]interface{}, bool) {
	desc := rec.Descriptor()
	if desc == nil {
		return nil, false
	}
	fields := e.dir.FieldsOf(desc)
	out := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		if f.Get == nil {
			continue
		}
		out[f.Name] = e.Serialize(f.Get(rec))
	}
	return out, true
}
