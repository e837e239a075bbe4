// Package codec provides type-directed bidirectional conversion between
// typed records and plain nested structures (maps, sequences, primitives),
// plus the type directory used to resolve record descriptors, extension-point
// subtypes, and lazily loadable class names.
//
// The codec never inspects Go struct layouts at runtime. Every record type
// registers an explicit descriptor once (normally from an init function),
// declaring its fields with kind-tagged type descriptors and accessor
// closures. Conversion is then a pure walk over those descriptors: for a
// fixed (value, type, registered subtypes) triple the result is always
// identical.
package codec

import (
	"fmt"
	"strings"
)

// Kind tags the shape of a declared field type.
type Kind uint8

const (
	// KindAny passes values through unchanged
	KindAny Kind = iota
	// KindBool is a boolean primitive
	KindBool
	// KindInt is an integer primitive
	KindInt
	// KindFloat is a floating-point primitive
	KindFloat
	// KindString is a string primitive
	KindString
	// KindBytes is a raw byte slice
	KindBytes
	// KindEnum is a validated enumeration
	KindEnum
	// KindUUID is a canonical-string identifier
	KindUUID
	// KindTime is an ISO-8601 timestamp
	KindTime
	// KindRecord references a registered record descriptor by name
	KindRecord
	// KindList is an ordered sequence
	KindList
	// KindSet is an unordered collection, serialized as a sequence
	KindSet
	// KindMap is a key/value mapping
	KindMap
	// KindUnion tries each member type in declared order
	KindUnion
	// KindParam is an unbound generic parameter resolved through the
	// record's specialization chain
	KindParam
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindEnum:
		return "enum"
	case KindUUID:
		return "uuid"
	case KindTime:
		return "time"
	case KindRecord:
		return "record"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	case KindUnion:
		return "union"
	case KindParam:
		return "param"
	default:
		return "unknown"
	}
}

// Type describes the declared type of a record field. Types are immutable
// value descriptors; containers reference their element types, unions their
// ordered member types, and records their registered descriptor name.
type Type struct {
	Kind    Kind
	Key     *Type   // map key type
	Elem    *Type   // list/set element type or map value type
	Members []*Type // union member types in declared order
	Nilable bool    // union admits a nil member
	Enum    *EnumDescriptor
	Record  string // record descriptor name, resolved through a Directory
	Param   string // generic parameter name
}

// String returns a readable form of the type, used in error details.
func (t *Type) String() string {
	if t == nil {
		return "any"
	}
	switch t.Kind {
	case KindEnum:
		if t.Enum != nil {
			return "enum(" + t.Enum.Name + ")"
		}
		return "enum"
	case KindRecord:
		return "record(" + t.Record + ")"
	case KindList:
		return "list(" + t.Elem.String() + ")"
	case KindSet:
		return "set(" + t.Elem.String() + ")"
	case KindMap:
		return "map(" + t.Key.String() + "," + t.Elem.String() + ")"
	case KindUnion:
		members := make([]string, 0, len(t.Members))
		for _, m := range t.Members {
			members = append(members, m.String())
		}
		if t.Nilable {
			members = append(members, "nil")
		}
		return "union(" + strings.Join(members, "|") + ")"
	case KindParam:
		return "param(" + t.Param + ")"
	default:
		return t.Kind.String()
	}
}

// Any returns the pass-through type
func Any() *Type { return &Type{Kind: KindAny} }

// Bool returns the boolean primitive type
func Bool() *Type { return &Type{Kind: KindBool} }

// Int returns the integer primitive type
func Int() *Type { return &Type{Kind: KindInt} }

// Float returns the floating-point primitive type
func Float() *Type { return &Type{Kind: KindFloat} }

// Text returns the string primitive type
func Text() *Type { return &Type{Kind: KindString} }

// Bytes returns the raw byte slice type
func Bytes() *Type { return &Type{Kind: KindBytes} }

// UUIDType returns the identifier type
func UUIDType() *Type { return &Type{Kind: KindUUID} }

// Time returns the ISO-8601 timestamp type
func Time() *Type { return &Type{Kind: KindTime} }

// EnumOf returns an enumeration type backed by the given descriptor
func EnumOf(e *EnumDescriptor) *Type { return &Type{Kind: KindEnum, Enum: e} }

// RecordOf returns a type referencing a registered record descriptor by name
func RecordOf(name string) *Type { return &Type{Kind: KindRecord, Record: name} }

// ListOf returns an ordered sequence type
func ListOf(elem *Type) *Type { return &Type{Kind: KindList, Elem: elem} }

// SetOf returns a set type; values are carried as sequences
func SetOf(elem *Type) *Type { return &Type{Kind: KindSet, Elem: elem} }

// MapOf returns a mapping type
func MapOf(key, value *Type) *Type { return &Type{Kind: KindMap, Key: key, Elem: value} }

// UnionOf returns a union type whose members are tried in declared order
func UnionOf(members ...*Type) *Type { return &Type{Kind: KindUnion, Members: members} }

// Optional returns a union of the given type and nil
func Optional(t *Type) *Type {
	return &Type{Kind: KindUnion, Members: []*Type{t}, Nilable: true}
}

// Param returns an unbound generic parameter type
func Param(name string) *Type { return &Type{Kind: KindParam, Param: name} }

// EnumDescriptor declares the valid members of an enumeration and how to
// construct the typed constant from its underlying scalar.
type EnumDescriptor struct {
	Name   string
	Values []string
	Make   func(string) interface{}
}

// Contains reports whether the raw value is a valid member
func (e *EnumDescriptor) Contains(v string) bool {
	for _, candidate := range e.Values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Enum is implemented by enumeration values so the codec can serialize them
// to their underlying scalar without reflection.
type Enum interface {
	EnumValue() string
}

// Record is implemented by every registered record type.
type Record interface {
	Descriptor() *RecordDescriptor
}

// Serializer is implemented by values that carry their own serialize
// operation. Failures are swallowed with a diagnostic log and the codec
// falls through to its generic rules.
type Serializer interface {
	Serialize() (interface{}, error)
}

// typeName returns a short description of a raw value for error details.
func typeName(v interface{}) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
