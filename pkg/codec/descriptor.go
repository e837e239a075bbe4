package codec

import (
	"github.com/ajitpratap0/resourcekit/pkg/errors"
)

// ConverterFunc converts a raw payload value into a field value, overriding
// every generic conversion rule for that field.
type ConverterFunc func(raw interface{}) (interface{}, error)

// FieldDescriptor declares one named field of a record: its type, accessor
// closures over the concrete record value, and optional conversion overrides.
type FieldDescriptor struct {
	// Name is the wire-format key of the field
	Name string
	// Type is the declared field type; nil means any
	Type *Type
	// Converter, when set, takes precedence over all generic conversion rules
	Converter ConverterFunc
	// Get reads the field from a record instance
	Get func(Record) interface{}
	// Set writes a converted value into a record instance
	Set func(Record, interface{}) error
	// NoInit marks fields that are not part of constructor initialization;
	// their Default is applied post-construction when no value was supplied
	NoInit bool
	// Default produces the post-construction default for NoInit fields
	Default func() interface{}
}

// RecordDescriptor is the static description of a record type: its ordered
// field set, its place in a specialization chain, and its instance factory.
// Descriptors are built once per record type and registered in a Directory.
type RecordDescriptor struct {
	// Name uniquely identifies the record type within a Directory
	Name string
	// Module is the logical namespace of the declaring package, used by
	// structural specialization to prefer same-module subtypes
	Module string
	// Extends names the base descriptor this type specializes, if any
	Extends string
	// ExtensionPoint marks base types meant to be replaced by a more
	// specific subtype during deserialization
	ExtensionPoint bool
	// TypeArgs binds the base chain's generic parameters to concrete types
	TypeArgs map[string]*Type
	// Fields holds the fields declared directly on this type
	Fields []FieldDescriptor
	// New constructs a zero-valued instance of the record
	New func() Record
}

// RecordBuilder assembles a RecordDescriptor. Registration code reads as a
// declaration:
//
//	var httpSettingsDesc = codec.NewRecord("HttpDatasetSettings").
//		Module("ds.protocol.http").
//		Extends("DatasetSettings").
//		Field(codec.FieldDescriptor{Name: "url", Type: codec.Text(), ...}).
//		New(func() codec.Record { return &HTTPSettings{} }).
//		Build()
type RecordBuilder struct {
	desc RecordDescriptor
}

// NewRecord starts a descriptor for the named record type
func NewRecord(name string) *RecordBuilder {
	return &RecordBuilder{desc: RecordDescriptor{Name: name}}
}

// Module sets the logical namespace of the record type
func (b *RecordBuilder) Module(module string) *RecordBuilder {
	b.desc.Module = module
	return b
}

// Extends names the base descriptor this record specializes
func (b *RecordBuilder) Extends(base string) *RecordBuilder {
	b.desc.Extends = base
	return b
}

// ExtensionPoint marks the record as a polymorphic base to be replaced by
// the most specific matching subtype during deserialization
func (b *RecordBuilder) ExtensionPoint() *RecordBuilder {
	b.desc.ExtensionPoint = true
	return b
}

// Bind fixes a generic parameter of the base chain to a concrete type
func (b *RecordBuilder) Bind(param string, t *Type) *RecordBuilder {
	if b.desc.TypeArgs == nil {
		b.desc.TypeArgs = make(map[string]*Type)
	}
	b.desc.TypeArgs[param] = t
	return b
}

// Field appends a field declaration
func (b *RecordBuilder) Field(fd FieldDescriptor) *RecordBuilder {
	b.desc.Fields = append(b.desc.Fields, fd)
	return b
}

// New sets the instance factory
func (b *RecordBuilder) New(fn func() Record) *RecordBuilder {
	b.desc.New = fn
	return b
}

// Build finalizes the descriptor
func (b *RecordBuilder) Build() *RecordDescriptor {
	desc := b.desc
	return &desc
}

// Validate checks that a descriptor is record-shaped: named, with a factory
// and introspectable fields.
func (d *RecordDescriptor) Validate() error {
	if d == nil {
		return errors.NewStructural("nil record descriptor")
	}
	if d.Name == "" {
		return errors.NewStructural("record descriptor has no name")
	}
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if f.Name == "" {
			return errors.NewValidation("record field has no name").
				WithDetail("record", d.Name)
		}
		if seen[f.Name] {
			return errors.NewValidation("duplicate record field").
				WithDetail("record", d.Name).
				WithDetail("field", f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}
