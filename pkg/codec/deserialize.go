package codec

import (
	"fmt"

	"github.com/ajitpratap0/resourcekit/pkg/errors"
)

// Deserialize materializes a typed record instance from a string-keyed
// mapping. The target descriptor must be record-shaped; anything else is a
// structural error.
//
// Per declared field present in data, in precedence order: the field's
// registered converter, generic-parameter resolution through the record's
// specialization chain, structural specialization for extension-point record
// fields, then the generic conversion rules. Fields absent from data keep
// the instance's zero value; fields outside constructor initialization
// receive their declared default after construction.
func (e *Engine) Deserialize(desc *RecordDescriptor, data map[string]interface{}) (Record, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if desc.New == nil {
		return nil, errors.NewStructural(fmt.Sprintf("type %s is not constructible", desc.Name)).
			WithDetail("record", desc.Name)
	}
	if data == nil {
		data = map[string]interface{}{}
	}

	fields := e.dir.FieldsOf(desc)
	params := e.dir.ResolveParams(desc)

	rec := desc.New()
	assigned := make(map[string]bool, len(data))

	for _, f := range fields {
		raw, present := data[f.Name]
		if !present {
			continue
		}

		// Field-specific converter takes precedence over every generic rule
		if f.Converter != nil {
			converted, err := f.Converter(raw)
			if err != nil {
				return nil, errors.WrapConversion(err, fmt.Sprintf("converter for field %s failed", f.Name)).
					WithDetail("record", desc.Name).
					WithDetail("field", f.Name)
			}
			if err := e.assign(rec, desc, f, converted); err != nil {
				return nil, err
			}
			assigned[f.Name] = true
			continue
		}

		fieldType := e.resolveFieldType(f.Type, params)
		fieldType = e.specializeFieldType(fieldType, raw, desc.Module)

		converted, err := e.Convert(raw, fieldType)
		if err != nil {
			return nil, errors.WrapConversion(err, fmt.Sprintf("field %s conversion failed", f.Name)).
				WithDetail("record", desc.Name).
				WithDetail("field", f.Name).
				WithDetail("value_type", typeName(raw))
		}
		if err := e.assign(rec, desc, f, converted); err != nil {
			return nil, err
		}
		assigned[f.Name] = true
	}

	// Defaults for fields outside constructor initialization
	for _, f := range fields {
		if f.NoInit && !assigned[f.Name] && f.Default != nil && f.Set != nil {
			if err := e.assign(rec, desc, f, f.Default()); err != nil {
				return nil, err
			}
		}
	}

	return rec, nil
}

// resolveFieldType substitutes an unbound generic parameter with the binding
// established by the record's specialization chain. Parameters with no
// binding degrade to any.
func (e *Engine) resolveFieldType(t *Type, params map[string]*Type) *Type {
	if t == nil {
		return Any()
	}
	if t.Kind != KindParam {
		return t
	}
	if bound, ok := params[t.Param]; ok && bound != nil {
		return bound
	}
	return Any()
}

// specializeFieldType replaces an extension-point record type with the most
// specific registered subtype matching the payload's keys.
func (e *Engine) specializeFieldType(t *Type, raw interface{}, callerModule string) *Type {
	if t == nil || t.Kind != KindRecord {
		return t
	}
	base := e.dir.Lookup(t.Record)
	if base == nil || !base.ExtensionPoint {
		return t
	}
	payload, ok := asStringMap(raw)
	if !ok {
		return t
	}
	if selected := e.Specialize(base, payload, callerModule); selected != base {
		return RecordOf(selected.Name)
	}
	return t
}

// assign writes a converted value into the record, reporting setter
// failures as conversion errors naming the field.
func (e *Engine) assign(rec Record, desc *RecordDescriptor, f FieldDescriptor, v interface{}) error {
	if f.Set == nil {
		return errors.NewConversion(fmt.Sprintf("field %s is not assignable", f.Name)).
			WithDetail("record", desc.Name).
			WithDetail("field", f.Name)
	}
	if err := f.Set(rec, v); err != nil {
		return errors.WrapConversion(err, fmt.Sprintf("cannot assign field %s", f.Name)).
			WithDetail("record", desc.Name).
			WithDetail("field", f.Name).
			WithDetail("value_type", typeName(v))
	}
	return nil
}
