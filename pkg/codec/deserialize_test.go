package codec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/resourcekit/pkg/codec"
	"github.com/ajitpratap0/resourcekit/pkg/errors"
)

func TestDeserializeAbsentFieldsKeepZeroValues(t *testing.T) {
	engine := newTestEngine(t)

	rec, err := engine.Deserialize(profileDesc, map[string]interface{}{"name": "only"})
	require.NoError(t, err)

	p := rec.(*Profile)
	assert.Equal(t, "only", p.Name)
	assert.Zero(t, p.Age)
	assert.Nil(t, p.Address)
	assert.Empty(t, p.Tags)
}

func TestDeserializeIgnoresUnknownKeys(t *testing.T) {
	engine := newTestEngine(t)

	rec, err := engine.Deserialize(addressDesc, map[string]interface{}{
		"city":    "Lima",
		"zip":     "15001",
		"unknown": "dropped",
	})
	require.NoError(t, err)
	assert.Equal(t, &Address{City: "Lima", Zip: "15001"}, rec)
}

func TestDeserializeNilDataYieldsZeroInstance(t *testing.T) {
	engine := newTestEngine(t)

	rec, err := engine.Deserialize(addressDesc, nil)
	require.NoError(t, err)
	assert.Equal(t, &Address{}, rec)
}

func TestDeserializeStructuralErrors(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Deserialize(nil, map[string]interface{}{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeStructural))

	notConstructible := codec.NewRecord("Phantom").Build()
	_, err = engine.Deserialize(notConstructible, map[string]interface{}{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeStructural))
	assert.Contains(t, err.Error(), "not constructible")
}

func TestDeserializeFieldConversionErrorNamesField(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Deserialize(profileDesc, map[string]interface{}{
		"age": "not-a-number",
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConversion))

	var structured *errors.Error
	require.ErrorAs(t, err, &structured)
	assert.Equal(t, "age", structured.Details["field"])
	assert.Equal(t, "Profile", structured.Details["record"])
}

// Document fixtures exercise converter precedence and NoInit defaults.
type Document struct {
	Title   string
	Slug    string
	Labels  []string
	Revisit int
}

func (d *Document) Descriptor() *codec.RecordDescriptor { return documentDesc }

var documentDesc = codec.NewRecord("Document").
	Module("fixtures").
	New(func() codec.Record { return &Document{} }).
	Field(codec.FieldDescriptor{
		Name: "title",
		Type: codec.Text(),
		Get:  func(r codec.Record) interface{} { return r.(*Document).Title },
		Set: func(r codec.Record, v interface{}) error {
			r.(*Document).Title = v.(string)
			return nil
		},
	}).
	Field(codec.FieldDescriptor{
		// Declared as int so the generic rules would reject the raw string;
		// the converter must win
		Name: "slug",
		Type: codec.Int(),
		Converter: func(raw interface{}) (interface{}, error) {
			return strings.ToLower(strings.ReplaceAll(raw.(string), " ", "-")), nil
		},
		Get: func(r codec.Record) interface{} { return r.(*Document).Slug },
		Set: func(r codec.Record, v interface{}) error {
			r.(*Document).Slug = v.(string)
			return nil
		},
	}).
	Field(codec.FieldDescriptor{
		Name:   "labels",
		Type:   codec.ListOf(codec.Text()),
		NoInit: true,
		Default: func() interface{} {
			return []interface{}{"untagged"}
		},
		Get: func(r codec.Record) interface{} { return r.(*Document).Labels },
		Set: func(r codec.Record, v interface{}) error {
			items := v.([]interface{})
			labels := make([]string, len(items))
			for i, item := range items {
				labels[i] = item.(string)
			}
			r.(*Document).Labels = labels
			return nil
		},
	}).
	Field(codec.FieldDescriptor{
		Name:   "revisit",
		Type:   codec.Int(),
		NoInit: true,
		Default: func() interface{} {
			return 30
		},
		Get: func(r codec.Record) interface{} { return r.(*Document).Revisit },
		Set: func(r codec.Record, v interface{}) error {
			r.(*Document).Revisit = v.(int)
			return nil
		},
	}).
	Build()

func TestDeserializeConverterPrecedence(t *testing.T) {
	engine := newTestEngine(t, documentDesc)

	rec, err := engine.Deserialize(documentDesc, map[string]interface{}{
		"title": "Release Notes",
		"slug":  "Release Notes",
	})
	require.NoError(t, err)
	assert.Equal(t, "release-notes", rec.(*Document).Slug)
}

func TestDeserializeNoInitDefaults(t *testing.T) {
	engine := newTestEngine(t, documentDesc)

	rec, err := engine.Deserialize(documentDesc, map[string]interface{}{
		"title": "Defaults",
	})
	require.NoError(t, err)

	doc := rec.(*Document)
	assert.Equal(t, []string{"untagged"}, doc.Labels)
	assert.Equal(t, 30, doc.Revisit)
}

func TestDeserializeNoInitDefaultSkippedWhenSupplied(t *testing.T) {
	engine := newTestEngine(t, documentDesc)

	rec, err := engine.Deserialize(documentDesc, map[string]interface{}{
		"title":   "Supplied",
		"labels":  []interface{}{"ops"},
		"revisit": 7,
	})
	require.NoError(t, err)

	doc := rec.(*Document)
	assert.Equal(t, []string{"ops"}, doc.Labels)
	assert.Equal(t, 7, doc.Revisit)
}

// Generic-parameter fixtures: Envelope<T> specialized to T=int by IntEnvelope.
type IntEnvelope struct {
	Payload interface{}
}

func (e *IntEnvelope) Descriptor() *codec.RecordDescriptor { return intEnvelopeDesc }

var envelopeDesc = codec.NewRecord("Envelope").
	Module("fixtures").
	New(func() codec.Record { return &IntEnvelope{} }).
	Field(codec.FieldDescriptor{
		Name: "payload",
		Type: codec.Param("T"),
		Get:  func(r codec.Record) interface{} { return r.(*IntEnvelope).Payload },
		Set: func(r codec.Record, v interface{}) error {
			r.(*IntEnvelope).Payload = v
			return nil
		},
	}).
	Build()

var intEnvelopeDesc = codec.NewRecord("IntEnvelope").
	Module("fixtures").
	Extends("Envelope").
	Bind("T", codec.Int()).
	New(func() codec.Record { return &IntEnvelope{} }).
	Build()

func TestDeserializeResolvesGenericParams(t *testing.T) {
	engine := newTestEngine(t, envelopeDesc, intEnvelopeDesc)

	// The subtype's binding T=int applies to the inherited field, so the
	// raw string is coerced
	rec, err := engine.Deserialize(intEnvelopeDesc, map[string]interface{}{"payload": "42"})
	require.NoError(t, err)
	assert.Equal(t, 42, rec.(*IntEnvelope).Payload)

	// On the unspecialized base the parameter is unbound and degrades to
	// any, passing the value through unchanged
	rec, err = engine.Deserialize(envelopeDesc, map[string]interface{}{"payload": "42"})
	require.NoError(t, err)
	assert.Equal(t, "42", rec.(*IntEnvelope).Payload)
}
