package codec_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/resourcekit/pkg/codec"
)

// Extension-point hierarchy used by the specialization tests:
//
//	ConnectorSettings (base, 1 field)
//	├── AuthSettings        module proto  (2 fields)
//	│   └── OAuthSettings   module proto  (3 fields)
//	└── VendorSettings      module vendor (3 fields)
type ConnectorSettings struct {
	Host string
}

func (s *ConnectorSettings) Descriptor() *codec.RecordDescriptor { return connectorSettingsDesc }

type AuthSettings struct {
	ConnectorSettings
	Token string
}

func (s *AuthSettings) Descriptor() *codec.RecordDescriptor { return authSettingsDesc }

type OAuthSettings struct {
	AuthSettings
	Scope string
}

func (s *OAuthSettings) Descriptor() *codec.RecordDescriptor { return oauthSettingsDesc }

type VendorSettings struct {
	ConnectorSettings
	Token  string
	Region string
}

func (s *VendorSettings) Descriptor() *codec.RecordDescriptor { return vendorSettingsDesc }

func hostField(get func(codec.Record) *string) codec.FieldDescriptor {
	return codec.FieldDescriptor{
		Name: "host",
		Type: codec.Text(),
		Get:  func(r codec.Record) interface{} { return *get(r) },
		Set: func(r codec.Record, v interface{}) error {
			*get(r) = v.(string)
			return nil
		},
	}
}

var connectorSettingsDesc = codec.NewRecord("ConnectorSettings").
	Module("proto").
	ExtensionPoint().
	New(func() codec.Record { return &ConnectorSettings{} }).
	Field(hostField(func(r codec.Record) *string { return &r.(*ConnectorSettings).Host })).
	Build()

var authSettingsDesc = codec.NewRecord("AuthSettings").
	Module("proto").
	Extends("ConnectorSettings").
	New(func() codec.Record { return &AuthSettings{} }).
	Field(hostField(func(r codec.Record) *string { return &r.(*AuthSettings).Host })).
	Field(codec.FieldDescriptor{
		Name: "token",
		Type: codec.Text(),
		Get:  func(r codec.Record) interface{} { return r.(*AuthSettings).Token },
		Set: func(r codec.Record, v interface{}) error {
			r.(*AuthSettings).Token = v.(string)
			return nil
		},
	}).
	Build()

var oauthSettingsDesc = codec.NewRecord("OAuthSettings").
	Module("proto").
	Extends("AuthSettings").
	New(func() codec.Record { return &OAuthSettings{} }).
	Field(hostField(func(r codec.Record) *string { return &r.(*OAuthSettings).Host })).
	Field(codec.FieldDescriptor{
		Name: "token",
		Type: codec.Text(),
		Get:  func(r codec.Record) interface{} { return r.(*OAuthSettings).Token },
		Set: func(r codec.Record, v interface{}) error {
			r.(*OAuthSettings).Token = v.(string)
			return nil
		},
	}).
	Field(codec.FieldDescriptor{
		Name: "scope",
		Type: codec.Text(),
		Get:  func(r codec.Record) interface{} { return r.(*OAuthSettings).Scope },
		Set: func(r codec.Record, v interface{}) error {
			r.(*OAuthSettings).Scope = v.(string)
			return nil
		},
	}).
	Build()

var vendorSettingsDesc = codec.NewRecord("VendorSettings").
	Module("vendor").
	Extends("ConnectorSettings").
	New(func() codec.Record { return &VendorSettings{} }).
	Field(hostField(func(r codec.Record) *string { return &r.(*VendorSettings).Host })).
	Field(codec.FieldDescriptor{
		Name: "token",
		Type: codec.Text(),
		Get:  func(r codec.Record) interface{} { return r.(*VendorSettings).Token },
		Set: func(r codec.Record, v interface{}) error {
			r.(*VendorSettings).Token = v.(string)
			return nil
		},
	}).
	Field(codec.FieldDescriptor{
		Name: "region",
		Type: codec.Text(),
		Get:  func(r codec.Record) interface{} { return r.(*VendorSettings).Region },
		Set: func(r codec.Record, v interface{}) error {
			r.(*VendorSettings).Region = v.(string)
			return nil
		},
	}).
	Build()

func newSettingsEngine(t *testing.T) *codec.Engine {
	t.Helper()
	dir := codec.NewDirectory()
	for _, desc := range []*codec.RecordDescriptor{
		connectorSettingsDesc, authSettingsDesc, oauthSettingsDesc, vendorSettingsDesc,
	} {
		require.NoError(t, dir.Register(desc))
	}
	return codec.NewEngine(dir)
}

func TestSpecializeMonotonicity(t *testing.T) {
	engine := newSettingsEngine(t)

	// All of the deepest subtype's fields present: the deepest wins
	selected := engine.Specialize(connectorSettingsDesc, map[string]interface{}{
		"host": "h", "token": "t", "scope": "s",
	}, "proto")
	assert.Equal(t, "OAuthSettings", selected.Name)

	// Only the mid-chain subtype's fields present: specialization stops there
	selected = engine.Specialize(connectorSettingsDesc, map[string]interface{}{
		"host": "h", "token": "t",
	}, "proto")
	assert.Equal(t, "AuthSettings", selected.Name)

	// An unknown key disqualifies every candidate: the base is kept
	selected = engine.Specialize(connectorSettingsDesc, map[string]interface{}{
		"host": "h", "bogus": true,
	}, "proto")
	assert.Equal(t, "ConnectorSettings", selected.Name)
}

func TestSpecializePrefersCallerModule(t *testing.T) {
	engine := newSettingsEngine(t)

	// Both AuthSettings (proto) and VendorSettings (vendor) cover the
	// payload; the caller's module decides
	payload := map[string]interface{}{"host": "h", "token": "t"}

	selected := engine.Specialize(connectorSettingsDesc, payload, "vendor")
	assert.Equal(t, "VendorSettings", selected.Name)

	selected = engine.Specialize(connectorSettingsDesc, payload, "proto")
	assert.Equal(t, "AuthSettings", selected.Name)

	// No module preference: the tightest covering fit wins
	selected = engine.Specialize(connectorSettingsDesc, payload, "")
	assert.Equal(t, "AuthSettings", selected.Name)
}

func TestSpecializeKeepsBaseWithoutSubtypes(t *testing.T) {
	dir := codec.NewDirectory()
	require.NoError(t, dir.Register(connectorSettingsDesc))
	engine := codec.NewEngine(dir)

	selected := engine.Specialize(connectorSettingsDesc, map[string]interface{}{"host": "h"}, "proto")
	assert.Equal(t, "ConnectorSettings", selected.Name)
}

func TestSpecializeKeepsBaseWhenNothingForcesIt(t *testing.T) {
	engine := newSettingsEngine(t)

	// A payload shaped like the base itself keeps the base even though
	// every subtype covers it too
	selected := engine.Specialize(connectorSettingsDesc, map[string]interface{}{"host": "h"}, "proto")
	assert.Equal(t, "ConnectorSettings", selected.Name)

	selected = engine.Specialize(connectorSettingsDesc, map[string]interface{}{}, "proto")
	assert.Equal(t, "ConnectorSettings", selected.Name)
}

func TestDeserializeSpecializesExtensionPointField(t *testing.T) {
	dir := codec.NewDirectory()
	for _, desc := range []*codec.RecordDescriptor{
		connectorSettingsDesc, authSettingsDesc, oauthSettingsDesc, vendorSettingsDesc, connectionDesc,
	} {
		require.NoError(t, dir.Register(desc))
	}
	engine := codec.NewEngine(dir)

	rec, err := engine.Deserialize(connectionDesc, map[string]interface{}{
		"name": "primary",
		"settings": map[string]interface{}{
			"host":  "example.test",
			"token": "secret",
			"scope": "read",
		},
	})
	require.NoError(t, err)

	conn := rec.(*Connection)
	oauth, ok := conn.Settings.(*OAuthSettings)
	require.True(t, ok, "settings should specialize to OAuthSettings, got %T", conn.Settings)
	assert.Equal(t, "example.test", oauth.Host)
	assert.Equal(t, "secret", oauth.Token)
	assert.Equal(t, "read", oauth.Scope)
}

// Connection embeds an extension-point settings field.
type Connection struct {
	Name     string
	Settings codec.Record
}

func (c *Connection) Descriptor() *codec.RecordDescriptor { return connectionDesc }

var connectionDesc = codec.NewRecord("Connection").
	Module("proto").
	New(func() codec.Record { return &Connection{} }).
	Field(codec.FieldDescriptor{
		Name: "name",
		Type: codec.Text(),
		Get:  func(r codec.Record) interface{} { return r.(*Connection).Name },
		Set: func(r codec.Record, v interface{}) error {
			r.(*Connection).Name = v.(string)
			return nil
		},
	}).
	Field(codec.FieldDescriptor{
		Name: "settings",
		Type: codec.RecordOf("ConnectorSettings"),
		Get: func(r codec.Record) interface{} {
			if s := r.(*Connection).Settings; s != nil {
				return s
			}
			return nil
		},
		Set: func(r codec.Record, v interface{}) error {
			if v == nil {
				r.(*Connection).Settings = nil
				return nil
			}
			rec, ok := v.(codec.Record)
			if !ok {
				return fmt.Errorf("expected record settings, got %T", v)
			}
			r.(*Connection).Settings = rec
			return nil
		},
	}).
	Build()
