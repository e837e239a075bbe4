// Package json provides JSON serialization with pooled buffers
package json

import (
	"bytes"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/resourcekit/pkg/pool"
)

// Marshal serializes a value to JSON using a pooled buffer
func Marshal(v interface{}) ([]byte, error) {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	enc := gojson.NewEncoder(buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	// Encoder appends a trailing newline; strip it so callers get bare JSON
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return bytes.TrimRight(out, "\n"), nil
}

// MarshalIndent serializes a value to indented JSON
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// Unmarshal deserializes JSON data into a value
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// Encode writes a value as JSON to the given writer
func Encode(w io.Writer, v interface{}) error {
	return gojson.NewEncoder(w).Encode(v)
}

// Decode reads JSON from the given reader into a value
func Decode(r io.Reader, v interface{}) error {
	return gojson.NewDecoder(r).Decode(v)
}
