// Package resource defines the record contracts implemented by dataset and
// linked-service plugins, the descriptor metadata that identifies one
// discoverable implementation, and the operation report produced around
// every contract-method invocation.
package resource

import "fmt"

// Key is the composite identity of a discoverable implementation. Every
// (kind, version) pair is unique within a registry table.
type Key struct {
	Kind    string
	Version string
}

// String returns the canonical KIND:vVERSION form
func (k Key) String() string {
	return fmt.Sprintf("%s:v%s", k.Kind, k.Version)
}

// Descriptor identifies one discoverable dataset or linked-service
// implementation. Descriptors are immutable value objects produced entirely
// from package metadata at discovery time.
type Descriptor struct {
	// Kind is the namespaced identity string, e.g. "DS.RESOURCE.DATASET.HTTP"
	Kind string
	// Name is the display name
	Name string
	// ClassName is the fully-qualified locator used for lazy loading
	ClassName string
	// Version is the semantic version string
	Version string
	// Description is optional free-form text
	Description string
}

// Key returns the composite (kind, version) identity
func (d Descriptor) Key() Key {
	return Key{Kind: d.Kind, Version: d.Version}
}

// String returns the canonical KIND:vVERSION form
func (d Descriptor) String() string {
	return d.Key().String()
}
