package resource

import (
	"context"

	"github.com/ajitpratap0/resourcekit/pkg/codec"
)

// LinkedServiceMethod names the operation contracts a linked service implements.
type LinkedServiceMethod string

const (
	// LinkedServiceConnect establishes a connection to the backend data store.
	LinkedServiceConnect LinkedServiceMethod = "connect"
	// LinkedServiceTestConnection verifies that the connection is healthy.
	LinkedServiceTestConnection LinkedServiceMethod = "test_connection"
)

// EnumValue returns the underlying scalar of the method
func (m LinkedServiceMethod) EnumValue() string {
	return string(m)
}

// LinkedServiceMethods returns all linked-service operation methods
func LinkedServiceMethods() []LinkedServiceMethod {
	return []LinkedServiceMethod{
		LinkedServiceConnect,
		LinkedServiceTestConnection,
	}
}

// LinkedServiceMethodEnum is the codec enumeration descriptor for
// linked-service methods
var LinkedServiceMethodEnum = &codec.EnumDescriptor{
	Name:   "LinkedServiceMethod",
	Values: []string{string(LinkedServiceConnect), string(LinkedServiceTestConnection)},
	Make:   func(s string) interface{} { return LinkedServiceMethod(s) },
}

// LinkedService is the operation contract implemented by concrete
// linked-service plugins. It carries the connection information needed to
// reach a related data store. This core consumes the contract; it never
// implements it.
type LinkedService interface {
	// Type returns the namespaced type string of the linked service
	Type() string

	// Connect establishes a connection and returns the backend handle
	Connect(ctx context.Context) (interface{}, error)

	// TestConnection verifies connectivity, returning success and an error
	// message when unhealthy
	TestConnection(ctx context.Context) (bool, string)

	// Close releases the connection
	Close() error
}
