package resource

import (
	"context"

	"github.com/ajitpratap0/resourcekit/pkg/codec"
)

// DatasetMethod names the operation contracts a dataset implements.
type DatasetMethod string

const (
	// DatasetCreate inserts rows into the target. Atomic. Not idempotent.
	DatasetCreate DatasetMethod = "create"
	// DatasetRead reads all data from the source. Idempotent.
	DatasetRead DatasetMethod = "read"
	// DatasetUpdate updates existing rows matched by identity columns. Atomic. Idempotent.
	DatasetUpdate DatasetMethod = "update"
	// DatasetUpsert inserts or updates rows matched by identity columns. Atomic. Idempotent.
	DatasetUpsert DatasetMethod = "upsert"
	// DatasetDelete removes specific rows matched by identity columns. Atomic. Idempotent.
	DatasetDelete DatasetMethod = "delete"
	// DatasetPurge removes all content from the target. Atomic. Idempotent.
	DatasetPurge DatasetMethod = "purge"
	// DatasetList discovers available resources. Idempotent.
	DatasetList DatasetMethod = "list"
	// DatasetRename renames a resource in the backend. Atomic. Not idempotent.
	DatasetRename DatasetMethod = "rename"
)

// EnumValue returns the underlying scalar of the method
func (m DatasetMethod) EnumValue() string {
	return string(m)
}

// DatasetMethods returns all dataset operation methods in declaration order
func DatasetMethods() []DatasetMethod {
	return []DatasetMethod{
		DatasetCreate,
		DatasetRead,
		DatasetUpdate,
		DatasetUpsert,
		DatasetDelete,
		DatasetPurge,
		DatasetList,
		DatasetRename,
	}
}

// DatasetMethodEnum is the codec enumeration descriptor for dataset methods
var DatasetMethodEnum = &codec.EnumDescriptor{
	Name: "DatasetMethod",
	Values: func() []string {
		methods := DatasetMethods()
		values := make([]string, len(methods))
		for i, m := range methods {
			values[i] = string(m)
		}
		return values
	}(),
	Make: func(s string) interface{} { return DatasetMethod(s) },
}

// Dataset is the operation contract implemented by concrete dataset plugins.
// It identifies data within a data store, such as a table, files, folders or
// documents. This core consumes the contract; it never implements it.
type Dataset interface {
	// Kind returns the namespaced kind string of the dataset
	Kind() string

	Create(ctx context.Context) error
	Read(ctx context.Context) error
	Update(ctx context.Context) error
	Upsert(ctx context.Context) error
	Delete(ctx context.Context) error
	Purge(ctx context.Context) error
	List(ctx context.Context) error
	Rename(ctx context.Context) error

	// Close releases any backend handles held by the dataset
	Close() error
}
