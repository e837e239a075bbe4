package codec

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/resourcekit/pkg/errors"
	"github.com/ajitpratap0/resourcekit/pkg/logger"
)

// Directory is the type directory: it holds every registered record
// descriptor, the subtype sets of extension-point bases, and the class-name
// factory table used for lazy loading. Registration happens once at process
// startup; lookups afterwards are read-only and safe for concurrent use.
type Directory struct {
	mu       sync.RWMutex
	records  map[string]*RecordDescriptor
	subtypes map[string][]string // base name -> direct subtype names, registration order
	classes  map[string]*RecordDescriptor
	logger   *zap.Logger
}

// Global directory instance
var defaultDirectory = NewDirectory()

// NewDirectory creates an empty type directory
func NewDirectory() *Directory {
	return &Directory{
		records:  make(map[string]*RecordDescriptor),
		subtypes: make(map[string][]string),
		classes:  make(map[string]*RecordDescriptor),
		logger:   logger.Get().With(zap.String("component", "type_directory")),
	}
}

// Default returns the process-wide type directory
func Default() *Directory {
	return defaultDirectory
}

// Register adds a record descriptor to the directory. Registering a
// descriptor whose Extends names a base also records it as a subtype of
// that base for structural specialization.
func (d *Directory) Register(desc *RecordDescriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.records[desc.Name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("record type %s already registered", desc.Name))
	}

	d.records[desc.Name] = desc
	if desc.Extends != "" {
		d.subtypes[desc.Extends] = append(d.subtypes[desc.Extends], desc.Name)
	}
	d.logger.Debug("record type registered",
		zap.String("record", desc.Name),
		zap.String("module", desc.Module),
	)
	return nil
}

// RegisterClass binds a dotted class path to a record descriptor, making it
// loadable by name from manifest metadata. The descriptor is registered
// first if the directory does not know it yet.
func (d *Directory) RegisterClass(classPath string, desc *RecordDescriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	if d.Lookup(desc.Name) == nil {
		if err := d.Register(desc); err != nil {
			return err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.classes[classPath]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("class %s already registered", classPath))
	}
	d.classes[classPath] = desc
	return nil
}

// Lookup returns the descriptor registered under the given record name, or
// nil when unknown.
func (d *Directory) Lookup(name string) *RecordDescriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.records[name]
}

// LookupClass resolves a dotted class path to its record descriptor.
func (d *Directory) LookupClass(classPath string) (*RecordDescriptor, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	desc, ok := d.classes[classPath]
	return desc, ok
}

// Classes returns the registered class paths, primarily for diagnostics.
func (d *Directory) Classes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	paths := make([]string, 0, len(d.classes))
	for path := range d.classes {
		paths = append(paths, path)
	}
	return paths
}

// Subtypes returns the direct and transitive subtypes of the named base, in
// registration order.
func (d *Directory) Subtypes(base string) []*RecordDescriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*RecordDescriptor
	seen := map[string]bool{base: true}
	queue := append([]string(nil), d.subtypes[base]...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		if desc, ok := d.records[name]; ok {
			out = append(out, desc)
		}
		queue = append(queue, d.subtypes[name]...)
	}
	return out
}

// FieldsOf returns the full ordered field set of a descriptor: the base
// chain's fields from the root down, with fields redeclared by a subtype
// overriding the inherited declaration in place.
func (d *Directory) FieldsOf(desc *RecordDescriptor) []FieldDescriptor {
	chain := d.chainOf(desc)

	var fields []FieldDescriptor
	index := make(map[string]int)
	for i := len(chain) - 1; i >= 0; i-- {
		for _, f := range chain[i].Fields {
			if at, ok := index[f.Name]; ok {
				fields[at] = f
				continue
			}
			index[f.Name] = len(fields)
			fields = append(fields, f)
		}
	}
	return fields
}

// ResolveParams builds the generic-parameter resolution map of a descriptor
// by walking its specialization chain. Bindings declared closer to the leaf
// win.
func (d *Directory) ResolveParams(desc *RecordDescriptor) map[string]*Type {
	chain := d.chainOf(desc)

	params := make(map[string]*Type)
	for _, link := range chain {
		for name, t := range link.TypeArgs {
			if _, bound := params[name]; !bound {
				params[name] = t
			}
		}
	}
	return params
}

// chainOf returns the specialization chain leaf-first. Unknown bases end the
// walk; cycles are guarded against.
func (d *Directory) chainOf(desc *RecordDescriptor) []*RecordDescriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()

	chain := make([]*RecordDescriptor, 0, 4)
	seen := make(map[string]bool)
	for current := desc; current != nil && !seen[current.Name]; {
		seen[current.Name] = true
		chain = append(chain, current)
		if current.Extends == "" {
			break
		}
		current = d.records[current.Extends]
	}
	return chain
}

// Register adds a record descriptor to the default directory
func Register(desc *RecordDescriptor) error {
	return defaultDirectory.Register(desc)
}

// RegisterClass binds a class path in the default directory
func RegisterClass(classPath string, desc *RecordDescriptor) error {
	return defaultDirectory.RegisterClass(classPath, desc)
}

// MustRegister registers a descriptor and panics on failure. Intended for
// package init functions where a registration error is a programming error.
func MustRegister(desc *RecordDescriptor) *RecordDescriptor {
	if err := Register(desc); err != nil {
		panic(err)
	}
	return desc
}
