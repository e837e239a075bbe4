// Package registry discovers installed resource packages and materializes
// typed dataset and linked-service instances from wire-format configuration.
//
// Discovery scans two groups of package directories ("protocol
// implementations" and "provider implementations") for declarative resource
// manifests and builds read-only lookup tables keyed by (kind, version).
// Discovery never fails: packages that cannot be resolved are skipped with a
// diagnostic log so one malformed plugin cannot break the whole registry.
// Instantiation resolves a configuration's (kind, version) to a registered
// class and asks the codec engine to deserialize the configuration into the
// concrete typed instance.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/resourcekit/pkg/codec"
	"github.com/ajitpratap0/resourcekit/pkg/errors"
	"github.com/ajitpratap0/resourcekit/pkg/logger"
	"github.com/ajitpratap0/resourcekit/pkg/resource"
)

// Config controls where discovery looks for installed packages.
type Config struct {
	// ProtocolDirs are roots whose subdirectories are protocol packages
	ProtocolDirs []string `yaml:"protocol_dirs"`
	// ProviderDirs are roots whose subdirectories are provider packages
	ProviderDirs []string `yaml:"provider_dirs"`
	// ManifestName overrides the conventional manifest file name
	ManifestName string `yaml:"manifest_name"`
}

// ConfigFromEnv builds a discovery config from RESOURCEKIT_PROTOCOL_DIRS,
// RESOURCEKIT_PROVIDER_DIRS (path-list separated) and
// RESOURCEKIT_MANIFEST_NAME.
func ConfigFromEnv() Config {
	return Config{
		ProtocolDirs: splitPathList(os.Getenv("RESOURCEKIT_PROTOCOL_DIRS")),
		ProviderDirs: splitPathList(os.Getenv("RESOURCEKIT_PROVIDER_DIRS")),
		ManifestName: os.Getenv("RESOURCEKIT_MANIFEST_NAME"),
	}
}

func splitPathList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, string(os.PathListSeparator))
	dirs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			dirs = append(dirs, p)
		}
	}
	return dirs
}

// Registry maps (kind, version) pairs to loadable implementation classes and
// produces ready-to-use typed instances from configuration. Lookup tables
// are built once at construction (or on an explicit re-discovery) and are
// read-only afterwards, so concurrent reads need no caller-side locking.
type Registry struct {
	mu             sync.RWMutex
	cfg            Config
	dir            *codec.Directory
	engine         *codec.Engine
	packages       map[string]*Manifest
	datasets       map[resource.Key]resource.Descriptor
	linkedServices map[resource.Key]resource.Descriptor
	logger         *zap.Logger
}

// New creates a registry and runs one discovery pass. A nil directory falls
// back to the process-wide codec directory.
func New(cfg Config, dir *codec.Directory) *Registry {
	if dir == nil {
		dir = codec.Default()
	}
	if cfg.ManifestName == "" {
		cfg.ManifestName = DefaultManifestName
	}
	r := &Registry{
		cfg:    cfg,
		dir:    dir,
		engine: codec.NewEngine(dir),
		logger: logger.Get().With(zap.String("component", "resource_registry")),
	}
	r.DiscoverResources()
	return r
}

// Global registry instance, constructed lazily from the environment
var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the process-wide registry, paying the discovery cost once.
// Prefer constructing a Registry with New and passing it to consumers; the
// shared instance exists for hosts that cannot thread one through.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New(ConfigFromEnv(), codec.Default())
	})
	return defaultRegistry
}

// DiscoverResources rebuilds the lookup tables from scratch by scanning the
// configured package directories. It is idempotent and never fails: a
// whole-pass failure degrades to zero resources discovered.
func (r *Registry) DiscoverResources() {
	packages := make(map[string]*Manifest)
	order := make([]string, 0, 8)

	// Provider packages scan last so they win package-name merges
	for _, group := range []struct {
		name string
		dirs []string
	}{
		{"protocols", r.cfg.ProtocolDirs},
		{"providers", r.cfg.ProviderDirs},
	} {
		for _, root := range group.dirs {
			for name, manifest := range r.scanRoot(root, group.name) {
				if _, seen := packages[name]; !seen {
					order = append(order, name)
				}
				packages[name] = manifest
			}
		}
	}

	datasets := make(map[resource.Key]resource.Descriptor)
	linkedServices := make(map[resource.Key]resource.Descriptor)
	for _, name := range order {
		manifest := packages[name]
		r.insertEntries(datasets, name, "dataset", manifest.Datasets)
		r.insertEntries(linkedServices, name, "linked_service", manifest.LinkedServices)
	}

	r.mu.Lock()
	r.packages = packages
	r.datasets = datasets
	r.linkedServices = linkedServices
	r.mu.Unlock()

	r.logger.Info("resource discovery complete",
		zap.Int("packages", len(packages)),
		zap.Int("datasets", len(datasets)),
		zap.Int("linked_services", len(linkedServices)),
	)
}

// scanRoot enumerates the package subdirectories of one root and parses
// their manifests. Packages whose manifest is absent, empty, or malformed
// are skipped silently.
func (r *Registry) scanRoot(root, group string) map[string]*Manifest {
	found := make(map[string]*Manifest)

	entries, err := os.ReadDir(root)
	if err != nil {
		r.logger.Debug("package root not readable, skipping",
			zap.String("root", root),
			zap.String("group", group),
			zap.Error(err),
		)
		return found
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifestPath := filepath.Join(root, entry.Name(), r.cfg.ManifestName)
		manifest, err := LoadManifest(manifestPath)
		if err != nil {
			r.logger.Debug("package manifest unusable, skipping",
				zap.String("package", entry.Name()),
				zap.String("manifest", manifestPath),
				zap.Error(err),
			)
			continue
		}
		name := manifest.PackageName
		if name == "" {
			name = entry.Name()
		}
		found[name] = manifest
	}
	return found
}

// insertEntries validates manifest entries individually and inserts their
// descriptors under (kind, version). Duplicate keys are last-writer-wins
// with a warning; invalid entries are skipped without aborting the package.
func (r *Registry) insertEntries(table map[resource.Key]resource.Descriptor, pkg, role string, entries []ManifestEntry) {
	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			r.logger.Warn("skipping invalid manifest entry",
				zap.String("package", pkg),
				zap.String("role", role),
				zap.Error(err),
			)
			continue
		}
		desc := entry.Descriptor()
		key := desc.Key()
		if previous, exists := table[key]; exists {
			r.logger.Warn("duplicate resource key, keeping later declaration",
				zap.String("key", key.String()),
				zap.String("replaced_class", previous.ClassName),
				zap.String("package", pkg),
			)
		}
		table[key] = desc
	}
}

// Packages returns the raw parsed manifest of every discovered package,
// keyed by package name. Primarily diagnostic.
func (r *Registry) Packages() map[string]*Manifest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Manifest, len(r.packages))
	for name, manifest := range r.packages {
		out[name] = manifest
	}
	return out
}

// ListDatasets returns the discovered dataset descriptors keyed by
// (kind, version)
func (r *Registry) ListDatasets() map[resource.Key]resource.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[resource.Key]resource.Descriptor, len(r.datasets))
	for key, desc := range r.datasets {
		out[key] = desc
	}
	return out
}

// ListLinkedServices returns the discovered linked-service descriptors
// keyed by (kind, version)
func (r *Registry) ListLinkedServices() map[resource.Key]resource.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[resource.Key]resource.Descriptor, len(r.linkedServices))
	for key, desc := range r.linkedServices {
		out[key] = desc
	}
	return out
}

// CreateDataset resolves the configuration's (kind, version) to a registered
// dataset class and materializes a typed instance from the configuration.
func (r *Registry) CreateDataset(config map[string]interface{}) (resource.Dataset, error) {
	desc, err := r.resolve(config, r.datasetTable)
	if err != nil {
		return nil, err
	}
	rec, err := r.instantiate(desc, config)
	if err != nil {
		return nil, err
	}
	dataset, ok := rec.(resource.Dataset)
	if !ok {
		return nil, errors.NewDeserialization(fmt.Sprintf("class %s does not implement the dataset contract", desc.ClassName)).
			WithDetail("class_name", desc.ClassName).
			WithDetail("kind", desc.Kind)
	}
	return dataset, nil
}

// CreateLinkedService resolves the configuration's (kind, version) to a
// registered linked-service class and materializes a typed instance.
func (r *Registry) CreateLinkedService(config map[string]interface{}) (resource.LinkedService, error) {
	desc, err := r.resolve(config, r.linkedServiceTable)
	if err != nil {
		return nil, err
	}
	rec, err := r.instantiate(desc, config)
	if err != nil {
		return nil, err
	}
	service, ok := rec.(resource.LinkedService)
	if !ok {
		return nil, errors.NewDeserialization(fmt.Sprintf("class %s does not implement the linked-service contract", desc.ClassName)).
			WithDetail("class_name", desc.ClassName).
			WithDetail("kind", desc.Kind)
	}
	return service, nil
}

func (r *Registry) datasetTable() map[resource.Key]resource.Descriptor {
	return r.datasets
}

func (r *Registry) linkedServiceTable() map[resource.Key]resource.Descriptor {
	return r.linkedServices
}

// resolve extracts the composite identity from a configuration and looks up
// the matching descriptor.
func (r *Registry) resolve(config map[string]interface{}, table func() map[resource.Key]resource.Descriptor) (resource.Descriptor, error) {
	kind, ok := config["kind"].(string)
	if !ok || kind == "" {
		return resource.Descriptor{}, errors.NewMissingField("kind")
	}
	version, ok := config["version"].(string)
	if !ok || version == "" {
		return resource.Descriptor{}, errors.NewMissingField("version")
	}

	r.mu.RLock()
	desc, found := table()[resource.Key{Kind: kind, Version: version}]
	r.mu.RUnlock()

	if !found {
		return resource.Descriptor{}, errors.NewUnknownResource(kind, version)
	}
	return desc, nil
}

// instantiate loads the descriptor's class from the type directory and
// deserializes the configuration into it. Load and deserialize failures are
// wrapped as deserialization errors carrying the original cause.
func (r *Registry) instantiate(desc resource.Descriptor, config map[string]interface{}) (codec.Record, error) {
	target, ok := r.dir.LookupClass(desc.ClassName)
	if !ok {
		return nil, errors.NewDeserialization(fmt.Sprintf("class %s is not registered", desc.ClassName)).
			WithDetail("class_name", desc.ClassName).
			WithDetail("kind", desc.Kind).
			WithDetail("version", desc.Version)
	}

	rec, err := r.engine.Deserialize(target, config)
	if err != nil {
		return nil, errors.WrapDeserialization(err, fmt.Sprintf("failed to materialize %s", desc.Key())).
			WithDetail("class_name", desc.ClassName).
			WithDetail("kind", desc.Kind).
			WithDetail("version", desc.Version)
	}
	return rec, nil
}
