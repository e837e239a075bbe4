package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/resourcekit/pkg/errors"
	"github.com/ajitpratap0/resourcekit/pkg/resource"
)

// DefaultManifestName is the conventional manifest file name looked up at
// each package root.
const DefaultManifestName = "resource.yaml"

// ManifestEntry is one declared dataset or linked-service implementation
// inside a package manifest.
type ManifestEntry struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	ClassName   string `yaml:"class_name"`
}

// Validate checks the fields every descriptor must carry
func (e ManifestEntry) Validate() error {
	missing := ""
	switch {
	case e.Name == "":
		missing = "name"
	case e.Kind == "":
		missing = "kind"
	case e.Version == "":
		missing = "version"
	case e.ClassName == "":
		missing = "class_name"
	}
	if missing != "" {
		return errors.NewValidation(fmt.Sprintf("manifest entry missing %s", missing)).
			WithDetail("field", missing).
			WithDetail("kind", e.Kind).
			WithDetail("name", e.Name)
	}
	return nil
}

// Descriptor converts the entry into an immutable resource descriptor
func (e ManifestEntry) Descriptor() resource.Descriptor {
	return resource.Descriptor{
		Kind:        e.Kind,
		Name:        e.Name,
		ClassName:   e.ClassName,
		Version:     e.Version,
		Description: e.Description,
	}
}

// Manifest is the declarative resource manifest found at a package root.
type Manifest struct {
	PackageName    string          `yaml:"package-name"`
	Name           string          `yaml:"name"`
	Description    string          `yaml:"description"`
	Datasets       []ManifestEntry `yaml:"dataset"`
	LinkedServices []ManifestEntry `yaml:"linked_service"`
}

// ParseManifest decodes manifest YAML. Empty documents are rejected so that
// zero-byte manifest files are skipped like absent ones.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse resource manifest")
	}
	if m.PackageName == "" && m.Name == "" && len(m.Datasets) == 0 && len(m.LinkedServices) == 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "resource manifest is empty")
	}
	return &m, nil
}

// LoadManifest reads and parses the manifest file at the given path
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from configured plugin directories
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read resource manifest")
	}
	return ParseManifest(data)
}
