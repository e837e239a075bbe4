package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/resourcekit/pkg/codec"
	"github.com/ajitpratap0/resourcekit/pkg/config"
	"github.com/ajitpratap0/resourcekit/pkg/errors"
	"github.com/ajitpratap0/resourcekit/pkg/json"
	"github.com/ajitpratap0/resourcekit/pkg/logger"
	"github.com/ajitpratap0/resourcekit/pkg/resource"
	"github.com/ajitpratap0/resourcekit/pkg/resource/registry"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	v := viper.New()
	v.SetEnvPrefix("RESOURCEKIT")
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "resourcekit",
		Short: "resourcekit - resource plugin registry and codec toolkit",
		Long: `resourcekit is the plugin backbone of a data-connector framework.
It discovers installed resource packages declaring dataset and linked-service
implementations and materializes typed instances from configuration.`,
	}

	root.PersistentFlags().String("settings", "", "Path to the resourcekit settings YAML file")
	root.PersistentFlags().StringSlice("protocol-dir", nil, "Root directory containing protocol packages (repeatable)")
	root.PersistentFlags().StringSlice("provider-dir", nil, "Root directory containing provider packages (repeatable)")
	root.PersistentFlags().String("manifest-name", "", "Resource manifest file name (default resource.yaml)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (default error)")
	_ = v.BindPFlag("settings", root.PersistentFlags().Lookup("settings"))
	_ = v.BindPFlag("protocol_dirs", root.PersistentFlags().Lookup("protocol-dir"))
	_ = v.BindPFlag("provider_dirs", root.PersistentFlags().Lookup("provider-dir"))
	_ = v.BindPFlag("manifest_name", root.PersistentFlags().Lookup("manifest-name"))
	_ = v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))

	// Version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("resourcekit v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	// List command to show discovered resources
	var output string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered datasets and linked services",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := buildRegistry(v)
			if err != nil {
				return err
			}
			return printResources(reg, output)
		},
	}
	listCmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text or json)")
	root.AddCommand(listCmd)

	// Validate command to exercise instantiation against a config file
	var configFile, role string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a resource configuration by materializing it",
		Long: `Validate parses a YAML configuration file, resolves its kind and version
against the discovered resources, and attempts to materialize a typed
instance. Concrete implementation packages must be linked into the binary
for instantiation to succeed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := buildRegistry(v)
			if err != nil {
				return err
			}
			return validateConfig(reg, configFile, role)
		},
	}
	validateCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to resource configuration YAML file (required)")
	validateCmd.Flags().StringVarP(&role, "role", "r", "dataset", "Resource role (dataset or linked_service)")
	_ = validateCmd.MarkFlagRequired("config")
	root.AddCommand(validateCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRegistry initializes logging and constructs a registry from the
// layered configuration: defaults, settings file, environment, then flags.
func buildRegistry(v *viper.Viper) (*registry.Registry, error) {
	cfg, err := config.Load(v.GetString("settings"))
	if err != nil {
		return nil, err
	}
	if dirs := v.GetStringSlice("protocol_dirs"); len(dirs) > 0 {
		cfg.Registry.ProtocolDirs = dirs
	}
	if dirs := v.GetStringSlice("provider_dirs"); len(dirs) > 0 {
		cfg.Registry.ProviderDirs = dirs
	}
	if name := v.GetString("manifest_name"); name != "" {
		cfg.Registry.ManifestName = name
	}
	if level := v.GetString("log_level"); level != "" {
		cfg.LogLevel = level
	}

	if err := logger.Init(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	}); err != nil {
		return nil, err
	}
	return registry.New(cfg.Registry, codec.Default()), nil
}

// printResources renders the discovered lookup tables.
func printResources(reg *registry.Registry, output string) error {
	datasets := reg.ListDatasets()
	linkedServices := reg.ListLinkedServices()

	if output == "json" {
		payload := map[string]interface{}{
			"datasets":        descriptorList(datasets),
			"linked_services": descriptorList(linkedServices),
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println("Discovered Datasets:")
	for _, desc := range descriptorList(datasets) {
		fmt.Printf("  - %s (%s)\n", desc.Key(), desc.ClassName)
	}
	fmt.Println("\nDiscovered Linked Services:")
	for _, desc := range descriptorList(linkedServices) {
		fmt.Printf("  - %s (%s)\n", desc.Key(), desc.ClassName)
	}
	return nil
}

// descriptorList returns descriptors sorted by composite key for stable output
func descriptorList(table map[resource.Key]resource.Descriptor) []resource.Descriptor {
	out := make([]resource.Descriptor, 0, len(table))
	for _, desc := range table {
		out = append(out, desc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().String() < out[j].Key().String()
	})
	return out
}

// validateConfig parses a configuration file and attempts instantiation.
func validateConfig(reg *registry.Registry, configFile, role string) error {
	data, err := os.ReadFile(configFile) //nolint:gosec // G304: file path supplied by the operator
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var config map[string]interface{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	switch role {
	case "dataset":
		_, err = reg.CreateDataset(config)
	case "linked_service":
		_, err = reg.CreateLinkedService(config)
	default:
		return fmt.Errorf("unknown role %q (expected dataset or linked_service)", role)
	}

	if err != nil {
		printStructuredError(err)
		return err
	}

	fmt.Printf("OK: %s configuration is valid\n", role)
	return nil
}

// printStructuredError renders the structured error detail when available.
func printStructuredError(err error) {
	var structured *errors.Error
	if !stderrors.As(err, &structured) {
		return
	}
	detail := map[string]interface{}{
		"type":        structured.Type,
		"code":        structured.Code,
		"status_code": structured.StatusCode,
		"message":     structured.Message,
		"details":     structured.Details,
	}
	if data, jsonErr := json.MarshalIndent(detail, "", "  "); jsonErr == nil {
		fmt.Fprintln(os.Stderr, string(data))
	}
}
