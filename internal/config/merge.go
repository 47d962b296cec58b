package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names.
const (
	keySchemaVersion = "schema_version"
	keyGeneration    = "generation"
	keyTransform     = "transform"
	keyUpload        = "upload"
	keyLogging       = "logging"
	keyLedger        = "ledger"
)

// ErrUnknownKey is returned when a config file has a top-level key synthsales does not know.
var ErrUnknownKey = errors.New("unknown config key")

// MergeYAMLFile reads the YAML file at path and merges it onto target.
// See MergeYAML for the merge rules.
func MergeYAMLFile(target *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // config path is operator supplied
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err = MergeYAML(target, data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// MergeYAML merges YAML data onto target section by section. Fields present in the
// data overwrite the target; absent fields keep their current values. Lists are
// replaced wholesale. Unknown top-level keys are rejected.
func MergeYAML(target *Config, data []byte) error {
	if target == nil {
		return errors.New("nil target *Config in MergeYAML")
	}

	var overlay map[string]yaml.Node
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	// Empty or comment-only file: nothing to merge.
	if len(overlay) == 0 {
		return nil
	}

	keys := make([]string, 0, len(overlay))
	for key := range overlay {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		node := overlay[key]
		if err := decodeSection(target, key, &node); err != nil {
			return fmt.Errorf("applying section %q: %w", key, err)
		}
	}
	return nil
}

// decodeSection decodes node onto the field of target named by key. A null section
// leaves the defaults untouched.
func decodeSection(target *Config, key string, node *yaml.Node) error {
	var out any
	switch key {
	case keySchemaVersion:
		out = &target.SchemaVersion
	case keyGeneration:
		out = &target.Generation
	case keyTransform:
		out = &target.Transform
	case keyUpload:
		out = &target.Upload
	case keyLogging:
		out = &target.Logging
	case keyLedger:
		out = &target.Ledger
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	return node.Decode(out)
}
