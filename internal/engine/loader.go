package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// configNamespace pins configuration identity to file content: the same
// bytes always hash to the same ConfigID.
var configNamespace = uuid.MustParse("9f2c1a84-52de-4b1f-9c7d-3e08a6b41c55")

// LoadConfigurations reads one YAML configuration file per game type from
// dir (spin.yaml, scratch.yaml, ...), validates each, and assigns config and
// segment IDs. Missing files are skipped; a game type with no file simply
// has no active configuration and rejects plays.
//
// ConfigID is derived from the file content, not minted fresh: a restart
// with an unchanged file re-attaches to its persisted supply counters, while
// an edited file becomes a new configuration with fresh counters.
func LoadConfigurations(dir string) ([]*SegmentConfiguration, error) {
	gameTypes := []string{GameTypeSpin, GameTypeScratch, GameTypePop, GameTypePlinko}

	var configs []*SegmentConfiguration
	for _, gt := range gameTypes {
		path := filepath.Join(dir, gt+".yaml")
		cfg, raw, err := readConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		if cfg == nil {
			continue
		}
		if cfg.GameType == "" {
			cfg.GameType = gt
		}
		cfg.ConfigID = uuid.NewSHA1(configNamespace, raw).String()
		for i := range cfg.Segments {
			cfg.Segments[i].ConfigID = cfg.ConfigID
			cfg.Segments[i].Position = i
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("validate %s: %w", path, err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// readConfigFile returns the parsed configuration and the raw bytes its
// identity is hashed from, or nil with no error when the file does not exist.
func readConfigFile(path string) (*SegmentConfiguration, []byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	var cfg SegmentConfiguration
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, nil, err
	}
	return &cfg, b, nil
}
