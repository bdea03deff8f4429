package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigPaths defines the search locations for config files.
const (
	// GlobalConfigDir is the XDG config directory name
	GlobalConfigDir = "finroad"
	// GlobalConfigFile is the global config file name
	GlobalConfigFile = "config.yaml"
	// ProjectConfigDir is the project-local config directory
	ProjectConfigDir = ".finroad"
	// ProjectConfigFile is the project-local config file name
	ProjectConfigFile = "config.yaml"
)

// LoadConfig loads configuration from files and viper settings.
// Precedence (later overrides earlier):
//  1. Default() values
//  2. ~/.config/finroad/config.yaml (global)
//  3. .finroad/config.yaml (project)
//  4. Explicit --config file
//  5. Environment variables (FINROAD_*, e.g. FINROAD_CHAT_BASE_URL)
//  6. CLI flags (already bound to viper)
//
// Missing config files are silently ignored.
func LoadConfig(v *viper.Viper) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Marshal defaults to map for viper
	defaultMap, err := structToMap(cfg)
	if err != nil {
		return nil, err
	}
	if err := v.MergeConfigMap(defaultMap); err != nil {
		return nil, err
	}

	// Load global config (~/.config/finroad/config.yaml)
	globalPath := globalConfigPath()
	if globalPath != "" {
		if err := loadConfigFile(v, globalPath); err != nil {
			return nil, err
		}
	}

	// Load project config (.finroad/config.yaml)
	projectPath := projectConfigPath()
	if projectPath != "" {
		if err := loadConfigFile(v, projectPath); err != nil {
			return nil, err
		}
	}

	// Explicit config file (from --config flag or FINROAD_CONFIG env)
	if explicitPath := v.GetString("config"); explicitPath != "" {
		// Explicit config must exist
		if _, err := os.Stat(explicitPath); err != nil {
			return nil, err
		}
		if err := loadConfigFile(v, explicitPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", explicitPath, err)
		}
	}

	// Unmarshal with duration hook
	if err := v.Unmarshal(cfg, viperDecodeHook()); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	if c.Viewport.MinScale <= 0 || c.Viewport.MinScale > c.Viewport.MaxScale {
		errs = append(errs, fmt.Errorf("viewport: min_scale %v must be positive and at most max_scale %v",
			c.Viewport.MinScale, c.Viewport.MaxScale))
	}
	if c.Viewport.ZoomStep <= 0 {
		errs = append(errs, fmt.Errorf("viewport: zoom_step %v must be positive", c.Viewport.ZoomStep))
	}
	switch c.Chat.Model {
	case "general", "cumulative", "accounting":
	default:
		errs = append(errs, fmt.Errorf("chat: unknown model %q (want general, cumulative or accounting)", c.Chat.Model))
	}
	switch c.Export.Format {
	case "svg", "png":
	default:
		errs = append(errs, fmt.Errorf("export: unknown format %q (want svg or png)", c.Export.Format))
	}
	if c.Chat.Timeout < 0 {
		errs = append(errs, fmt.Errorf("chat: timeout %v must not be negative", c.Chat.Timeout))
	}
	return errors.Join(errs...)
}

// globalConfigPath returns the global config file path if it exists.
func globalConfigPath() string {
	// Try XDG_CONFIG_HOME first
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		// Fall back to ~/.config
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(home, ".config")
	}

	path := filepath.Join(configDir, GlobalConfigDir, GlobalConfigFile)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// projectConfigPath returns the project config file path if it exists.
func projectConfigPath() string {
	path := filepath.Join(ProjectConfigDir, ProjectConfigFile)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// loadConfigFile loads a YAML config file and merges it into viper.
// Returns nil if the file doesn't exist.
func loadConfigFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	// Create a temporary viper to read the file
	fileViper := viper.New()
	fileViper.SetConfigType("yaml")
	if err := fileViper.ReadConfig(file); err != nil {
		return err
	}

	// Merge into main viper
	return v.MergeConfigMap(fileViper.AllSettings())
}

// viperDecodeHook returns the decoder config with duration hook.
func viperDecodeHook() viper.DecoderConfigOption {
	return viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
}

// structToMap converts a struct to a map for viper.MergeConfigMap.
func structToMap(cfg *Config) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "mapstructure",
		Result:  &result,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			durationToStringHook(),
		),
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(cfg); err != nil {
		return nil, err
	}

	return result, nil
}

// durationToStringHook converts time.Duration to string for YAML compatibility.
func durationToStringHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if from != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		return data.(time.Duration).String(), nil
	}
}

// Marshal renders cfg as a YAML document with durations in their string
// form, suitable for writing a config file that LoadConfig reads back.
func Marshal(cfg *Config) ([]byte, error) {
	m, err := structToMap(cfg)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(m)
}
