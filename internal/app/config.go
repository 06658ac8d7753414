package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GridPath string `yaml:"grid_path"` // hcl files

	LogFormat       string `yaml:"log_format" validate:"oneof=text json"`
	LogLevel        string `yaml:"log_level" validate:"oneof=debug info warn error"`
	HealthcheckPort int    `yaml:"healthcheck_port" validate:"gte=0,lte=65535"`

	// LogFile receives the execution log as JSON lines. Empty disables it.
	LogFile string `yaml:"log_file"`

	StorePath string `yaml:"store_path" validate:"required"`
	StoreKey  string `yaml:"store_key" validate:"required"`
}

var configValidate = validator.New()

// DefaultConfig returns the configuration used when neither a config file nor
// flags say otherwise.
func DefaultConfig() Config {
	return Config{
		LogFormat: "json",
		LogLevel:  "info",
		StorePath: ".gridflow",
		StoreKey:  "workflow",
	}
}

// LoadConfigFile overlays the YAML file at path onto cfg. Keys missing from
// the file keep their current values.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if err := configValidate.Struct(cfg); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			errs := make([]error, 0, len(invalid))
			for _, fe := range invalid {
				errs = append(errs, fmt.Errorf("invalid %s: %v fails %q", fe.Field(), fe.Value(), fe.Tag()))
			}
			return nil, errors.Join(errs...)
		}
		return nil, err
	}
	return &cfg, nil
}
