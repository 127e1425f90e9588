// Package config provides configuration management for reactus using Viper
// for flexible loading from files, environment variables, and command-line
// flags.
//
// The configuration system supports YAML files (.reactus.yml), environment
// variable overrides with the REACTUS_ prefix, and validation. It manages
// the operating mode, the project root, artifact directory layout, serving
// routes, wrapper template overrides, and development options.
package config

import (
	"path/filepath"

	"github.com/spf13/viper"

	rerrors "github.com/stackpress/reactus/internal/errors"
)

// Mode selects the per-entry build/render behavior. It is chosen once per
// manifest, never per call.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeBuild       Mode = "build"
	ModeProduction  Mode = "production"
)

// Valid reports whether m names a known operating mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeDevelopment, ModeBuild, ModeProduction:
		return true
	default:
		return false
	}
}

type Config struct {
	Mode        Mode              `yaml:"mode" mapstructure:"mode"`
	Cwd         string            `yaml:"cwd" mapstructure:"cwd"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	Routes      RoutesConfig      `yaml:"routes" mapstructure:"routes"`
	Templates   TemplatesConfig   `yaml:"templates" mapstructure:"templates"`
	Development DevelopmentConfig `yaml:"development" mapstructure:"development"`
}

type ServerConfig struct {
	Port int    `yaml:"port" mapstructure:"port"`
	Host string `yaml:"host" mapstructure:"host"`
}

// PathsConfig is the canonical artifact directory layout. Client and page
// artifacts are keyed by `<id>.js`, assets by their original relative name.
type PathsConfig struct {
	ClientDir string `yaml:"client_dir" mapstructure:"client_dir"`
	PageDir   string `yaml:"page_dir" mapstructure:"page_dir"`
	AssetDir  string `yaml:"asset_dir" mapstructure:"asset_dir"`
	Manifest  string `yaml:"manifest" mapstructure:"manifest"`
}

type RoutesConfig struct {
	Client string `yaml:"client" mapstructure:"client"`
	CSS    string `yaml:"css" mapstructure:"css"`
}

// TemplatesConfig points at optional wrapper template override files.
type TemplatesConfig struct {
	Client   string `yaml:"client" mapstructure:"client"`
	Page     string `yaml:"page" mapstructure:"page"`
	Document string `yaml:"document" mapstructure:"document"`
}

type DevelopmentConfig struct {
	HotReload bool     `yaml:"hot_reload" mapstructure:"hot_reload"`
	Externals []string `yaml:"externals" mapstructure:"externals"`
}

// Load builds a Config from viper's merged sources and fills defaults.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Mode == "" {
		config.Mode = Mode(viper.GetString("mode"))
	}

	ApplyDefaults(&config)

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// ApplyDefaults fills every unset field with its default value.
func ApplyDefaults(config *Config) {
	if config.Mode == "" {
		config.Mode = ModeDevelopment
	}
	if config.Cwd == "" {
		config.Cwd = "."
	}
	if config.Server.Port == 0 {
		config.Server.Port = 3000
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}

	buildDir := filepath.Join(config.Cwd, ".reactus")
	if config.Paths.ClientDir == "" {
		config.Paths.ClientDir = filepath.Join(buildDir, "client")
	}
	if config.Paths.PageDir == "" {
		config.Paths.PageDir = filepath.Join(buildDir, "page")
	}
	if config.Paths.AssetDir == "" {
		config.Paths.AssetDir = filepath.Join(buildDir, "assets")
	}
	if config.Paths.Manifest == "" {
		config.Paths.Manifest = filepath.Join(buildDir, "manifest.json")
	}

	if config.Routes.Client == "" {
		config.Routes.Client = "/client"
	}
	if config.Routes.CSS == "" {
		config.Routes.CSS = "/assets"
	}

	if !viper.IsSet("development.hot_reload") {
		config.Development.HotReload = true
	}
	if len(config.Development.Externals) == 0 {
		config.Development.Externals = []string{"react", "react-dom"}
	}
}

// Validate rejects configurations the orchestrator cannot run with.
func Validate(config *Config) error {
	if !config.Mode.Valid() {
		return rerrors.NewConfigError("BAD_MODE", "mode must be development, build, or production, got "+string(config.Mode))
	}

	if config.Server.Port < 0 || config.Server.Port > 65535 {
		return rerrors.NewConfigError("BAD_PORT", "server port out of range")
	}

	return nil
}
