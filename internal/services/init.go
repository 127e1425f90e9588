package services

import (
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/stackpress/reactus/internal/config"
	"github.com/stackpress/reactus/internal/errors"
)

// ConfigFileName is the project configuration file written by init and read
// by every command.
const ConfigFileName = ".reactus.yml"

// InitService scaffolds a new project: the work directory layout and a
// starter configuration file.
type InitService struct {
	fs afero.Fs
}

// NewInitService creates an init service. A nil fs means the OS file system.
func NewInitService(fs afero.Fs) *InitService {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return &InitService{fs: fs}
}

// InitOptions contains options for project initialization.
type InitOptions struct {
	ProjectDir string
	// Force overwrites an existing configuration file.
	Force bool
}

// InitProject creates the work directory layout and writes the starter
// configuration. An existing configuration is never overwritten unless
// forced.
func (s *InitService) InitProject(opts InitOptions) error {
	if opts.ProjectDir == "" {
		opts.ProjectDir = "."
	}

	configPath := filepath.Join(opts.ProjectDir, ConfigFileName)

	exists, err := afero.Exists(s.fs, configPath)
	if err != nil {
		return errors.NewWriteFailure("INIT_STAT", "checking "+configPath, err)
	}
	if exists && !opts.Force {
		return errors.NewConfigError("CONFIG_EXISTS", configPath+" already exists, use --force to overwrite")
	}

	for _, dir := range []string{
		".reactus",
		".reactus/client",
		".reactus/page",
		".reactus/assets",
	} {
		path := filepath.Join(opts.ProjectDir, dir)
		if err := s.fs.MkdirAll(path, 0o755); err != nil {
			return errors.NewWriteFailure("INIT_DIR", "creating "+path, err)
		}
	}

	data, err := yaml.Marshal(starterConfig())
	if err != nil {
		return errors.NewInternalError("INIT_ENCODE", "encoding starter configuration", err)
	}

	if err := afero.WriteFile(s.fs, configPath, data, 0o644); err != nil {
		return errors.NewWriteFailure("INIT_WRITE", "writing "+configPath, err)
	}

	return nil
}

// starterConfig is the configuration init writes. Paths are left empty so
// the defaults under the project's .reactus directory apply.
func starterConfig() *config.Config {
	return &config.Config{
		Mode: config.ModeDevelopment,
		Server: config.ServerConfig{
			Port: 3000,
			Host: "localhost",
		},
		Routes: config.RoutesConfig{
			Client: "/client",
			CSS:    "/assets",
		},
		Development: config.DevelopmentConfig{
			HotReload: true,
			Externals: []string{"react", "react-dom"},
		},
	}
}
