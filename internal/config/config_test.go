package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/stackpress/reactus/internal/errors"
)

func TestApplyDefaults(t *testing.T) {
	config := &Config{}
	ApplyDefaults(config)

	assert.Equal(t, ModeDevelopment, config.Mode)
	assert.Equal(t, ".", config.Cwd)
	assert.Equal(t, 3000, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, ".reactus/client", config.Paths.ClientDir)
	assert.Equal(t, ".reactus/page", config.Paths.PageDir)
	assert.Equal(t, ".reactus/assets", config.Paths.AssetDir)
	assert.Equal(t, ".reactus/manifest.json", config.Paths.Manifest)
	assert.Equal(t, "/client", config.Routes.Client)
	assert.Equal(t, "/assets", config.Routes.CSS)
	assert.Equal(t, []string{"react", "react-dom"}, config.Development.Externals)
}

func TestApplyDefaults_RespectsExplicitValues(t *testing.T) {
	config := &Config{
		Mode: ModeProduction,
		Cwd:  "/srv/app",
		Paths: PathsConfig{
			ClientDir: "/srv/app/dist/client",
		},
	}
	ApplyDefaults(config)

	assert.Equal(t, ModeProduction, config.Mode)
	assert.Equal(t, "/srv/app/dist/client", config.Paths.ClientDir)
	assert.Equal(t, "/srv/app/.reactus/page", config.Paths.PageDir)
}

func TestValidate_Mode(t *testing.T) {
	config := &Config{}
	ApplyDefaults(config)
	require.NoError(t, Validate(config))

	config.Mode = "staging"
	err := Validate(config)
	require.Error(t, err)
	assert.True(t, rerrors.IsType(err, rerrors.ErrorTypeConfig))
}

func TestValidate_Port(t *testing.T) {
	config := &Config{}
	ApplyDefaults(config)

	config.Server.Port = 70000
	err := Validate(config)
	require.Error(t, err)
	assert.True(t, rerrors.IsType(err, rerrors.ErrorTypeConfig))
}

func TestMode_Valid(t *testing.T) {
	assert.True(t, ModeDevelopment.Valid())
	assert.True(t, ModeBuild.Valid())
	assert.True(t, ModeProduction.Valid())
	assert.False(t, Mode("").Valid())
	assert.False(t, Mode("staging").Valid())
}
