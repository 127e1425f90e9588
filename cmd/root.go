// Package cmd provides the reactus command-line interface.
//
// Configuration is layered through viper with clear precedence:
//
//	1. Command-line flags (--mode, --port, etc.) - highest priority
//	2. Environment variables with the REACTUS_ prefix
//	3. The project configuration file (.reactus.yml) - lowest priority
//
// Environment variables follow the REACTUS_<SECTION>_<OPTION> pattern, for
// example REACTUS_SERVER_PORT or REACTUS_DEVELOPMENT_HOT_RELOAD.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/stackpress/reactus/internal/config"
	"github.com/stackpress/reactus/internal/logging"
	"github.com/stackpress/reactus/internal/services"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "reactus",
	Short: "Page-oriented build and serve orchestrator for React SSR",
	Long: `Reactus orchestrates page entries through an external bundler: it
canonicalizes entries, derives stable artifact identities, synthesizes the
client and page wrapper modules as virtual modules, and builds or serves the
results in development, build, or production mode.

Quick Start:
  reactus init                    Initialize a new project
  reactus dev                     Start the development server
  reactus build ./pages/home.tsx  Build entries to artifacts
  reactus serve                   Serve previously built artifacts`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Accept underscores in flag names so they line up with the config keys.
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .reactus.yml)")
	rootCmd.PersistentFlags().String("mode", "", "operating mode (development, build, production)")
	rootCmd.PersistentFlags().String("cwd", "", "project root directory")
	rootCmd.PersistentFlags().IntP("port", "p", 0, "server port")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("mode", rootCmd.PersistentFlags().Lookup("mode"))
	_ = viper.BindPFlag("cwd", rootCmd.PersistentFlags().Lookup("cwd"))
	_ = viper.BindPFlag("server.port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig wires viper's configuration sources: the --config flag, the
// REACTUS_CONFIG_FILE environment variable, or the default .reactus.yml in
// the current directory. A missing file is not an error; defaults apply.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("REACTUS_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".reactus")
	}

	viper.SetEnvPrefix("REACTUS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// runtime is the external capability set the commands hand to the services.
// Embedders replace it through SetRuntime before Execute; the default has no
// bundler, so commands that compile fail with a configuration error while
// init, version, and artifact-only serving still work.
var runtime services.Runtime

// SetRuntime installs the external bundler and render capabilities used by
// the build, dev, and serve commands.
func SetRuntime(rt services.Runtime) {
	runtime = rt
}

// loadConfig builds the effective configuration, forcing mode when the
// command implies one.
func loadConfig(mode config.Mode) (*config.Config, error) {
	if mode != "" {
		viper.Set("mode", string(mode))
	}

	return config.Load()
}

func newLogger() logging.Logger {
	level := logging.LevelInfo
	switch viper.GetString("log-level") {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: "text",
		Output: os.Stderr,
	})
}
