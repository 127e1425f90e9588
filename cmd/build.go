package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stackpress/reactus/internal/config"
	"github.com/stackpress/reactus/internal/services"
)

var buildCmd = &cobra.Command{
	Use:     "build [entries...]",
	Aliases: []string{"b"},
	Short:   "Build page entries to static artifacts",
	Long: `Build registers every given entry, compiles its client bundle, page
module, and assets through the external bundler, and writes the id record to
the manifest file. Entries accept any spelling the resolver does: project
paths, @/ paths, file:// URLs, or package specifiers.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(config.ModeBuild)
		if err != nil {
			return err
		}

		log := newLogger()
		rt := runtime
		rt.Log = log

		env, err := services.NewEnv(cfg, rt)
		if err != nil {
			return err
		}

		service := services.NewBuildService(cfg, env, log)

		result, err := service.Build(cmd.Context(), services.BuildOptions{Entries: args})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Built %d entries in %s (manifest: %s)\n",
			result.Built, result.Duration.Round(time.Millisecond), result.ManifestPath)

		if result.Failed > 0 {
			for _, status := range result.Statuses {
				if status.Err != nil {
					fmt.Fprintf(os.Stderr, "  %s: %v\n", status.Entry, status.Err)
				}
			}

			return fmt.Errorf("%d of %d entries failed", result.Failed, len(result.Statuses))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
