package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackpress/reactus/internal/services"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:     "init [directory]",
	Aliases: []string{"i"},
	Short:   "Initialize a new reactus project",
	Long: `Init creates the .reactus work directory layout and writes a starter
.reactus.yml configuration file. An existing configuration is left untouched
unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		service := services.NewInitService(nil)
		if err := service.InitProject(services.InitOptions{
			ProjectDir: dir,
			Force:      initForce,
		}); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized reactus project in %s\n", dir)

		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing configuration file")
	rootCmd.AddCommand(initCmd)
}
