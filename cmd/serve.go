package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stackpress/reactus/internal/config"
	"github.com/stackpress/reactus/internal/services"
)

var servePages map[string]string

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve previously built artifacts",
	Long: `Serve loads the manifest written by a prior build and serves the
compiled client bundles, page markup, and assets. Nothing is compiled at
request time; a missing artifact is a 404.

Page routes map URL paths to entries:
  reactus serve --page /=@/pages/home.tsx --page /about=@/pages/about.tsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(config.ModeProduction)
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

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		service := services.NewServeService(cfg, env, log)
		log.Info(ctx, "serving artifacts", "url", service.URL())

		return service.Serve(ctx, services.ServeOptions{Pages: servePages})
	},
}

var devCmd = &cobra.Command{
	Use:     "dev [entries...]",
	Aliases: []string{"d"},
	Short:   "Start the development server",
	Long: `Dev serves entries through the external bundler's live transform:
client bundles compile on request, file changes invalidate the affected
wrapper modules, and connected browsers get reload events over the
` + "`/__reactus`" + ` websocket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(config.ModeDevelopment)
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

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		service := services.NewDevService(cfg, env, log)

		return service.Run(ctx, services.DevOptions{
			Entries: args,
			Pages:   servePages,
		})
	},
}

func init() {
	serveCmd.Flags().StringToStringVar(&servePages, "page", nil, "route=entry page mapping")
	devCmd.Flags().StringToStringVar(&servePages, "page", nil, "route=entry page mapping")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(devCmd)
}
