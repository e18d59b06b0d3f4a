package http

import (
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/usegalaxy-au/galaxy_web/config"
	"github.com/usegalaxy-au/galaxy_web/internal/api/http"
	"github.com/usegalaxy-au/galaxy_web/internal/app"
)

func NewStartCommand() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the web server",
		Long: `Start the web server. When email.async is enabled the mail worker runs
in the same process unless --no-worker is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return err
			}

			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return err
			}

			noWorker, _ := cmd.Flags().GetBool("no-worker")

			opts := []fx.Option{
				fx.Supply(cfg),
				app.InfraModule,
				app.ServiceModule,
				http.Module,
				fx.Invoke(func(*fiber.App) {}),
				fx.StopTimeout(shutdownTimeout),
				fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
			}
			if !noWorker {
				opts = append(opts, app.WorkerModule)
			}

			fx.New(opts...).Run()
			return nil
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Maximum time to wait for graceful shutdown")
	cmd.Flags().Bool("no-worker", false, "Do not consume queued mail in this process")

	return cmd
}
