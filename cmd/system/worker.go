package system

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/usegalaxy-au/galaxy_web/config"
	"github.com/usegalaxy-au/galaxy_web/internal/app"
)

func NewWorkerCommand() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the mail queue worker without the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return err
			}
			if !cfg.Email.Async || cfg.Nats.URL == "" {
				return errors.New("the mail worker needs email.async and nats.url")
			}

			fx.New(
				fx.Supply(cfg),
				app.InfraModule,
				app.WorkerModule,
				fx.StopTimeout(shutdownTimeout),
				fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
			).Run()
			return nil
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Maximum time to wait for in-flight mail")

	return cmd
}
