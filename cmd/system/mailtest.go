package system

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/usegalaxy-au/galaxy_web/config"
	"github.com/usegalaxy-au/galaxy_web/pkg/email"
	"github.com/usegalaxy-au/galaxy_web/pkg/logs"
)

func NewMailTestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mailtest",
		Short: "Send a test message through the configured mail transport",
		Long: `Send one message through the same transport selection and retry path the
request forms use. The message goes to --to, or the support inbox when
--to is empty.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			to, _ := cmd.Flags().GetString("to")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			log := logs.New(logs.FromCentralConfig(cfg))
			ecfg := email.FromCentralConfig(cfg.Email)
			transport, err := email.NewTransport(ecfg, log)
			if err != nil {
				return err
			}
			d := email.NewDispatcher(ecfg, transport, log)

			m := email.Mail{
				Subject: "Galaxy Australia mail test",
				Text:    fmt.Sprintf("Test message sent through the %s transport at %s.", transport.Name(), time.Now().Format(time.RFC3339)),
			}
			if to != "" {
				m.To = []string{to}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := d.Send(ctx, m); err != nil {
				return fmt.Errorf("mail test failed: %w", err)
			}
			fmt.Printf("Test message sent via %s.\n", transport.Name())
			return nil
		},
	}

	cmd.Flags().String("to", "", "Recipient address (default: email.to_address)")
	cmd.Flags().Duration("timeout", 2*time.Minute, "Overall time allowed for all attempts")

	return cmd
}
