package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/usegalaxy-au/galaxy_web/cmd/http"
	systemcmd "github.com/usegalaxy-au/galaxy_web/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "galaxy",
	Short: "Galaxy Australia website: content pages, request forms and support mail.",
	Long: `galaxy serves the Galaxy Australia website. It renders content pages and
notices, collects tool, quota, support and resource access requests through
validated forms, and mails them to the support team.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
