package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"frost-ledger/internal/config"

	"github.com/spf13/cobra"
)

// Version information, set via ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "frost-ledger",
	Short: "Host-side session manager for FROST DKG signing devices",
	Long: `frost-ledger drives hardware signing devices through the FROST DKG
ceremony and transaction signing. It speaks the chunked APDU protocol to each
configured device and exposes the device operations over HTTP.

Use 'frost-ledger serve' to start the HTTP API.
Use 'frost-ledger config show' to print the effective configuration.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "frost-ledger version %s\n", Version)
		fmt.Fprintf(cmd.OutOrStdout(), "Git commit: %s\n", GitCommit)
		fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		if cfg.Database.Password != "" {
			cfg.Database.Password = "********"
		}
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (JSON or YAML)")

	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(versionCmd, configCmd, serveCmd)
}
