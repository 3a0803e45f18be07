// Package cmd provides the CLI commands of flint.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "flint",
	Short: "flint - minimal HTTP/1.1 server",
	Long: `flint serves exactly one HTTP/1.1 request per TCP connection.

Configuration:
  Config is read from the file passed via --config, if any. Environment
  variables override config values with the FLINT_ prefix.
  Example: FLINT_NET_HOST=127.0.0.1

Commands:
  serve       Start the demo server
  version     Print version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
}
