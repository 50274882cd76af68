package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	port       string

	rootCmd = &cobra.Command{
		Use:   "citypark",
		Short: "Slot allocation, tickets and fees for a multi-floor car park",
		Long: `citypark runs the parking allocation service for one site. The operator
console reads commands from stdin; the kiosk API is served over HTTP.`,
		SilenceUsage: true,
	}
	shellCmd = &cobra.Command{
		Use:   "shell",
		Short: "Run the interactive operator console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), modeShell)
		},
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the kiosk HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), modeServe)
		},
	}
	bothCmd = &cobra.Command{
		Use:   "both",
		Short: "Run the console and the HTTP API against the same lot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), modeShell|modeServe)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&port, "port", "p", "", "HTTP port (overrides config and APP_PORT)")

	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bothCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
