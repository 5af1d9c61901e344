package main

import (
	"fmt"
	"os"

	"github.com/Jelka-FMF/Veter/internal/platform/version"
	"github.com/spf13/cobra"
)

// rootCmd serves the relay when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:           "veter",
	Short:         "Veter relays messages from WebSocket publishers to SSE subscribers",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relay server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
	},
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
