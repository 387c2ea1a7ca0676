// Package commands implements the mobirplctl CLI commands.
package commands

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// httpClient is shared by every subcommand, initialized in PersistentPreRunE.
	httpClient *http.Client

	// baseURL is the mobirpld status server's base URL.
	baseURL string

	// serverAddr is the daemon's status HTTP address (host:port).
	serverAddr string

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string
)

// rootCmd is the top-level cobra command for mobirplctl.
var rootCmd = &cobra.Command{
	Use:   "mobirplctl",
	Short: "CLI client for the mobirpld routing daemon",
	Long:  "mobirplctl queries the mobirpld daemon's status HTTP surface for node, parent, and DAG state.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		baseURL = "http://" + serverAddr
		httpClient = &http.Client{Timeout: 5 * time.Second}
		return nil
	},
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "localhost:8080",
		"mobirpld status server address (host:port)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")

	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(healthzCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
