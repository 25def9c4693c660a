// Package cli implements the oasgate command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the --config persistent flag.
	configPath string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "oasgate",
	Short: "oasgate is an OpenAPI contract-enforcing gateway",
	Long: `oasgate sits in front of an HTTP service and validates every request and
response against an OpenAPI 3 document. Requests that violate the contract are
rejected with a JSON list of precise errors before they reach the upstream;
responses that violate it are replaced with a 500 so contract drift is caught
immediately.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to oasgate.yaml configuration file")
}
