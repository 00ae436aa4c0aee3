// Package cli implements the tollgate command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "tollgate",
	Short: "Pay-per-call gateway for priced HTTP resources",
	Long: `Tollgate fronts priced operations behind an HTTP 402 negotiation:
callers learn the price, attach a payment proof, and get the operation's
output once the payment settles. Revenue is split between the operator
and configured recipients, and every payment lands in an append-only
settlement ledger.`,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.tollgate/config.toml)")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tollgate version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "tollgate %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
