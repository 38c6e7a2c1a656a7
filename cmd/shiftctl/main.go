// Command shiftctl is the operator CLI for Shiftboard: it mints development
// tokens, generates signing keys and runs the bulk data tasks (rules import,
// regular signup generation, roster export, shift import) against the
// configured database.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	envFile string
	verbose bool
	timeout time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "shiftctl",
	Short: "Operate a Shiftboard deployment",
	Long: `shiftctl runs maintenance tasks for the Shiftboard API.

Database commands read the same environment (and .env file) as the server.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(regularsCmd)
	rootCmd.AddCommand(rosterCmd)
	rootCmd.AddCommand(shiftsCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
