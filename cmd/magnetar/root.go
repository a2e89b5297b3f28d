package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "magnetar",
	Short: "Magnetar runs a headless magnetic shelf",
	Long: `Magnetar runs a stack of cells that capture objects dropped into them
and move together when an input grabs the stack. Input comes from a scripted
scenario; state is kept in SQLite and observable over HTTP.`,
	SilenceUsage: true,
	RunE:         runShelf,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config-dir", ".", "Directory containing magnetar.yaml")
	addRunFlags(rootCmd)
}
