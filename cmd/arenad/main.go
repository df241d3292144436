package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/groblegark/arena/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "arenad <command>",
	Short: "Session orchestrator for arena game rounds",
}

func init() {
	if !ui.ShouldUseColor() {
		ui.ForceNoColor()
	}
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(endCmd)
	rootCmd.AddCommand(winCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
