package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/teomarche/study-garden/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "study-garden-configure",
		Short: "Configuration tool for Study Garden API",
		Long:  "CLI tool for managing gardens, study statistics and rate limits",
	}

	rootCmd.AddCommand(commands.NewGardensCmd())
	rootCmd.AddCommand(commands.NewStatsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
