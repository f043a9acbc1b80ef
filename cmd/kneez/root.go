package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kneez",
	Short: "Kneez is a knee-symptom intake and assessment engine",
	Long:  `Kneez runs the intake decision engine: intent gating, symptom entity extraction, and guided assessment-tree sessions over a JSON API.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (optional)")
}
