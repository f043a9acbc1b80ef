package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kneez/intake/internal/tree"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check assessment tree definitions for consistency",
	Long:  `Validates the embedded tree and any tree files in the given directory: entry nodes, branch rule targets, reachability, and terminal shape. Reports lint warnings for rule lists without a fallback.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(args []string) error {
	trees := []*tree.Tree{tree.Default()}
	if len(args) > 0 {
		extra, err := tree.LoadDir(args[0])
		if err != nil {
			return err
		}
		trees = append(trees, extra...)
	}

	failed := false
	for _, t := range trees {
		if err := tree.Validate(t); err != nil {
			fmt.Printf("tree %s: %v\n", t.Version, err)
			failed = true
			continue
		}
		for _, warning := range tree.Lint(t) {
			fmt.Printf("tree %s: warning: %s\n", t.Version, warning)
		}
		fmt.Printf("tree %s: valid (%d nodes, entry %s)\n", t.Version, len(t.Nodes()), t.Entry)
	}
	if failed {
		return fmt.Errorf("one or more trees are invalid")
	}
	return nil
}
