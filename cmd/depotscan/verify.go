package main

import (
	"fmt"
	"os"

	"github.com/jamesainslie/depotscan/pkg/depotscan/script"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <script.lua>",
	Short: "Check an unlock script for malformed statements",
	Long: `Parse a script produced by 'generate' or 'export' and report statements
that are malformed, duplicated, or carry keys of the wrong shape.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}

	s, err := script.Parse(string(data))
	if err != nil {
		return err
	}

	problems := s.Validate()
	for _, p := range problems {
		printWarning("%s", p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s: %d problems", args[0], len(problems))
	}

	printInfo("%s: app %s, %d manifests, %d keyed", args[0], s.AppID, len(s.Entries), s.KeyedEntries())
	return nil
}
