package main

import (
	"github.com/jamesainslie/depotscan/pkg/depotscan/output"
	"github.com/spf13/cobra"
)

var rootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "Show Steam install roots and library folders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		sc, err := a.scanner(cmd.Context())
		if err != nil {
			return err
		}
		snap := sc.Snapshot()
		return render(output.FromRoots(snap.InstallRoots(), snap.Libraries(), sc.StartupWarnings()), outputFormat("pretty"))
	},
}

func init() {
	rootCmd.AddCommand(rootsCmd)
}
