package main

import (
	"time"

	"github.com/jamesainslie/depotscan/pkg/depotscan/disk"
	"github.com/jamesainslie/depotscan/pkg/depotscan/output"
	"github.com/spf13/cobra"
)

var listSizes bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List fully installed apps",
	Long: `List every app whose state document marks it fully installed, across
all libraries. Apps installed in more than one library are listed once.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listSizes, "sizes", false, "measure each app's install folder on disk")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sc, err := a.scanner(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := sc.ListInstalledUnits(ctx)
	if err != nil {
		return err
	}

	if listSizes {
		for i := range res.Units {
			usage, err := disk.MeasureUnit(ctx, res.Units[i])
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Debug("cannot measure install", "app", res.Units[i].AppID, "error", err)
				continue
			}
			res.Units[i].SizeOnDisk = usage.Bytes
		}
	}

	return render(output.FromUnits(res, time.Since(start)), outputFormat("pretty"))
}
