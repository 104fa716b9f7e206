package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/depotscan/pkg/depotscan/export"
	"github.com/jamesainslie/depotscan/pkg/depotscan/scanner"
	"github.com/jamesainslie/depotscan/pkg/depotscan/script"
	"github.com/jamesainslie/depotscan/pkg/depotscan/storeapi"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/cobra"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export <appid>",
	Short: "Copy an app's cached manifests and script to a folder",
	Long: `Scan the app, then create <dir>/<app name>/ holding a copy of every matched
manifest file and script_<appid>.lua. Characters not allowed in file names
are replaced with underscores.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "dir", "d", "", "output directory (default: output.dir or the current directory)")
	rootCmd.AddCommand(exportCmd)
}

// outputDir resolves the export destination.
func (a *app) outputDir(flag string) string {
	switch {
	case flag != "":
		return flag
	case a.cfg.Output.Dir != "":
		return a.cfg.Output.Dir
	default:
		return "."
	}
}

// exportApp scans appID and writes its export folder. An app without
// cached manifests is reported as types.ErrNotFound.
func (a *app) exportApp(ctx context.Context, sc *scanner.Scanner, client *storeapi.Client, appID, dir string) (*scanned, *export.Result, error) {
	s, err := a.scanApp(ctx, sc, client, appID)
	if err != nil {
		return nil, nil, err
	}
	if s.result.Empty() {
		return s, nil, fmt.Errorf("app %s: no cached manifests: %w", appID, types.ErrNotFound)
	}

	text, err := script.Generate(appID, s.result.Records)
	if err != nil {
		return s, nil, err
	}

	res, err := export.Save(a.fs, export.Request{
		OutputDir: dir,
		Name:      s.name,
		AppID:     appID,
		Records:   s.result.Records,
		Script:    text,
	})
	if err != nil {
		return s, nil, err
	}
	return s, res, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	appID := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sc, err := a.scanner(ctx)
	if err != nil {
		return err
	}

	s, res, err := a.exportApp(ctx, sc, a.store(), appID, a.outputDir(exportDir))
	if err != nil {
		return err
	}

	if h := a.history(); h != nil {
		if _, err := h.LogExport(appID, s.name, res.Dir, s.result.Records); err != nil {
			logger.Warn("failed to record export", "app", appID, "error", err)
		}
	}

	printInfo("Exported %s (%s): %d manifests, %d keyed, %s",
		s.name, appID, len(res.Manifests), s.result.KeyedRecords(), humanize.IBytes(uint64(res.Bytes)))
	fmt.Println(res.Dir)
	return nil
}
