package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jamesainslie/depotscan/pkg/depotscan/batch"
	"github.com/jamesainslie/depotscan/pkg/depotscan/history"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/cobra"
)

var (
	bulkDir   string
	bulkWidth int
)

var bulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "Export every installed app",
	Long: `Enumerate installed apps and export each one, a few at a time with a short
pause between batches. Apps without cached manifests are skipped.
Interrupting stops the run after the current batch.`,
	Args: cobra.NoArgs,
	RunE: runBulk,
}

func init() {
	bulkCmd.Flags().StringVarP(&bulkDir, "dir", "d", "", "output directory (default: output.dir or the current directory)")
	bulkCmd.Flags().IntVar(&bulkWidth, "width", 0, "apps processed per batch (default: bulk.width)")
	rootCmd.AddCommand(bulkCmd)
}

func runBulk(cmd *cobra.Command, _ []string) error {
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
	installed, err := sc.ListInstalledUnits(ctx)
	if err != nil {
		return err
	}
	if len(installed.Units) == 0 {
		printInfo("No installed apps found.")
		return nil
	}

	ids := make([]string, len(installed.Units))
	for i, u := range installed.Units {
		ids[i] = u.AppID
	}

	runner := batch.Runner{
		Width: a.cfg.Bulk.Width,
		Pause: a.cfg.Bulk.Pause,
		OnProgress: func(p batch.Progress) {
			printInfo("[%d/%d] %d of %d apps done, %d failed", p.Batch, p.Batches, p.Done, p.Total, p.Failed)
		},
	}
	if bulkWidth > 0 {
		runner.Width = bulkWidth
	}

	dir := a.outputDir(bulkDir)
	client := a.store()

	var (
		mu        sync.Mutex
		manifests []history.ManifestEntry
		exported  int
		skipped   int
	)
	report, runErr := batch.Run(ctx, runner, ids, func(ctx context.Context, appID string) error {
		s, res, err := a.exportApp(ctx, sc, client, appID, dir)
		if errors.Is(err, types.ErrNotFound) && s != nil && s.result.Empty() {
			mu.Lock()
			skipped++
			mu.Unlock()
			return nil
		}
		if err != nil {
			return err
		}
		mu.Lock()
		exported++
		manifests = append(manifests, history.FromRecords(s.result.Records)...)
		mu.Unlock()
		logger.Debug("exported", "app", appID, "dir", res.Dir)
		return nil
	})

	failures := report.Failed()
	for _, f := range failures {
		printWarning("app %s: %v", f.Item, f.Err)
	}

	if h := a.history(); h != nil {
		entry := &history.Entry{
			Operation: history.OpBulk,
			OutputDir: dir,
			Manifests: manifests,
			Summary:   history.Summary{Apps: exported, Failed: len(failures)},
		}
		if _, err := h.Log(entry); err != nil {
			logger.Warn("failed to record bulk run", "error", err)
		}
	}

	printInfo("Exported %d apps, skipped %d without cached manifests, %d failed.", exported, skipped, len(failures))
	if runErr != nil {
		return fmt.Errorf("bulk run stopped after %d of %d apps: %w", len(report.Results), len(ids), runErr)
	}
	return nil
}
