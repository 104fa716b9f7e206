package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jamesainslie/depotscan/pkg/depotscan/output"
	"github.com/jamesainslie/depotscan/pkg/depotscan/scanner"
	"github.com/jamesainslie/depotscan/pkg/depotscan/storeapi"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/jamesainslie/depotscan/pkg/depotscan/watch"
	"github.com/spf13/cobra"
)

var watchDir string

var watchCmd = &cobra.Command{
	Use:   "watch <appid>",
	Short: "Regenerate an app's script when the depot cache changes",
	Long: `Watch every library's depotcache and steamapps folder and each install
root's config folder. After a burst of relevant changes settles, rescan the
app and print its script, or re-export it when --dir is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchDir, "dir", "d", "", "re-export into this directory instead of printing the script")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	appID := args[0]
	if !types.ValidAppID(appID) {
		return fmt.Errorf("%w: app id %q must be numeric", types.ErrInvalidInput, appID)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sc, err := a.scanner(ctx)
	if err != nil {
		return err
	}
	client := a.store()

	refresh := func() {
		if err := a.refreshApp(ctx, sc, client, appID); err != nil && ctx.Err() == nil {
			printWarning("%v", err)
		}
	}
	refresh()

	w, err := watch.New(0)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	snap := sc.Snapshot()
	if n := w.AddLibraries(snap.InstallRoots(), snap.Libraries()); n == 0 {
		return fmt.Errorf("no library folders could be watched")
	}
	printInfo("Watching %d folders for app %s. Press Ctrl+C to stop.", len(w.Watched()), appID)

	err = w.Run(ctx, func(c watch.Change) {
		logger.Info("depot cache changed", "app", appID, "paths", len(c.Paths))
		printInfo("%d changes at %s, rescanning.", len(c.Paths), c.At.Format("15:04:05"))
		refresh()
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// refreshApp rescans appID and either re-exports it or prints its script.
func (a *app) refreshApp(ctx context.Context, sc *scanner.Scanner, client *storeapi.Client, appID string) error {
	if watchDir != "" {
		s, res, err := a.exportApp(ctx, sc, client, appID, watchDir)
		if err != nil {
			return err
		}
		printInfo("Exported %d manifests to %s", len(s.result.Records), res.Dir)
		return nil
	}

	s, err := a.scanApp(ctx, sc, client, appID)
	if err != nil {
		return err
	}
	return render(output.FromScan(s.name, s.result), "lua")
}
