package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jamesainslie/depotscan/pkg/depotscan/output"
	"github.com/jamesainslie/depotscan/pkg/depotscan/scanner"
	"github.com/jamesainslie/depotscan/pkg/depotscan/storeapi"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <appid>",
	Short: "Find cached depot manifests for an app",
	Long: `Resolve the app's depots from its state documents, match cached manifests
in every library's depotcache, and attach known decryption keys.

An app with no cached manifests is not an error; the result is empty.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

var generateCmd = &cobra.Command{
	Use:   "generate <appid>",
	Short: "Print the Lua unlock script for an app",
	Long:  `Scan the app like 'scan' and print the script instead of the table.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(generateCmd)
}

// scanned is one app's scan outcome.
type scanned struct {
	name   string
	result *types.ScanResult
}

// scanApp scans appID and resolves its display name.
func (a *app) scanApp(ctx context.Context, sc *scanner.Scanner, client *storeapi.Client, appID string) (*scanned, error) {
	if !types.ValidAppID(appID) {
		return nil, fmt.Errorf("%w: app id %q must be numeric", types.ErrInvalidInput, appID)
	}

	res, err := sc.ScanForUnit(ctx, appID)
	if err != nil {
		return nil, err
	}
	return &scanned{name: a.displayName(ctx, sc, client, appID), result: res}, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	return scanAndRender(cmd.Context(), args[0], outputFormat("pretty"))
}

func runGenerate(cmd *cobra.Command, args []string) error {
	return scanAndRender(cmd.Context(), args[0], "lua")
}

func scanAndRender(ctx context.Context, appID, format string) error {
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
	s, err := a.scanApp(ctx, sc, a.store(), appID)
	if err != nil {
		return err
	}
	logger.Info("scan complete", "app", appID, "records", len(s.result.Records), "took", time.Since(start))

	if h := a.history(); h != nil {
		if _, err := h.LogScan(appID, s.name, s.result.Records); err != nil {
			logger.Warn("failed to record scan", "app", appID, "error", err)
		}
	}

	if s.result.Empty() {
		printInfo("No cached manifests found for app %s.", appID)
	}
	return render(output.FromScan(s.name, s.result), format)
}
