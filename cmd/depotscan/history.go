package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/depotscan/pkg/depotscan/config"
	"github.com/jamesainslie/depotscan/pkg/depotscan/history"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	Long: `View the history of scan, export and bulk operations.

Each entry records the manifests an operation saw. Decryption keys are
never stored, only whether one was known.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a specific operation",
	Long:  `Display an operation by its ID or a unique prefix of it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period.`,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getHistory returns the history store, falling back to the default
// directory when the config cannot be loaded.
func getHistory() (*history.History, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		h, herr := history.New(afero.NewOsFs(), config.DefaultHistoryPath())
		return h, nil, herr
	}
	h, err := history.New(afero.NewOsFs(), cfg.History.Path)
	return h, cfg, err
}

func runHistory(_ *cobra.Command, _ []string) error {
	h, _, err := getHistory()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	entries, err := h.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'depotscan scan <appid>' to scan an app.")
		return nil
	}

	fmt.Printf("\n%-36s  %-19s  %-7s  %-24s  %9s  %10s\n", "ID", "TIME", "TYPE", "APP", "MANIFESTS", "SIZE")
	fmt.Println(strings.Repeat("-", 114))

	for _, e := range entries {
		app := e.AppID
		if e.Name != "" {
			app = fmt.Sprintf("%s (%s)", e.Name, e.AppID)
		}
		if e.Operation == history.OpBulk {
			app = fmt.Sprintf("%d apps", e.Summary.Apps)
		}
		fmt.Printf("%-36s  %-19s  %-7s  %-24s  %9d  %10s\n",
			e.ID,
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Operation,
			truncateString(app, 24),
			e.Summary.Manifests,
			humanize.IBytes(uint64(e.Summary.Bytes)),
		)
	}

	fmt.Println(strings.Repeat("-", 114))
	fmt.Printf("\nShowing %d entries. Use --limit to see more.\n", len(entries))
	fmt.Println("Use 'depotscan history show <id>' for details on a specific entry.")
	return nil
}

func runHistoryShow(_ *cobra.Command, args []string) error {
	h, _, err := getHistory()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	entry, err := h.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	fmt.Println("\nOperation Details")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("ID:         %s\n", entry.ID)
	fmt.Printf("Timestamp:  %s\n", entry.Timestamp.Local().Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Operation:  %s\n", entry.Operation)
	if entry.AppID != "" {
		fmt.Printf("App:        %s %s\n", entry.AppID, entry.Name)
	}
	if entry.OutputDir != "" {
		fmt.Printf("Output:     %s\n", entry.OutputDir)
	}
	fmt.Printf("Apps:       %d\n", entry.Summary.Apps)
	if entry.Summary.Failed > 0 {
		fmt.Printf("Failed:     %d\n", entry.Summary.Failed)
	}
	fmt.Printf("Manifests:  %d (%d keyed)\n", entry.Summary.Manifests, entry.Summary.Keyed)
	fmt.Printf("Total Size: %s\n", humanize.IBytes(uint64(entry.Summary.Bytes)))

	if len(entry.Manifests) > 0 {
		fmt.Println("\nManifests:")
		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("%-10s  %-20s  %-4s  %s\n", "DEPOT", "MANIFEST", "KEY", "PATH")
		fmt.Println(strings.Repeat("-", 60))

		limit := min(len(entry.Manifests), 50)
		for _, m := range entry.Manifests[:limit] {
			key := "-"
			if m.Keyed {
				key = "yes"
			}
			fmt.Printf("%-10s  %-20s  %-4s  %s\n", m.DepotID, m.ManifestID, key, m.Path)
		}
		if len(entry.Manifests) > limit {
			fmt.Printf("\n... and %d more manifests\n", len(entry.Manifests)-limit)
		}
	}
	return nil
}

func runHistoryClean(_ *cobra.Command, _ []string) error {
	h, cfg, err := getHistory()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	retentionDays := config.DefaultRetentionDays
	if cfg != nil && cfg.History.RetentionDays > 0 {
		retentionDays = cfg.History.RetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)
	removed, err := h.Cleanup(retentionDays)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	printInfo("Removed %d entries.", removed)
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
