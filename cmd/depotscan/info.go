package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jamesainslie/depotscan/pkg/depotscan/storeapi"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <appid>",
	Short: "Show store metadata and local install state for an app",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("App ID:     %s\n", appID)

	if client := a.store(); client != nil {
		info, err := client.AppDetails(ctx, appID)
		switch {
		case err == nil:
			fmt.Printf("Name:       %s\n", info.Name)
			fmt.Printf("Type:       %s\n", info.Type)
			if info.HeaderImage != "" {
				fmt.Printf("Header:     %s\n", info.HeaderImage)
			}
		case errors.Is(err, storeapi.ErrAppNotFound):
			fmt.Println("Store:      not listed")
		default:
			printWarning("store lookup failed: %v", err)
		}
	}

	sc, err := a.scanner(ctx)
	if err != nil {
		if errors.Is(err, types.ErrClientNotFound) {
			fmt.Println("Installed:  no (Steam not found)")
			return nil
		}
		return err
	}

	u, ok := sc.LookupUnit(appID)
	if !ok {
		fmt.Println("Installed:  no")
		return nil
	}
	fmt.Println("Installed:  state document found")
	fmt.Printf("Local name: %s\n", u.Name)
	fmt.Printf("Libraries:  %s\n", strings.Join(u.LibraryPaths, ", "))
	if u.InstallDir != "" {
		fmt.Printf("Folder:     %s\n", u.InstallDir)
	}
	return nil
}
