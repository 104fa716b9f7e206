package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/jamesainslie/depotscan/pkg/depotscan/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "depotscan",
		Short: "Find cached Steam depot manifests and build unlock scripts",
		Long: `depotscan locates the local Steam installation, resolves every library
folder, and finds the cached depot manifests and decryption keys for an app.

Examples:
  depotscan roots                  # Show install roots and libraries
  depotscan list --sizes           # List installed apps with disk usage
  depotscan scan 480               # Show cached manifests for app 480
  depotscan generate 480           # Print the Lua script for app 480
  depotscan export 480 -d ./out    # Copy manifests and script to ./out
  depotscan bulk -d ./out          # Export every installed app
  depotscan watch 480 -d ./out     # Re-export when the depot cache changes`,
		SilenceUsage:      true,
		PersistentPreRunE: initializeLogging,
		PersistentPostRun: func(*cobra.Command, []string) { closeLogging() },
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ~/.config/depotscan/config.yaml)")
	pf.StringP("output", "o", "", "output format: pretty, plain, json, jsonl, yaml, tsv, csv, markdown, template, lua")
	pf.String("template", "", "text/template used with -o template")
	pf.StringSlice("steam-path", nil, "extra Steam install root (repeatable)")
	pf.String("platform", "", "override platform detection: windows, darwin, linux")
	pf.Bool("no-registry", false, "skip the Windows registry lookup")
	pf.Bool("no-store", false, "do not query the store for app names")
	pf.Bool("no-cache", false, "bypass the app metadata cache")
	pf.BoolP("quiet", "q", false, "minimal output")
	pf.BoolP("verbose", "v", false, "debug output on stderr")

	_ = viper.BindPFlag("output.format", pf.Lookup("output"))
	_ = viper.BindPFlag("output.template", pf.Lookup("template"))
	_ = viper.BindPFlag("steam.paths", pf.Lookup("steam-path"))
	_ = viper.BindPFlag("steam.platform", pf.Lookup("platform"))
	_ = viper.BindPFlag("no_registry", pf.Lookup("no-registry"))
	_ = viper.BindPFlag("no_store", pf.Lookup("no-store"))
	_ = viper.BindPFlag("no_cache", pf.Lookup("no-cache"))
	_ = viper.BindPFlag("quiet", pf.Lookup("quiet"))
	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	config.Configure(viper.GetViper(), cfgFile)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
}

func getVerbose() bool {
	return viper.GetBool("verbose")
}

func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printInfo prints a message to stderr unless quiet mode is enabled.
// Stdout is reserved for formatted results.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// printWarning prints a warning to stderr.
func printWarning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
