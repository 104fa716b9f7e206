package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/jamesainslie/depotscan/pkg/depotscan/cache"
	"github.com/jamesainslie/depotscan/pkg/depotscan/config"
	"github.com/jamesainslie/depotscan/pkg/depotscan/history"
	"github.com/jamesainslie/depotscan/pkg/depotscan/locator"
	"github.com/jamesainslie/depotscan/pkg/depotscan/logging"
	"github.com/jamesainslie/depotscan/pkg/depotscan/output"
	"github.com/jamesainslie/depotscan/pkg/depotscan/scanner"
	"github.com/jamesainslie/depotscan/pkg/depotscan/storeapi"
	"github.com/jamesainslie/depotscan/pkg/depotscan/types"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

var logger = logging.Get("cli")

// app bundles the collaborators a command needs.
type app struct {
	cfg *config.Config
	fs  afero.Fs

	meta *cache.Cache
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &app{cfg: cfg, fs: afero.NewOsFs()}, nil
}

// Close releases the metadata cache, if one was opened.
func (a *app) Close() {
	if a.meta != nil {
		if err := a.meta.Close(); err != nil {
			logger.Warn("closing metadata cache", "error", err)
		}
		a.meta = nil
	}
}

// locatorOptions builds discovery options from config and flags.
func (a *app) locatorOptions() (locator.Options, error) {
	opts := locator.Options{
		Extra:    a.cfg.Steam.Paths,
		Registry: a.cfg.Steam.Registry && !viper.GetBool("no_registry"),
	}
	if a.cfg.Steam.Platform != "" {
		p, ok := locator.ParsePlatform(a.cfg.Steam.Platform)
		if !ok {
			return opts, fmt.Errorf("%w: unknown platform %q", types.ErrInvalidInput, a.cfg.Steam.Platform)
		}
		opts.Platform = p
	}
	if home, err := os.UserHomeDir(); err == nil {
		opts.Home = home
	}
	return opts, nil
}

// scanner discovers the install and resolves its libraries.
func (a *app) scanner(ctx context.Context) (*scanner.Scanner, error) {
	opts, err := a.locatorOptions()
	if err != nil {
		return nil, err
	}
	sc, err := scanner.Initialize(ctx, a.fs, opts)
	if err != nil {
		return nil, err
	}
	for _, w := range sc.StartupWarnings() {
		printWarning("%s", w)
	}
	return sc, nil
}

// store returns a metadata client, or nil when lookups are disabled.
func (a *app) store() *storeapi.Client {
	if !a.cfg.Store.Enabled || viper.GetBool("no_store") {
		return nil
	}

	opts := storeapi.Options{
		BaseURL: a.cfg.Store.BaseURL,
		Timeout: a.cfg.Store.Timeout,
		Rate:    a.cfg.Store.Rate,
	}
	if c := a.metaCache(); c != nil {
		opts.Cache = c
	}
	return storeapi.New(opts)
}

// metaCache opens the metadata cache on first use. Failures disable it.
func (a *app) metaCache() *cache.Cache {
	if a.meta != nil {
		return a.meta
	}
	if !a.cfg.Cache.Enabled || viper.GetBool("no_cache") {
		return nil
	}
	c, err := cache.Open(a.cfg.Cache.Path, a.cfg.Cache.TTL)
	if err != nil {
		logger.Warn("metadata cache unavailable", "path", a.cfg.Cache.Path, "error", err)
		return nil
	}
	a.meta = c
	return c
}

// history returns the operation history, or nil when disabled.
func (a *app) history() *history.History {
	if !a.cfg.History.Enabled {
		return nil
	}
	h, err := history.New(a.fs, a.cfg.History.Path)
	if err != nil {
		logger.Warn("history unavailable", "error", err)
		return nil
	}
	return h
}

// displayName picks a name for appID: the installed state document first,
// then the store, then the ID itself.
func (a *app) displayName(ctx context.Context, sc *scanner.Scanner, client *storeapi.Client, appID string) string {
	if u, ok := sc.LookupUnit(appID); ok && u.Name != scanner.UnknownName {
		return u.Name
	}
	if client != nil {
		return client.Name(ctx, appID, appID)
	}
	return appID
}

// outputFormat returns the requested format, or fallback when unset.
func outputFormat(fallback string) string {
	if f := viper.GetString("output.format"); f != "" {
		return f
	}
	return fallback
}

// render writes r to stdout in the requested format.
func render(r *output.Result, format string) error {
	var f output.Formatter
	if tmpl := viper.GetString("output.template"); tmpl != "" && format == "template" {
		f = output.NewTemplateFormatter(tmpl)
	} else {
		var err error
		f, err = output.Get(format)
		if err != nil {
			return fmt.Errorf("%w (available: %v)", err, output.Available())
		}
	}

	var buf bytes.Buffer
	if err := f.Format(&buf, r); err != nil {
		return err
	}
	_, err := os.Stdout.Write(buf.Bytes())
	return err
}
