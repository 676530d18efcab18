package cli

import (
	"github.com/malscan/malscan/internal/bazaar"
	"github.com/malscan/malscan/internal/freshness"
	"github.com/malscan/malscan/internal/hashstore"
	"github.com/malscan/malscan/internal/syncer"
	"github.com/malscan/malscan/internal/watermark"
)

// app bundles the configured components a command works with.
type app struct {
	cfg    *Config
	store  *hashstore.Store
	marks  *watermark.Store
	client *bazaar.Client
}

// newApp loads configuration and opens the hash store.
// Callers must Close the returned app.
func newApp(opts *RootOptions) (*app, error) {
	cfg, err := LoadConfig(opts.ConfigPath, opts.DataDir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	store, err := hashstore.Open(cfg.DBPath())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open hash store", err)
	}

	return &app{
		cfg:   cfg,
		store: store,
		marks: watermark.NewStore(cfg.WatermarkPath()),
		client: bazaar.New(bazaar.Options{
			APIURL:  cfg.APIURL,
			FeedURL: cfg.FeedURL,
			AuthKey: cfg.AuthKey,
			Timeout: cfg.Timeout(),
		}),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) evaluator() *freshness.Evaluator {
	return &freshness.Evaluator{
		Oracle:     a.client,
		Watermarks: a.marks,
		MirrorPath: a.cfg.MirrorPath(),
	}
}

func (a *app) synchronizer() *syncer.Synchronizer {
	return &syncer.Synchronizer{
		Client:     a.client,
		Store:      a.store,
		Watermarks: a.marks,
		MirrorPath: a.cfg.MirrorPath(),
	}
}
