package commands

import (
	"context"
	"database/sql"

	"misattend/lib/attendstore"
	"misattend/lib/browser"
	"misattend/lib/debugutil"
	"misattend/lib/scrapers/mis"
	"misattend/lib/sink"
	"misattend/services/attendance"
)

// openHistory opens the configured history store, a nil store means history is disabled.
func openHistory(ctx context.Context, cfg Config) (attendance.History, *sql.DB, error) {
	if cfg.History == nil {
		return nil, nil, nil
	}
	store, database, err := attendstore.Open(ctx, *cfg.History)
	if err != nil {
		return nil, nil, err
	}
	return store, database, nil
}

// newSink builds the json file sink (path overrides the configured file) plus any
// configured webhook and email sinks.
func newSink(cfg Config, path string) sink.Multi {
	if path == "" {
		path = cfg.Output.File
	}
	sinks := []sink.Sink{sink.NewFile(path, tel)}
	if cfg.Webhook != nil {
		sinks = append(sinks, sink.NewWebhook(*cfg.Webhook, tel))
	}
	if cfg.Email != nil {
		sinks = append(sinks, sink.NewEmail(*cfg.Email, tel))
	}
	return sink.NewMulti(tel, sinks...)
}

func newOptions(cfg Config) (mis.Options, error) {
	opts := mis.Options{
		Credentials: cfg.credentials(),
		Portal:      cfg.portal(),
		Layout:      cfg.Layout,
		Launch:      cfg.launchOptions(),
	}
	if cfg.Debug.SnapshotDir != "" {
		output, err := debugutil.NewFilesystemOutput(cfg.Debug.SnapshotDir)
		if err != nil {
			return mis.Options{}, err
		}
		opts.Snapshots = output
	}
	return opts, nil
}

// newService wires a service from cfg, close must be called once done.
func newService(ctx context.Context, cfg Config, outPath string) (*attendance.Service, func(), error) {
	opts, err := newOptions(cfg)
	if err != nil {
		return nil, nil, err
	}
	history, database, err := openHistory(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	service := attendance.NewService(attendance.Params{
		Scraper: mis.NewScraper(browser.ChromeLauncher{}, tel),
		Options: opts,
		Sink:    newSink(cfg, outPath),
		History: history,
	}, tel)

	closeFn := func() {
		if database != nil {
			database.Close()
		}
	}
	return service, closeFn, nil
}
