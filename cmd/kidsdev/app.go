package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/authwidget"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/config"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/content"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/curriculum"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/observability"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/pages"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/site"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/views"
)

// app is the loaded content plus the site rendering it.
type app struct {
	cfg        config.Config
	logger     *zap.Logger
	metrics    *observability.Metrics
	contentFS  fs.FS
	store      *content.Store
	sources    []content.Source
	library    *pages.Library
	curriculum *curriculum.Catalog
	site       *site.Site
	report     content.LoadReport
	closers    []func() error
}

type appOptions struct {
	metrics  *observability.Metrics
	profiles authwidget.ProfileSource
	// remote enables gs:// sources through Cloud Storage.
	remote bool
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	logger, err := observability.NewLogger(cfg.LogLevel, cfg.Server.DevMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// loadApp reads the content directory and builds the site over it.
func loadApp(ctx context.Context, cfg config.Config, logger *zap.Logger, opts appOptions) (*app, error) {
	a := &app{
		cfg:       cfg,
		logger:    logger,
		metrics:   opts.metrics,
		contentFS: os.DirFS(cfg.Content.Dir),
		sources:   site.Sources(cfg.Content),
	}

	fetcher := content.SchemeFetcher{
		Local: content.FSFetcher{FS: a.contentFS},
		HTTP:  content.NewHTTPFetcher(0),
	}
	if opts.remote && cfg.Firebase.Enabled() {
		var clientOpts []option.ClientOption
		if cfg.Firebase.CredentialsFile != "" {
			clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
		}
		gcs, err := content.NewGCSFetcher(ctx, clientOpts...)
		if err != nil {
			logger.Warn("cloud storage sources disabled", zap.Error(err))
		} else {
			fetcher.GCS = gcs
			a.closers = append(a.closers, gcs.Close)
		}
	}

	a.store = content.NewStore(fetcher,
		content.WithLogger(logger.Named("content")),
		content.WithMetrics(opts.metrics),
		content.WithNetworkingFallbackURL(cfg.Content.NetworkingFallbackURL),
		content.WithTracer(otel.Tracer("github.com/kidsdev-Academy/kidsdev.github.io/internal/content")),
	)
	report, err := a.store.Load(ctx, a.sources)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	a.report = report
	for _, failed := range report.Failed() {
		logger.Warn("content source failed", zap.String("source", failed.Source), zap.Error(failed.Err))
	}

	a.library, err = pages.LoadLibrary(a.contentFS, "pages")
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}
	a.curriculum, err = curriculum.Load(a.contentFS, filepath.ToSlash(cfg.Content.CurriculumFile))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		logger.Warn("curriculum file missing; level pages disabled", zap.String("file", cfg.Content.CurriculumFile))
		a.curriculum = nil
	}

	renderer, err := views.New()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	a.site, err = site.New(site.Options{
		Config:     cfg,
		Store:      a.store,
		Library:    a.library,
		Curriculum: a.curriculum,
		Profiles:   opts.profiles,
		Views:      renderer,
		Logger:     logger,
		Metrics:    opts.metrics,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) dataFS() fs.FS {
	sub, err := fs.Sub(a.contentFS, "data")
	if err != nil {
		return nil
	}
	return sub
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
}
