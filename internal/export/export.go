// Package export writes the site as static files that can be hosted without the server.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/curriculum"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/observability"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/pages"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/site"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/views"
)

const (
	notFoundPage = "/404.html"
	levelQuery   = "/curriculum/level.html"
	defaultLimit = 8
)

// Options configures an export run.
type Options struct {
	Site       *site.Site
	Library    *pages.Library
	Curriculum *curriculum.Catalog
	// DataFS is copied to data/ so the JSON collections stay fetchable.
	DataFS fs.FS
	OutDir string
	// Concurrency bounds parallel page renders.
	Concurrency int
	Logger      *zap.Logger
}

// Report lists what was written, relative to OutDir.
type Report struct {
	Pages  []string
	Assets []string
	Data   []string
}

// PagePaths returns every page the site consists of: the fixed routes, one page per curriculum
// level and every markdown page. The query-driven level page is left out.
func PagePaths(library *pages.Library, catalog *curriculum.Catalog) []string {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		p = path.Clean("/" + strings.TrimPrefix(p, "/"))
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, r := range pages.Table {
		if r.Path == levelQuery {
			continue
		}
		add(r.Path)
	}
	for _, lvl := range catalog.Levels() {
		add(pages.LevelPath(lvl.ID))
	}
	for _, slug := range library.Slugs() {
		add(slug + ".html")
	}
	return out
}

// Run renders every page into OutDir and copies the assets and data files next to them.
func Run(ctx context.Context, opts Options) (Report, error) {
	if opts.Site == nil {
		return Report{}, errors.New("export: site is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return Report{}, errors.New("export: output directory is required")
	}
	logger := observability.OrNop(opts.Logger).Named("export")
	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultLimit
	}

	targets := PagePaths(opts.Library, opts.Curriculum)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, p := range targets {
		g.Go(func() error {
			return renderPage(gctx, opts, p, http.StatusOK)
		})
	}
	g.Go(func() error {
		return renderPage(gctx, opts, notFoundPage, http.StatusNotFound)
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{Pages: append(targets, notFoundPage)}
	for i, p := range report.Pages {
		report.Pages[i] = strings.TrimPrefix(p, "/")
	}
	sort.Strings(report.Pages)

	static, err := views.Static()
	if err != nil {
		return Report{}, fmt.Errorf("export: static assets: %w", err)
	}
	if report.Assets, err = copyTree(static, filepath.Join(opts.OutDir, "assets"), "assets"); err != nil {
		return Report{}, err
	}
	if opts.DataFS != nil {
		if report.Data, err = copyTree(opts.DataFS, filepath.Join(opts.OutDir, "data"), "data"); err != nil {
			return Report{}, err
		}
	}

	logger.Info("site exported",
		zap.String("out_dir", opts.OutDir),
		zap.Int("pages", len(report.Pages)),
		zap.Int("assets", len(report.Assets)),
		zap.Int("data_files", len(report.Data)),
	)
	return report, nil
}

func renderPage(ctx context.Context, opts Options, pagePath string, want int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	status, err := opts.Site.Render(ctx, &buf, site.Request{Path: pagePath})
	if err != nil {
		return fmt.Errorf("export: render %s: %w", pagePath, err)
	}
	if status != want {
		return fmt.Errorf("export: render %s: status %d, want %d", pagePath, status, want)
	}
	return writeFile(filepath.Join(opts.OutDir, filepath.FromSlash(strings.TrimPrefix(pagePath, "/"))), buf.Bytes())
}

// copyTree copies every regular file of fsys below dir and returns their names prefixed with label.
func copyTree(fsys fs.FS, dir, label string) ([]string, error) {
	var written []string
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dir, filepath.FromSlash(name)), data); err != nil {
			return err
		}
		written = append(written, path.Join(label, name))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("export: copy %s: %w", label, err)
	}
	return written, nil
}

func writeFile(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("export: create %s: %w", filepath.Dir(name), err)
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", name, err)
	}
	return nil
}
