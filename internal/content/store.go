package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/observability"
)

const (
	tracerName           = "github.com/kidsdev-Academy/kidsdev.github.io/internal/content"
	networkingCategory   = "Networking"
	defaultNetworkingURL = "courses/networking.html"
	defaultFetchWorkers  = 8
	resultOK             = "ok"
	resultError          = "error"
)

// ErrNotArray is recorded when a source payload is not a JSON array.
var ErrNotArray = errors.New("content: payload is not a JSON array")

// Source names one JSON collection and the type its untagged records receive.
type Source struct {
	Name       string
	Path       string
	Type       Type
	Networking bool
}

// SourceError wraps the failure of a single source.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("content source %q: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// SourceReport describes the outcome of one source within a load.
type SourceReport struct {
	Source  string
	Items   int
	Skipped int
	Err     error
}

// LoadReport summarises a load. Failed sources contributed no items.
type LoadReport struct {
	Generation uint64
	Sources    []SourceReport
	Items      int
	Applied    bool
}

// Failed returns the reports of sources that failed.
func (r LoadReport) Failed() []SourceReport {
	var out []SourceReport
	for _, src := range r.Sources {
		if src.Err != nil {
			out = append(out, src)
		}
	}
	return out
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		s.logger = observability.OrNop(logger)
	}
}

// WithMetrics records fetch outcomes and item counts.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithNetworkingFallbackURL sets the url given to networking records that have none.
func WithNetworkingFallbackURL(url string) Option {
	return func(s *Store) {
		if url != "" {
			s.fallbackURL = url
		}
	}
}

// WithTracer overrides the tracer used for load spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Store) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// Store owns the merged content collection. Readers see either the previous or the next
// collection, never a partial one.
type Store struct {
	fetcher     Fetcher
	logger      *zap.Logger
	metrics     *observability.Metrics
	tracer      trace.Tracer
	fallbackURL string

	started atomic.Uint64

	mu        sync.RWMutex
	items     []Item
	committed uint64
}

// NewStore constructs an empty store reading sources through fetcher.
func NewStore(fetcher Fetcher, opts ...Option) *Store {
	if fetcher == nil {
		panic("content: fetcher is required")
	}
	s := &Store{
		fetcher:     fetcher,
		logger:      zap.NewNop(),
		tracer:      otel.Tracer(tracerName),
		fallbackURL: defaultNetworkingURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches every source concurrently and replaces the collection with their concatenation
// in source order. A failing source contributes an empty list and never aborts the load. A load
// that finishes after a later-started load has been committed is discarded.
func (s *Store) Load(ctx context.Context, sources []Source) (LoadReport, error) {
	gen := s.started.Add(1)
	ctx, span := s.tracer.Start(ctx, "content.Load", trace.WithAttributes(
		attribute.Int("content.sources", len(sources)),
		attribute.Int64("content.generation", int64(gen)),
	))
	defer span.End()

	results := make([][]Item, len(sources))
	reports := make([]SourceReport, len(sources))

	var g errgroup.Group
	g.SetLimit(defaultFetchWorkers)
	for i, src := range sources {
		g.Go(func() error {
			items, skipped, err := s.loadSource(ctx, src)
			results[i] = items
			reports[i] = SourceReport{Source: src.Name, Items: len(items), Skipped: skipped, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	report := LoadReport{Generation: gen, Sources: reports}
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "cancelled")
		return report, err
	}

	total := 0
	for _, items := range results {
		total += len(items)
	}
	merged := make([]Item, 0, total)
	for _, items := range results {
		merged = append(merged, items...)
	}
	report.Items = len(merged)
	report.Applied = s.commit(gen, merged)

	span.SetAttributes(attribute.Int("content.items", len(merged)), attribute.Bool("content.applied", report.Applied))
	if !report.Applied {
		s.logger.Debug("superseded content load discarded", zap.Uint64("generation", gen))
	}
	return report, nil
}

func (s *Store) loadSource(ctx context.Context, src Source) ([]Item, int, error) {
	ctx, span := s.tracer.Start(ctx, "content.LoadSource", trace.WithAttributes(
		attribute.String("source.name", src.Name),
		attribute.String("source.path", src.Path),
	))
	defer span.End()

	logger := s.logger.With(zap.String("source", src.Name), zap.String("path", src.Path))
	fail := func(err error) ([]Item, int, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.SourceFetched(src.Name, resultError)
		logger.Warn("content source failed", zap.Error(err))
		return nil, 0, &SourceError{Source: src.Name, Err: err}
	}

	data, err := s.fetcher.Fetch(ctx, src.Path)
	if err != nil {
		return fail(err)
	}
	items, skipped, err := decodeRecords(data)
	if err != nil {
		return fail(err)
	}
	items, dropped := s.normalize(src, items)
	skipped += dropped
	if skipped > 0 {
		logger.Debug("content records skipped", zap.Int("skipped", skipped))
	}
	span.SetAttributes(attribute.Int("items", len(items)))
	s.metrics.SourceFetched(src.Name, resultOK)
	return items, skipped, nil
}

func decodeRecords(data []byte) ([]Item, int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, 0, ErrNotArray
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, 0, fmt.Errorf("content: decode array: %w", err)
	}
	items := make([]Item, 0, len(raw))
	skipped := 0
	for _, rec := range raw {
		var item Item
		if err := json.Unmarshal(rec, &item); err != nil {
			skipped++
			continue
		}
		items = append(items, item)
	}
	return items, skipped, nil
}

// normalize tags untyped records with the source type and rewrites networking records. Records
// that still lack a type or a title are dropped.
func (s *Store) normalize(src Source, items []Item) ([]Item, int) {
	out := items[:0]
	dropped := 0
	for _, item := range items {
		if item.Type == "" {
			item.Type = src.Type
		}
		if src.Networking {
			item.Type = TypeNetworking
			item.Category = networkingCategory
			if item.URL == "" {
				item.URL = s.fallbackURL
			}
		}
		if item.Type == "" || item.Title == "" {
			dropped++
			continue
		}
		out = append(out, item)
	}
	return out, dropped
}

func (s *Store) commit(gen uint64, items []Item) bool {
	s.mu.Lock()
	if gen < s.committed {
		s.mu.Unlock()
		return false
	}
	s.committed = gen
	s.items = items
	s.mu.Unlock()

	if s.metrics != nil {
		counts := make(map[string]int)
		for _, item := range items {
			counts[string(item.Type)]++
		}
		s.metrics.ItemsLoaded(counts)
	}
	return true
}

// Items returns a snapshot of the collection. Before the first load it is empty.
func (s *Store) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// OfType returns the items whose type is one of types, in collection order.
func (s *Store) OfType(types ...Type) []Item {
	return FilterTypes(s.Items(), types...)
}

// Generation returns the generation of the committed collection, zero before the first load.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed
}

// Refresh reloads sources every interval until ctx is cancelled. A non-positive interval
// disables refreshing.
func (s *Store) Refresh(ctx context.Context, sources []Source, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := s.Load(ctx, sources)
			if err != nil {
				return
			}
			s.logger.Debug("content refreshed",
				zap.Int("items", report.Items),
				zap.Int("failed_sources", len(report.Failed())),
			)
		}
	}
}

// FilterTypes keeps items whose type is one of types, preserving order.
func FilterTypes(items []Item, types ...Type) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		for _, t := range types {
			if item.Type == t {
				out = append(out, item)
				break
			}
		}
	}
	return out
}
