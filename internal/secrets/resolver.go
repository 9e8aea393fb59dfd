package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"unicode"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// Scheme prefixes configuration values that name a Secret Manager secret.
	Scheme = "secret://"

	defaultFallbackPath = ".secrets.local"
	meterName           = "github.com/kidsdev-Academy/kidsdev.github.io/internal/secrets"
)

var clientFactory = func(ctx context.Context, opts ...option.ClientOption) (accessClient, error) {
	return secretmanager.NewClient(ctx, opts...)
}

type accessClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Resolver expands secret:// references found in configuration values.
// Remote values come from Secret Manager; a local dotenv file answers when the
// remote is unreachable or no project is configured.
type Resolver struct {
	client     accessClient
	ownsClient bool
	logger     *zap.Logger
	projectID  string

	fallbackPath string
	fallbackOnce sync.Once
	fallbackVals map[string]string

	mu    sync.Mutex
	cache map[string]string

	lookups        metric.Int64Counter
	lookupsEnabled bool
}

type resolverConfig struct {
	logger       *zap.Logger
	projectID    string
	fallbackPath string
	meter        metric.Meter
	client       accessClient
	clientOpts   []option.ClientOption
}

// Option customises Resolver construction.
type Option func(*resolverConfig)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *resolverConfig) {
		cfg.logger = logger
	}
}

// WithProject sets the project that owns unqualified secrets.
func WithProject(projectID string) Option {
	return func(cfg *resolverConfig) {
		cfg.projectID = strings.TrimSpace(projectID)
	}
}

// WithFallbackFile overrides the local fallback file. An empty path disables it.
func WithFallbackFile(path string) Option {
	return func(cfg *resolverConfig) {
		cfg.fallbackPath = strings.TrimSpace(path)
	}
}

// WithMeter injects the OpenTelemetry meter used for lookup counts.
func WithMeter(m metric.Meter) Option {
	return func(cfg *resolverConfig) {
		cfg.meter = m
	}
}

// WithClient injects a Secret Manager client.
func WithClient(client accessClient) Option {
	return func(cfg *resolverConfig) {
		cfg.client = client
	}
}

// WithClientOptions forwards options to the Secret Manager client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(cfg *resolverConfig) {
		cfg.clientOpts = append(cfg.clientOpts, opts...)
	}
}

// NewResolver builds a Resolver. A client that cannot be created leaves the
// resolver in fallback-only mode.
func NewResolver(ctx context.Context, opts ...Option) *Resolver {
	cfg := resolverConfig{logger: zap.NewNop(), fallbackPath: defaultFallbackPath}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	meter := cfg.meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(meterName)
	}

	r := &Resolver{
		logger:       cfg.logger,
		projectID:    cfg.projectID,
		fallbackPath: cfg.fallbackPath,
		cache:        make(map[string]string),
	}
	lookups, err := meter.Int64Counter("kidsdev.secrets.lookups",
		metric.WithDescription("Secret lookups by source"))
	if err != nil {
		cfg.logger.Warn("secrets: unable to register lookup metric", zap.Error(err))
	} else {
		r.lookups = lookups
		r.lookupsEnabled = true
	}

	switch {
	case cfg.client != nil:
		r.client = cfg.client
	case cfg.projectID != "":
		client, err := clientFactory(ctx, cfg.clientOpts...)
		if err != nil {
			cfg.logger.Warn("secrets: secret manager unavailable; using local fallback", zap.Error(err))
		} else {
			r.client = client
			r.ownsClient = true
		}
	}
	return r
}

// Close releases the Secret Manager client when the resolver created it.
func (r *Resolver) Close() error {
	if r.ownsClient && r.client != nil {
		return r.client.Close()
	}
	return nil
}

// IsReference reports whether value names a secret instead of holding one.
func IsReference(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), Scheme)
}

// Expand replaces every reference among values with its secret. Plain values are left alone.
func (r *Resolver) Expand(ctx context.Context, values ...*string) error {
	var errs []error
	for _, v := range values {
		if v == nil || !IsReference(*v) {
			continue
		}
		resolved, err := r.Resolve(ctx, *v)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*v = resolved
	}
	return errors.Join(errs...)
}

// Resolve returns the secret named by ref. References look like
// secret://name, optionally with ?version= and ?project= query parameters.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	parsed, err := parseReference(ref)
	if err != nil {
		return "", err
	}
	key := parsed.canonical + "#" + parsed.version

	r.mu.Lock()
	cached, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		r.record(ctx, "cache")
		return cached, nil
	}

	project := parsed.project
	if project == "" {
		project = r.projectID
	}
	if project != "" && r.client != nil {
		value, err := r.fetch(ctx, project, parsed)
		if err == nil {
			r.store(key, value)
			r.record(ctx, "remote")
			return value, nil
		}
		if !isFallbackError(err) {
			r.record(ctx, "error")
			return "", fmt.Errorf("secrets: fetch %s: %w", parsed.canonical, err)
		}
		r.logger.Debug("secrets: falling back to local file", zap.String("secret", parsed.name), zap.Error(err))
	}

	value, ok := r.lookupFallback(parsed.name)
	if !ok {
		r.record(ctx, "error")
		return "", fmt.Errorf("secrets: no value for %s", parsed.canonical)
	}
	r.store(key, value)
	r.record(ctx, "fallback")
	return value, nil
}

func (r *Resolver) fetch(ctx context.Context, project string, ref reference) (string, error) {
	name := fmt.Sprintf("projects/%s/secrets/%s/versions/%s", project, ref.name, ref.version)
	resp, err := r.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", err
	}
	if resp == nil || resp.GetPayload() == nil {
		return "", fmt.Errorf("empty payload for %s", name)
	}
	return string(resp.GetPayload().GetData()), nil
}

func (r *Resolver) store(key, value string) {
	r.mu.Lock()
	r.cache[key] = value
	r.mu.Unlock()
}

func (r *Resolver) lookupFallback(name string) (string, bool) {
	r.fallbackOnce.Do(func() {
		r.fallbackVals = map[string]string{}
		if r.fallbackPath == "" {
			return
		}
		values, err := godotenv.Read(r.fallbackPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				r.logger.Warn("secrets: read fallback file", zap.String("path", r.fallbackPath), zap.Error(err))
			}
			return
		}
		r.fallbackVals = values
	})
	value, ok := r.fallbackVals[FallbackKey(name)]
	return value, ok
}

func (r *Resolver) record(ctx context.Context, source string) {
	if !r.lookupsEnabled {
		return
	}
	r.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// FallbackKey is the dotenv key holding the local value of secret name:
// upper case with every other character replaced by an underscore.
func FallbackKey(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, name)
}

type reference struct {
	canonical string
	name      string
	version   string
	project   string
}

func parseReference(ref string) (reference, error) {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, Scheme) {
		return reference{}, fmt.Errorf("secrets: %q is not a %s reference", ref, Scheme)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return reference{}, fmt.Errorf("secrets: invalid reference %q: %w", ref, err)
	}
	name := strings.Trim(u.Host+u.Path, "/")
	if name == "" {
		return reference{}, fmt.Errorf("secrets: missing secret name in %q", ref)
	}
	q := u.Query()
	version := strings.TrimSpace(q.Get("version"))
	if version == "" {
		version = "latest"
	}
	project := strings.TrimSpace(q.Get("project"))
	return reference{
		canonical: Scheme + name + "?project=" + project,
		name:      name,
		version:   version,
		project:   project,
	}, nil
}

func isFallbackError(err error) bool {
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated, codes.Unavailable, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}
