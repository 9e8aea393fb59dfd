package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const maxSourceBytes = 8 << 20

var (
	// ErrUnsupportedScheme is returned when no fetcher handles a source path.
	ErrUnsupportedScheme = errors.New("content: unsupported source scheme")
	// ErrSourceNotFound is returned when a source file or object does not exist.
	ErrSourceNotFound = errors.New("content: source not found")
)

// Fetcher retrieves the raw bytes of one content source.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// FetcherFunc adapts ordinary functions to Fetcher.
type FetcherFunc func(ctx context.Context, path string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, path string) ([]byte, error) {
	return f(ctx, path)
}

// StatusError reports a non-OK HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("content: GET %s: status %d", e.URL, e.Code)
}

// HTTPFetcher fetches http(s) sources.
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns an HTTPFetcher with a bounded client timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

// Fetch performs a GET and returns the body of a 2xx response.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := http.DefaultClient
	if f != nil && f.Client != nil {
		client = f.Client
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("content: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content: GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
}

// FSFetcher reads sources relative to a filesystem root (normally the content directory).
type FSFetcher struct {
	FS fs.FS
}

// Fetch reads the cleaned relative path from the filesystem.
func (f FSFetcher) Fetch(_ context.Context, name string) ([]byte, error) {
	if f.FS == nil {
		return nil, fmt.Errorf("%w: no content filesystem", ErrSourceNotFound)
	}
	clean := strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(name)), "/")
	data, err := fs.ReadFile(f.FS, clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, clean)
		}
		return nil, fmt.Errorf("content: read %s: %w", clean, err)
	}
	return data, nil
}

// GCSFetcher reads gs://bucket/object sources from Cloud Storage.
type GCSFetcher struct {
	client *storage.Client
}

// NewGCSFetcher constructs a Cloud Storage backed fetcher.
func NewGCSFetcher(ctx context.Context, opts ...option.ClientOption) (*GCSFetcher, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("content: storage client: %w", err)
	}
	return &GCSFetcher{client: client}, nil
}

// Fetch downloads the object named by a gs:// URL.
func (g *GCSFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	reader, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, uri)
		}
		return nil, fmt.Errorf("content: open %s: %w", uri, err)
	}
	defer reader.Close()
	return io.ReadAll(io.LimitReader(reader, maxSourceBytes))
}

// Close releases the storage client.
func (g *GCSFetcher) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

// ParseGCSURI splits gs://bucket/object into its parts.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "gs://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, uri)
	}
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" || object == "" {
		return "", "", fmt.Errorf("content: malformed gs uri %q", uri)
	}
	return bucket, object, nil
}

// SchemeFetcher dispatches on the source path scheme.
type SchemeFetcher struct {
	Local Fetcher
	HTTP  Fetcher
	GCS   Fetcher
}

// Fetch routes http(s):// to HTTP, gs:// to GCS and everything else to Local.
func (s SchemeFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	var target Fetcher
	switch {
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		target = s.HTTP
	case strings.HasPrefix(path, "gs://"):
		target = s.GCS
	default:
		target = s.Local
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, path)
	}
	return target.Fetch(ctx, path)
}
