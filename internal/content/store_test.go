package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func mapFetcher(files map[string]string) Fetcher {
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return FSFetcher{FS: fsys}
}

func TestLoadToleratesFailingSource(t *testing.T) {
	store := NewStore(mapFetcher(map[string]string{
		"data/posts.json": `[{"id":1,"title":"Hello","desc":"first post","category":"Web Dev"}]`,
	}))

	report, err := store.Load(context.Background(), []Source{
		{Name: "posts", Path: "data/posts.json", Type: TypePost},
		{Name: "courses", Path: "data/missing.json", Type: TypeCourse},
	})
	require.NoError(t, err)
	require.True(t, report.Applied)

	items := store.Items()
	require.Len(t, items, 1)
	require.Equal(t, "Hello", items[0].Title)
	require.Equal(t, TypePost, items[0].Type)
	require.Equal(t, "first post", items[0].Description)
	require.Equal(t, "1", items[0].ID)

	failed := report.Failed()
	require.Len(t, failed, 1)
	require.Equal(t, "courses", failed[0].Source)
	require.ErrorIs(t, failed[0].Err, ErrSourceNotFound)
	var srcErr *SourceError
	require.True(t, errors.As(failed[0].Err, &srcErr))
}

func TestLoadTreatsNonArrayAsEmpty(t *testing.T) {
	store := NewStore(mapFetcher(map[string]string{
		"a.json": `{"title":"not a list"}`,
		"b.json": `[{"title":"kept","type":"challenge"}, 42, {"type":"post"}]`,
	}))

	report, err := store.Load(context.Background(), []Source{
		{Name: "a", Path: "a.json", Type: TypePost},
		{Name: "b", Path: "b.json", Type: TypePost},
	})
	require.NoError(t, err)

	require.ErrorIs(t, report.Sources[0].Err, ErrNotArray)
	require.Equal(t, 2, report.Sources[1].Skipped, "non-object and untitled records are skipped")

	items := store.Items()
	require.Len(t, items, 1)
	require.Equal(t, TypeChallenge, items[0].Type, "explicit type is kept")
}

func TestLoadKeepsRecordsWithMistypedDecorations(t *testing.T) {
	store := NewStore(mapFetcher(map[string]string{
		"courses.json": `[
			{"title":"Python Basics","level":1},
			{"title":"Web Layout","duration":6},
			{"title":"Scratch","topics":"loops","keywords":["print(", 3, {"x":1}]},
			{"title":"Logic","status":{"label":"new"},"tech":["go"]},
			{"title":"OK"}
		]`,
	}))

	report, err := store.Load(context.Background(), []Source{{Name: "courses", Path: "courses.json", Type: TypeCourse}})
	require.NoError(t, err)
	require.Zero(t, report.Sources[0].Skipped)

	items := store.Items()
	require.Len(t, items, 5)
	require.Equal(t, "1", items[0].Level)
	require.Equal(t, "6", items[1].Duration)
	require.Equal(t, []string{"loops"}, items[2].Topics)
	require.Equal(t, []string{"print(", "3"}, items[2].Keywords)
	require.Empty(t, items[3].Status)
	require.Empty(t, items[3].Tech)
	require.Equal(t, "OK", items[4].Title)
}

func TestNetworkingNormalisation(t *testing.T) {
	store := NewStore(mapFetcher(map[string]string{
		"net.json": `[
			{"title":"Subnets","category":"Maths","type":"course"},
			{"title":"Routing","url":"courses/routing.html"}
		]`,
	}), WithNetworkingFallbackURL("courses/net.html"))

	_, err := store.Load(context.Background(), []Source{{Name: "networking", Path: "net.json", Type: TypeCourse, Networking: true}})
	require.NoError(t, err)

	items := store.Items()
	require.Len(t, items, 2)
	for _, item := range items {
		require.Equal(t, TypeNetworking, item.Type)
		require.Equal(t, "Networking", item.Category)
	}
	require.Equal(t, "courses/net.html", items[0].URL)
	require.Equal(t, "courses/routing.html", items[1].URL)
}

func TestLoadConcatenatesInSourceOrder(t *testing.T) {
	store := NewStore(mapFetcher(map[string]string{
		"one.json": `[{"title":"A"},{"title":"B"}]`,
		"two.json": `[{"title":"C"},{"title":"A"}]`,
	}))
	_, err := store.Load(context.Background(), []Source{
		{Name: "one", Path: "one.json", Type: TypePost},
		{Name: "two", Path: "two.json", Type: TypeDaily},
	})
	require.NoError(t, err)

	var titles []string
	for _, item := range store.Items() {
		titles = append(titles, item.Title)
	}
	require.Equal(t, []string{"A", "B", "C", "A"}, titles, "duplicates are tolerated")
	require.Len(t, store.OfType(TypeDaily), 2)
}

func TestItemsBeforeLoadIsEmpty(t *testing.T) {
	store := NewStore(mapFetcher(nil))
	require.Empty(t, store.Items())
	require.Zero(t, store.Generation())
}

func TestSupersededLoadIsIgnored(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var calls atomic.Int32

	fetcher := FetcherFunc(func(ctx context.Context, path string) ([]byte, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
			return []byte(`[{"title":"stale"}]`), nil
		}
		return []byte(`[{"title":"fresh"}]`), nil
	})
	store := NewStore(fetcher)
	sources := []Source{{Name: "posts", Path: "posts.json", Type: TypePost}}

	done := make(chan LoadReport)
	go func() {
		report, _ := store.Load(context.Background(), sources)
		done <- report
	}()
	<-entered

	second, err := store.Load(context.Background(), sources)
	require.NoError(t, err)
	require.True(t, second.Applied)

	close(release)
	first := <-done
	require.False(t, first.Applied)

	items := store.Items()
	require.Len(t, items, 1)
	require.Equal(t, "fresh", items[0].Title)
	require.Equal(t, second.Generation, store.Generation())
}

func TestHTTPFetcherNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok.json" {
			w.Write([]byte(`[{"title":"remote","type":"daily"}]`))
			return
		}
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	httpFetcher := NewHTTPFetcher(time.Second)
	defer httpFetcher.Client.CloseIdleConnections()
	store := NewStore(SchemeFetcher{HTTP: httpFetcher})
	report, err := store.Load(context.Background(), []Source{
		{Name: "ok", Path: srv.URL + "/ok.json", Type: TypePost},
		{Name: "broken", Path: srv.URL + "/broken.json", Type: TypePost},
		{Name: "local", Path: "data/posts.json", Type: TypePost},
	})
	require.NoError(t, err)

	var status *StatusError
	require.True(t, errors.As(report.Sources[1].Err, &status))
	require.Equal(t, http.StatusInternalServerError, status.Code)
	require.ErrorIs(t, report.Sources[2].Err, ErrUnsupportedScheme)

	items := store.Items()
	require.Len(t, items, 1)
	require.Equal(t, TypeDaily, items[0].Type)
}

func TestRefreshStopsOnCancel(t *testing.T) {
	var loads atomic.Int32
	store := NewStore(FetcherFunc(func(context.Context, string) ([]byte, error) {
		loads.Add(1)
		return []byte(`[]`), nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Refresh(ctx, []Source{{Name: "p", Path: "p.json"}}, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return loads.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	<-done
}

func TestParseGCSURI(t *testing.T) {
	bucket, object, err := ParseGCSURI("gs://kidsdev-content/data/posts.json")
	require.NoError(t, err)
	require.Equal(t, "kidsdev-content", bucket)
	require.Equal(t, "data/posts.json", object)

	_, _, err = ParseGCSURI("gs://bucket-only")
	require.Error(t, err)
	_, _, err = ParseGCSURI("s3://x/y")
	require.ErrorIs(t, err, ErrUnsupportedScheme)
}
