package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeClient struct {
	values map[string]string
	err    error
	calls  []string
}

func (f *fakeClient) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.calls = append(f.calls, req.GetName())
	if f.err != nil {
		return nil, f.err
	}
	value, ok := f.values[req.GetName()]
	if !ok {
		return nil, status.Error(codes.NotFound, "secret not found")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Name:    req.GetName(),
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	}, nil
}

func (f *fakeClient) Close() error { return nil }

func writeFallback(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".secrets.local")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestResolveFetchesAndCaches(t *testing.T) {
	client := &fakeClient{values: map[string]string{
		"projects/kidsdev/secrets/session-hash-key/versions/latest": "remote-hash",
		"projects/other/secrets/api-key/versions/3":                 "pinned",
	}}
	r := NewResolver(context.Background(), WithClient(client), WithProject("kidsdev"), WithFallbackFile(""))

	for i := 0; i < 2; i++ {
		value, err := r.Resolve(context.Background(), "secret://session-hash-key")
		require.NoError(t, err)
		require.Equal(t, "remote-hash", value)
	}
	require.Len(t, client.calls, 1)

	value, err := r.Resolve(context.Background(), "secret://api-key?project=other&version=3")
	require.NoError(t, err)
	require.Equal(t, "pinned", value)
}

func TestResolveFallsBackWhenUnavailable(t *testing.T) {
	client := &fakeClient{err: status.Error(codes.Unavailable, "offline")}
	path := writeFallback(t, "SESSION_HASH_KEY=local-hash\n")
	r := NewResolver(context.Background(), WithClient(client), WithProject("kidsdev"), WithFallbackFile(path))

	value, err := r.Resolve(context.Background(), "secret://session-hash-key")
	require.NoError(t, err)
	require.Equal(t, "local-hash", value)
}

func TestResolveWithoutProjectUsesFallbackOnly(t *testing.T) {
	path := writeFallback(t, "FIREBASE_API_KEY=from-file\n")
	r := NewResolver(context.Background(), WithFallbackFile(path))

	value, err := r.Resolve(context.Background(), "secret://firebase-api-key")
	require.NoError(t, err)
	require.Equal(t, "from-file", value)

	_, err = r.Resolve(context.Background(), "secret://missing")
	require.Error(t, err)
}

func TestResolveDoesNotFallBackOnNotFound(t *testing.T) {
	client := &fakeClient{values: map[string]string{}}
	path := writeFallback(t, "GONE=local\n")
	r := NewResolver(context.Background(), WithClient(client), WithProject("kidsdev"), WithFallbackFile(path))

	_, err := r.Resolve(context.Background(), "secret://gone")
	require.Error(t, err)
}

func TestExpandLeavesPlainValues(t *testing.T) {
	path := writeFallback(t, "BLOCK_KEY=0123456789abcdef\n")
	r := NewResolver(context.Background(), WithFallbackFile(path))

	hash := "plain-hash"
	block := "secret://block-key"
	empty := ""
	require.NoError(t, r.Expand(context.Background(), &hash, &block, &empty, nil))
	require.Equal(t, "plain-hash", hash)
	require.Equal(t, "0123456789abcdef", block)
	require.Empty(t, empty)

	missing := "secret://nope"
	require.Error(t, r.Expand(context.Background(), &missing))
	require.Equal(t, "secret://nope", missing)
}

func TestParseReference(t *testing.T) {
	_, err := parseReference("https://example.com")
	require.Error(t, err)
	_, err = parseReference("secret://")
	require.Error(t, err)

	ref, err := parseReference("secret://session-hash-key?version=2")
	require.NoError(t, err)
	require.Equal(t, "session-hash-key", ref.name)
	require.Equal(t, "2", ref.version)
	require.Equal(t, "SESSION_HASH_KEY", FallbackKey(ref.name))
}
