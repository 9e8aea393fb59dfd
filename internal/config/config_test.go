package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(filepath.Join(dir, "missing.env")),
		WithEnvMap(map[string]string{}),
	)
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 2, cfg.Content.SearchMinLength)
	require.Equal(t, 3, cfg.Content.HomePostLimit)
	require.Len(t, cfg.Content.Sources, 5)
	require.True(t, cfg.Content.Sources[4].Networking)
	require.Equal(t, "courses/networking.html", cfg.Content.NetworkingFallbackURL)
	require.InDelta(t, 0.15, cfg.Reveal.Threshold, 0.0001)
	require.Equal(t, "login.html", cfg.Paths.Login)
	require.False(t, cfg.Firebase.Enabled())
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	site := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(site, []byte(`
site:
  name: Test Academy
  contact_email: hello@example.com
content:
  dir: testdata
  refresh_interval: 2m
  search_min_length: 1
  sources:
    - name: posts
      path: data/posts.json
      type: post
reveal:
  threshold: 0.3
  delay_base_ms: 80
faq:
  - question: Is it free?
    answer: Yes.
`), 0o600))
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("KIDSDEV_ADDR=:9000\nKIDSDEV_SEARCH_MIN_LENGTH=2\n"), 0o600))

	cfg, err := Load(
		WithoutSystemEnv(),
		WithSiteFile(site),
		WithEnvFile(envFile),
		WithEnvMap(map[string]string{"KIDSDEV_ADDR": ":9100"}),
	)
	require.NoError(t, err)

	require.Equal(t, "Test Academy", cfg.Site.Name)
	require.Equal(t, "hello@example.com", cfg.Contact.Email)
	require.Equal(t, "testdata", cfg.Content.Dir)
	require.Equal(t, 2*time.Minute, cfg.Content.RefreshInterval)
	require.Len(t, cfg.Content.Sources, 1)
	require.Equal(t, 2, cfg.Content.SearchMinLength, ".env overrides site.yaml")
	require.Equal(t, ":9100", cfg.Server.Addr, "explicit map overrides .env")
	require.InDelta(t, 0.3, cfg.Reveal.Threshold, 0.0001)
	require.Equal(t, 80*time.Millisecond, cfg.Reveal.DelayBase)
	require.Len(t, cfg.Site.FAQ, 1)
}

func TestLoadRejectsInvalidSearchLength(t *testing.T) {
	_, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithSiteFile(filepath.Join(t.TempDir(), "none.yaml")),
	)
	require.Error(t, err, "explicit site file must exist")

	_, err = Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{"KIDSDEV_SEARCH_MIN_LENGTH": "5"}),
	)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields(), "Content.SearchMinLength")
}
