package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/testutil"
)

func contentDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "content")
	require.NoError(t, os.CopyFS(dir, testutil.ContentFS()))
	t.Setenv("KIDSDEV_CONTENT_DIR", dir)
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", ""))
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckContentReportsSources(t *testing.T) {
	contentDir(t)

	out, err := run(t, "check-content")
	require.NoError(t, err)
	require.Contains(t, out, "posts")
	require.Contains(t, out, "networking")
	require.Contains(t, out, "curriculum levels: 2")
}

func TestCheckContentFailsOnBrokenSource(t *testing.T) {
	dir := contentDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "daily.json"), []byte("{not json"), 0o644))

	_, err := run(t, "check-content")
	require.Error(t, err)
}

func TestExportWritesFiles(t *testing.T) {
	contentDir(t)
	out := t.TempDir()

	stdout, err := run(t, "export", "--out", out)
	require.NoError(t, err)
	require.Contains(t, stdout, "exported")

	for _, name := range []string{"index.html", "404.html", "curriculum/level-1.html", "about.html", "assets/site.js", "data/courses.json"} {
		_, err := os.Stat(filepath.Join(out, filepath.FromSlash(name)))
		require.NoError(t, err, name)
	}
}
