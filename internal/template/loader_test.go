package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestParse(t *testing.T) {
	tpl, err := Parse([]byte(`
name: release
description: Release announcement
text: |
  We just shipped a new release!
targets:
  - bluesky
  - mastodon
`))
	require.NoError(t, err)

	assert.Equal(t, "release", tpl.Name)
	assert.Equal(t, "Release announcement", tpl.Description)
	assert.Equal(t, "We just shipped a new release!", tpl.Text)
	assert.Equal(t, []string{"bluesky", "mastodon"}, tpl.Targets)
}

func TestParseMissingFields(t *testing.T) {
	_, err := Parse([]byte("text: body only"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")

	_, err = Parse([]byte("name: no-body"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text")

	_, err = Parse([]byte("{not yaml"))
	require.Error(t, err)
}

func TestLoaderLoadsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "release.yaml", "name: release\ntext: shipped\n")
	writeTemplate(t, dir, "weekly.yml", "name: weekly\ntext: weekly notes\n")
	writeTemplate(t, dir, "ignored.txt", "not a template")

	l := NewLoader(dir)

	names, err := l.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"release", "weekly"}, names)

	tpl, err := l.Get("release")
	require.NoError(t, err)
	require.NotNil(t, tpl)
	assert.Equal(t, "shipped", tpl.Text)
	assert.NotEmpty(t, tpl.FilePath)
}

func TestLoaderGetUnknown(t *testing.T) {
	l := NewLoader(t.TempDir())

	tpl, err := l.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, tpl)
}

func TestLoaderMissingDirIsEmpty(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "does-not-exist"))

	names, err := l.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLoaderEmptyDirDisablesTemplates(t *testing.T) {
	l := NewLoader("")

	names, err := l.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLoaderBadTemplateFails(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "bad.yaml", "text: no name here\n")

	_, err := NewLoader(dir).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestLoaderReloadPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "a.yaml", "name: a\ntext: one\n")

	l := NewLoader(dir)
	_, err := l.Load()
	require.NoError(t, err)

	writeTemplate(t, dir, "b.yaml", "name: b\ntext: two\n")

	// Cached until reload.
	names, err := l.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names)

	_, err = l.Reload()
	require.NoError(t, err)

	names, err = l.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}
