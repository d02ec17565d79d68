package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toolprint/just-mcp/pkg/justfile"
	"github.com/toolprint/just-mcp/pkg/registry"
)

func newTestWatcher() (*Watcher, *registry.Registry) {
	reg := registry.New()
	parser := justfile.NewParser(justfile.PreferRegex)
	w := New(reg, parser, nil)
	return w, reg
}

func TestWatcher_Configure_SingleRootHasMultipleDirsFalse(t *testing.T) {
	w, _ := newTestWatcher()
	w.Configure([]Root{{Path: "/tmp/a"}})
	assert.False(t, w.hasMultipleDirs)
}

func TestWatcher_Configure_MultiRootHasMultipleDirsTrue(t *testing.T) {
	w, _ := newTestWatcher()
	w.Configure([]Root{{Path: "/tmp/a"}, {Path: "/tmp/b", Label: "b"}})
	assert.True(t, w.hasMultipleDirs)
}

func TestWatcher_UpdateJustfile_PublishesTools(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "justfile")
	require.NoError(t, os.WriteFile(path, []byte("# Build it\nbuild:\n    echo hi\n"), 0o644))

	w, reg := newTestWatcher()
	w.updateJustfile(context.Background(), path)

	tools := reg.List()
	require.Len(t, tools, 1)
	assert.Equal(t, "just_build", tools[0].DisplayName)
	assert.Equal(t, "Build it", tools[0].Description)
}

func TestWatcher_UpdateJustfile_ReparseReplacesStaleTools(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "justfile")
	require.NoError(t, os.WriteFile(path, []byte("build:\n    echo hi\n"), 0o644))

	w, reg := newTestWatcher()
	w.updateJustfile(context.Background(), path)
	require.Len(t, reg.List(), 1)

	require.NoError(t, os.WriteFile(path, []byte("deploy:\n    echo deploy\n"), 0o644))
	w.updateJustfile(context.Background(), path)

	tools := reg.List()
	require.Len(t, tools, 1)
	assert.Equal(t, "just_deploy", tools[0].DisplayName)
}

func TestWatcher_UpdateJustfile_UnchangedContentSkipsRepublish(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "justfile")
	require.NoError(t, os.WriteFile(path, []byte("build:\n    echo hi\n"), 0o644))

	w, reg := newTestWatcher()
	changes := make(chan struct{}, 2)
	w.NotifyOn(changes)

	n, err := w.UpdateJustfile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, changes, 1)
	<-changes

	n, err = w.UpdateJustfile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "unchanged content should still report its last known recipe count")
	assert.Empty(t, changes, "no new change notification for byte-identical content")
	assert.Len(t, reg.List(), 1)
}

func TestWatcher_RemoveJustfileTools(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "justfile")
	require.NoError(t, os.WriteFile(path, []byte("build:\n    echo hi\n"), 0o644))

	w, reg := newTestWatcher()
	w.updateJustfile(context.Background(), path)
	require.Len(t, reg.List(), 1)

	w.removeJustfileTools(path)
	assert.Empty(t, reg.List())
}
