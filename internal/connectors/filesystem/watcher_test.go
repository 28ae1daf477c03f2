package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventTimeout = 2 * time.Second

func waitFor(t *testing.T, changes <-chan Change, want ChangeType) Change {
	t.Helper()
	deadline := time.After(eventTimeout)
	for {
		select {
		case change, ok := <-changes:
			require.True(t, ok, "channel closed before %s event", want)
			if change.Type == want {
				return change
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s event", want)
		}
	}
}

func TestWatcher_Scan(t *testing.T) {
	t.Run("lists visible files recursively", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("h"), 0644))
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.md"), []byte("b"), 0644))
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "config"), []byte("c"), 0644))

		files, err := New(dir).Scan(context.Background())
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, filepath.Join(dir, "a.txt"), files[0])
		assert.Equal(t, filepath.Join(dir, "sub", "b.md"), files[1])
	})

	t.Run("applies the filter", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte("b"), 0644))

		w := New(dir, WithFilter(func(p string) bool { return strings.HasSuffix(p, ".txt") }))
		files, err := w.Scan(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, files)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := New("/non/existent/path").Scan(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("root is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "f.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
		_, err := New(file).Scan(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("cancelled context", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(dir).Scan(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWatcher_Watch(t *testing.T) {
	t.Run("reports created files", func(t *testing.T) {
		dir := t.TempDir()
		w := New(dir)
		defer w.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "new-file.txt"), []byte("content"), 0644))

		change := waitFor(t, changes, ChangeCreated)
		assert.Equal(t, "new-file.txt", change.FileName())
	})

	t.Run("reports modifications", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "test.txt")
		require.NoError(t, os.WriteFile(file, []byte("initial"), 0644))

		w := New(dir)
		defer w.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(file, []byte("modified"), 0644))

		change := waitFor(t, changes, ChangeUpdated)
		assert.Equal(t, file, change.Path)
	})

	t.Run("reports deletions", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "to-delete.txt")
		require.NoError(t, os.WriteFile(file, []byte("delete me"), 0644))

		w := New(dir)
		defer w.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		require.NoError(t, os.Remove(file))

		change := waitFor(t, changes, ChangeDeleted)
		assert.Equal(t, "to-delete.txt", change.FileName())
	})

	t.Run("watches new subdirectories", func(t *testing.T) {
		dir := t.TempDir()
		w := New(dir)
		defer w.Close()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		sub := filepath.Join(dir, "sub")
		require.NoError(t, os.Mkdir(sub, 0755))
		// Give the loop a moment to add the new directory.
		time.Sleep(100 * time.Millisecond)
		require.NoError(t, os.WriteFile(filepath.Join(sub, "deep.txt"), []byte("x"), 0644))

		change := waitFor(t, changes, ChangeCreated)
		assert.Equal(t, "deep.txt", change.FileName())
	})

	t.Run("missing root", func(t *testing.T) {
		changes, err := New("/non/existent/path").Watch(context.Background())
		assert.Nil(t, changes)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("closes channel when context is cancelled", func(t *testing.T) {
		w := New(t.TempDir())
		defer w.Close()
		ctx, cancel := context.WithCancel(context.Background())
		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		cancel()

		select {
		case _, ok := <-changes:
			if ok {
				for range changes {
				}
			}
		case <-time.After(eventTimeout):
			t.Fatal("channel did not close after context cancellation")
		}
	})

	t.Run("error after close", func(t *testing.T) {
		w := New(t.TempDir())
		require.NoError(t, w.Close())

		changes, err := w.Watch(context.Background())
		assert.Nil(t, changes)
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestWatcher_Close(t *testing.T) {
	w := New(t.TempDir())
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.Equal(t, w.root, w.Root())
}
