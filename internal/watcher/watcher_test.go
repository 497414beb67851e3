package watcher_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/portal/internal/pubsub"
	"github.com/zjrosen/portal/internal/watcher"
)

func startWatcher(t *testing.T, path string) <-chan pubsub.Event[watcher.Change] {
	t.Helper()
	w, err := watcher.New(watcher.Config{Path: path, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	ch := w.Broker().Subscribe(ctx)

	require.NoError(t, w.Start())
	return ch
}

func TestWatcher_CoalescesWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	ch := startWatcher(t, path)

	for i := range 10 {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`{"n":%d}`, i)), 0o600))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case ev := <-ch:
		require.Equal(t, pubsub.UpdatedEvent, ev.Type)
		require.False(t, ev.Payload.Removed)
	case <-time.After(time.Second):
		t.Fatal("expected a change event")
	}

	select {
	case <-ch:
		t.Fatal("unexpected second event")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	other := filepath.Join(dir, "portal.db")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o600))
	ch := startWatcher(t, path)

	require.NoError(t, os.WriteFile(other, []byte("y"), 0o600))

	select {
	case <-ch:
		t.Fatal("unexpected event for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_ReportsRemoval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	ch := startWatcher(t, path)

	require.NoError(t, os.Remove(path))

	select {
	case ev := <-ch:
		require.True(t, ev.Payload.Removed)
	case <-time.After(time.Second):
		t.Fatal("expected a removal event")
	}
}

func TestWatcher_CreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	ch := startWatcher(t, path)

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	select {
	case ev := <-ch:
		require.Equal(t, path, ev.Payload.Path)
	case <-time.After(time.Second):
		t.Fatal("expected a create event")
	}
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := watcher.New(watcher.Config{})
	require.Error(t, err)
}
