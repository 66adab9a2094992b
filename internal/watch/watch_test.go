package watch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Tiliavir/shiftplan/internal/watch"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func onlyText(path string) bool {
	return strings.HasSuffix(path, ".txt")
}

// start runs w in the background and returns a stop function that cancels
// it and waits for Run to return.
func start(t *testing.T, w *watch.Watcher) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	}
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for handler")
		return ""
	}
}

func TestWatcherHandlesExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "maerz.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("x"), 0o600))

	handled := make(chan string, 10)
	w := watch.New(dir, func(_ context.Context, path string) error {
		handled <- filepath.Base(path)
		return nil
	}, watch.WithFilter(onlyText), watch.WithDebounce(20*time.Millisecond), watch.WithExisting())
	stop := start(t, w)

	assert.Equal(t, "maerz.txt", receive(t, handled))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "april.txt"), []byte("x"), 0o600))
	assert.Equal(t, "april.txt", receive(t, handled))

	stop()
	assert.Empty(t, handled, "filtered and hidden files must not be handled")
}

func TestWatcherContinuesAfterHandlerError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0o600))

	handled := make(chan string, 10)
	w := watch.New(dir, func(_ context.Context, path string) error {
		handled <- filepath.Base(path)
		if strings.HasSuffix(path, "a.txt") {
			return errors.New("unreadable")
		}
		return nil
	}, watch.WithDebounce(10*time.Millisecond), watch.WithExisting())
	stop := start(t, w)
	defer stop()

	assert.Equal(t, "a.txt", receive(t, handled))
	assert.Equal(t, "b.txt", receive(t, handled))
}

func TestWatcherMissingDirectory(t *testing.T) {
	w := watch.New(filepath.Join(t.TempDir(), "missing"), func(context.Context, string) error { return nil })
	err := w.Run(context.Background())
	assert.Error(t, err)
}
