package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan string, within time.Duration) (string, bool) {
	t.Helper()
	select {
	case p, ok := <-ch:
		return p, ok
	case <-time.After(within):
		return "", false
	}
}

func TestInboxWatcher_ReportsSettledFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewInboxWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths, err := w.Watch(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	target := filepath.Join(dir, "r.yaml")
	require.NoError(t, os.WriteFile(target, []byte(lowReport), 0644))

	got, ok := receive(t, paths, 5*time.Second)
	require.True(t, ok, "no path reported")
	assert.Equal(t, target, got)

	// The .txt file never shows up.
	_, ok = receive(t, paths, 200*time.Millisecond)
	assert.False(t, ok)
}

func TestInboxWatcher_DebouncesRewrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewInboxWatcher(200*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths, err := w.Watch(ctx, dir)
	require.NoError(t, err)

	target := filepath.Join(dir, "r.yaml")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte(lowReport), 0644))
		time.Sleep(20 * time.Millisecond)
	}

	got, ok := receive(t, paths, 5*time.Second)
	require.True(t, ok)
	assert.Equal(t, target, got)

	_, ok = receive(t, paths, 500*time.Millisecond)
	assert.False(t, ok, "rewrites within the settle period are reported once")
}

func TestInboxWatcher_ClosesOnCancel(t *testing.T) {
	w, err := NewInboxWatcher(0, nil)
	require.NoError(t, err)
	defer w.Stop()
	assert.Equal(t, DefaultSettle, w.settle)

	ctx, cancel := context.WithCancel(context.Background())
	paths, err := w.Watch(ctx, t.TempDir())
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-paths:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestInboxWatcher_MissingDir(t *testing.T) {
	w, err := NewInboxWatcher(0, nil)
	require.NoError(t, err)
	defer w.Stop()

	_, err = w.Watch(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestWatchCommand_ProcessesArrivals(t *testing.T) {
	env := newTestEnv(t)
	inbox := filepath.Join(env.dir, "inbox")
	outDir := filepath.Join(env.dir, "out")
	require.NoError(t, os.MkdirAll(inbox, 0755))
	env.write(t, "inbox/existing.yaml", validReport)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := NewWatchCommand(env.opts("text"))
	out := &syncBuffer{}
	cmd.SetOut(out)
	cmd.SetErr(&syncBuffer{})
	cmd.SetArgs([]string{inbox, "-o", outDir, "--existing", "--settle", "50ms"})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	waitFor := func(cond func() bool) bool {
		deadline := time.Now().Add(10 * time.Second)
		for time.Now().Before(deadline) {
			if cond() {
				return true
			}
			time.Sleep(20 * time.Millisecond)
		}
		return false
	}

	pdfCount := func() int {
		matches, _ := filepath.Glob(filepath.Join(outDir, "*.pdf"))
		return len(matches)
	}

	require.True(t, waitFor(func() bool { return pdfCount() == 1 }), "existing report not composed")

	env.write(t, "inbox/new.yaml", lowReport)
	require.True(t, waitFor(func() bool { return pdfCount() == 2 }), "new report not composed")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	assert.Contains(t, out.String(), "existing.yaml -> ")
	assert.Contains(t, out.String(), "new.yaml -> ")
}
