package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) handle(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func TestWatcher_OpensSettledPDFs(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := New(dir, 20*time.Millisecond, rec.handle, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	pdfPath := filepath.Join(dir, "scan.PDF")
	txtPath := filepath.Join(dir, "notes.txt")

	// Keep writing until the watcher is up and has reported the document.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(txtPath, []byte("ignored"), 0o644)
		_ = os.WriteFile(pdfPath, []byte("%PDF-1.7"), 0o644)
		return len(rec.seen()) > 0
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}

	for _, p := range rec.seen() {
		assert.Equal(t, "scan.PDF", filepath.Base(p))
	}
}

func TestWatcher_DebouncesBurstOfWrites(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := New(dir, 300*time.Millisecond, rec.handle, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Give the watcher time to register the directory.
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(dir, "big.pdf")
	f, err := os.Create(path)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := f.WriteString("chunk ")
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool { return len(rec.seen()) > 0 }, 5*time.Second, 50*time.Millisecond)
	time.Sleep(500 * time.Millisecond)
	assert.Len(t, rec.seen(), 1, "one handler call per settled burst")
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope"), 0, nil, nil)
	err := w.Run(context.Background())
	assert.Error(t, err)
}

func TestDebouncer_DropsStaleGenerations(t *testing.T) {
	d := newDebouncer(time.Hour)
	defer d.stop()

	d.touch("a.pdf")
	d.touch("a.pdf")

	assert.False(t, d.accept(settledPath{path: "a.pdf", gen: 1}), "superseded arming")
	assert.True(t, d.accept(settledPath{path: "a.pdf", gen: 2}))
	assert.False(t, d.accept(settledPath{path: "a.pdf", gen: 2}), "already delivered")
	assert.False(t, d.accept(settledPath{path: "b.pdf", gen: 2}), "never touched")
}

func TestDebouncer_FiredTimerIsNotDeliveredTwice(t *testing.T) {
	d := newDebouncer(time.Millisecond)
	defer d.stop()

	d.touch("a.pdf")
	// Let the first timer fire and block on the channel.
	time.Sleep(50 * time.Millisecond)
	d.touch("a.pdf")

	accepted := 0
	for i := 0; i < 2; i++ {
		select {
		case s := <-d.settled:
			if d.accept(s) {
				accepted++
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timer never fired")
		}
	}
	assert.Equal(t, 1, accepted)
}
