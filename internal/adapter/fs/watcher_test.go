package fs

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Relevant(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root, NewWalker([]string{"**/*.txt"}, []string{"drafts/**"}), 0, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want bool
	}{
		{"create text file", "a.txt", fsnotify.Create, true},
		{"write nested text file", "notes/a.txt", fsnotify.Write, true},
		{"remove text file", "a.txt", fsnotify.Remove, true},
		{"rename text file", "a.txt", fsnotify.Rename, true},
		{"chmod ignored", "a.txt", fsnotify.Chmod, false},
		{"other extension", "a.png", fsnotify.Write, false},
		{"excluded directory", "drafts/a.txt", fsnotify.Write, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := fsnotify.Event{Name: filepath.Join(root, tt.path), Op: tt.op}
			assert.Equal(t, tt.want, w.relevant(ev))
		})
	}
}

func TestWatcher_Run(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root, NewWalker([]string{"**/*.txt"}, nil), 50*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var changes atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func() { changes.Add(1) })
	}()

	// Give the watcher time to register the root.
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("version"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.bin"), []byte("x"), 0644))

	assert.Eventually(t, func() bool { return changes.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
