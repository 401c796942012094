package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o600))
	}
}

func TestCollectImages(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "jane_doe.jpg", "Bob.PNG", "notes.txt", "_.jpg", "carol.webp")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.jpg"), 0o755))

	items, err := collectImages(dir)
	require.NoError(t, err)

	var names []string
	for _, item := range items {
		names = append(names, item.Name)
	}
	assert.Equal(t, []string{"Bob", "carol", "jane doe"}, names)
	assert.Equal(t, filepath.Join(dir, "Bob.PNG"), items[0].Path)
}

func TestCollectImages_MissingDir(t *testing.T) {
	_, err := collectImages(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestImportFaces(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "alice.jpg", "bob.jpg", "carol.jpg")
	items, err := collectImages(dir)
	require.NoError(t, err)
	items = append(items, importItem{Path: filepath.Join(dir, "gone.jpg"), Name: "gone"})

	var mu sync.Mutex
	registered := map[string]string{}
	var inFlight, peak atomic.Int32
	register := func(ctx context.Context, name string, image []byte) error {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		if name == "bob" {
			return errors.New("no face detected")
		}
		mu.Lock()
		registered[name] = string(image)
		mu.Unlock()
		return nil
	}
	var calls atomic.Int32

	result := importFaces(context.Background(), items, 2, register, func() { calls.Add(1) })

	assert.Equal(t, 2, result.Registered)
	assert.Len(t, result.Failed, 2)
	assert.Contains(t, result.Failed, filepath.Join(dir, "bob.jpg"))
	assert.Contains(t, result.Failed, filepath.Join(dir, "gone.jpg"))
	assert.Equal(t, map[string]string{"alice": "alice.jpg", "carol": "carol.jpg"}, registered)
	assert.Equal(t, int32(4), calls.Load())
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestImportFaces_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "alice.jpg")
	items, err := collectImages(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	result := importFaces(ctx, items, 0, func(context.Context, string, []byte) error {
		called = true
		return nil
	}, func() {})

	assert.False(t, called)
	assert.Equal(t, 0, result.Registered)
	assert.ErrorIs(t, result.Failed[items[0].Path], context.Canceled)
}
