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

func TestWatcher_DeliversDebouncedChanges(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "a.json")
	other := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(watched, []byte(`{}`), 0o600))

	w, err := New([]string{watched}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	var mu sync.Mutex
	var got []Change
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() {
		runErr <- w.Run(ctx, func(batch []Change) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, batch...)
		})
	}()

	require.NoError(t, os.WriteFile(other, []byte(`{}`), 0o600))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(watched, []byte(`{"openapi": "3.0.0"}`), 0o600))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	for _, c := range got {
		assert.Equal(t, watched, c.Path)
	}
	assert.Equal(t, Reload, got[len(got)-1].Op)
	mu.Unlock()

	require.NoError(t, os.Remove(watched))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got[len(got)-1].Op == Drop
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-runErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{filepath.Join(dir, "a.json")})
	require.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
