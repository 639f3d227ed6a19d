package lockguard_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HackerOS-Linux-System/hammer/internal/herr"
	"github.com/HackerOS-Linux-System/hammer/internal/lockguard"
)

func TestWithLockRunsAndReleases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hammer.lock")
	g := lockguard.New(path)

	var ran bool
	err := g.WithLock(func() error {
		ran = true
		assert.True(t, g.Held())
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, g.Held())
}

func TestWithLockReleasesOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hammer.lock")
	g := lockguard.New(path)

	wantErr := errors.New("boom")
	err := g.WithLock(func() error { return wantErr })
	assert.Equal(t, wantErr, err)
	assert.False(t, g.Held())
}

func TestWithLockBusy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hammer.lock")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	g := lockguard.New(path)
	err := g.WithLock(func() error { return nil })

	var busy *herr.BusyError
	assert.ErrorAs(t, err, &busy)
}

func TestClearIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hammer.lock")
	g := lockguard.New(path)

	require.NoError(t, g.Clear())

	require.NoError(t, os.WriteFile(path, nil, 0644))
	assert.True(t, g.Held())
	require.NoError(t, g.Clear())
	assert.False(t, g.Held())
}
