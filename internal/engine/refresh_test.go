package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HackerOS-Linux-System/hammer/internal/model"
)

func TestRefreshNeverTouchesCurrent(t *testing.T) {
	eng, run := newTestEngine(t)
	allowReadOnlyCheck(run)
	parent := seedCurrentParent(t, eng)

	before, err := os.ReadDir(eng.Cfg.DeploymentsDir)
	require.NoError(t, err)

	require.NoError(t, eng.Refresh(context.Background()))

	got, lerr := os.Readlink(eng.Cfg.CurrentLink)
	require.NoError(t, lerr)
	assert.Equal(t, filepath.Join(eng.Cfg.DeploymentsDir, parent), got)

	meta, merr := eng.Meta.Read(parent)
	require.NoError(t, merr)
	assert.Equal(t, model.StatusReady, meta.Status)

	after, err := os.ReadDir(eng.Cfg.DeploymentsDir)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "scratch snapshot must be deleted, leaving deployments/ unchanged")
}

func TestRefreshRunningTwiceHasNoExtraEffect(t *testing.T) {
	eng, run := newTestEngine(t)
	allowReadOnlyCheck(run)
	seedCurrentParent(t, eng)

	require.NoError(t, eng.Refresh(context.Background()))
	require.NoError(t, eng.Refresh(context.Background()))

	entries, err := os.ReadDir(eng.Cfg.DeploymentsDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the seeded parent deployment remains")
}
