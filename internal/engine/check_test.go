package engine

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HackerOS-Linux-System/hammer/internal/procrunner"
)

func TestCheckReportsNoUpdateAvailable(t *testing.T) {
	eng, run := newTestEngine(t)
	allowReadOnlyCheck(run)
	seedCurrentParent(t, eng)
	run.On("chroot ", procrunner.Result{Success: true, Stdout: []byte("0 upgraded, 0 newly installed, 0 to remove\n")})

	available, err := eng.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, available)
}

func TestCheckReportsUpdateAvailable(t *testing.T) {
	eng, run := newTestEngine(t)
	allowReadOnlyCheck(run)
	seedCurrentParent(t, eng)
	run.On("chroot ", procrunner.Result{Success: true, Stdout: []byte("12 upgraded, 1 newly installed, 0 to remove\n")})

	available, err := eng.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, available)
}

func TestCheckMutatesNothing(t *testing.T) {
	eng, run := newTestEngine(t)
	allowReadOnlyCheck(run)
	parent := seedCurrentParent(t, eng)
	run.On("chroot ", procrunner.Result{Success: true, Stdout: []byte("0 upgraded, 0 newly installed, 0 to remove\n")})

	before, err := os.ReadDir(eng.Cfg.DeploymentsDir)
	require.NoError(t, err)

	_, err = eng.Check(context.Background())
	require.NoError(t, err)

	after, err := os.ReadDir(eng.Cfg.DeploymentsDir)
	require.NoError(t, err)
	assert.Len(t, after, len(before))

	meta, merr := eng.Meta.Read(parent)
	require.NoError(t, merr)
	assert.Equal(t, fakeKernel, meta.Kernel)
}
