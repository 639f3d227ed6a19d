package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HackerOS-Linux-System/hammer/internal/herr"
	"github.com/HackerOS-Linux-System/hammer/internal/model"
	"github.com/HackerOS-Linux-System/hammer/internal/procrunner"
)

func TestRemoveNoopAlreadyAbsent(t *testing.T) {
	eng, run := newTestEngine(t)
	allowReadOnlyCheck(run)
	seedCurrentParent(t, eng)
	run.On("chroot ", procrunner.Result{Success: true, Stdout: []byte("unknown ok not-installed\n")})

	_, _, err := eng.Remove(context.Background(), "htop")

	var noop *herr.NoopError
	require.True(t, errors.As(err, &noop))
	assert.Contains(t, noop.Reason, "htop is already not installed")
}

func TestRemoveProceedsWhenInstalled(t *testing.T) {
	eng, run := newTestEngine(t)
	allowReadOnlyCheck(run)
	seedCurrentParent(t, eng)
	run.On("chroot ", procrunner.Result{Success: true, Stdout: []byte("install ok installed\n")})

	name, meta, err := eng.Remove(context.Background(), "htop")
	require.NoError(t, err)
	assert.NotEmpty(t, name)
	assert.Equal(t, model.StatusReady, meta.Status)
	assert.Equal(t, "remove htop", meta.Action)
}
