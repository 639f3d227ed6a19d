package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HackerOS-Linux-System/hammer/internal/model"
)

func TestDeployCopiesParentMetadataVerbatim(t *testing.T) {
	eng, run := newTestEngine(t)
	allowReadOnlyCheck(run)

	parent := seedDeployment(t, eng, time.Unix(1000, 0).UTC(), model.StatusReady)
	require.NoError(t, eng.Meta.Update(parent, func(m *model.Metadata) {
		m.SystemVersion = "deadbeef"
	}))
	pointCurrentAt(t, eng, parent)

	name, meta, err := eng.Deploy(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, parent, name)
	assert.Equal(t, "deploy", meta.Action)
	assert.Equal(t, parent, meta.Parent)
	assert.Equal(t, fakeKernel, meta.Kernel)
	assert.Equal(t, "deadbeef", meta.SystemVersion)
	assert.Equal(t, model.StatusReady, meta.Status)
}
