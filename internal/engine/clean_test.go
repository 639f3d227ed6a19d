package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HackerOS-Linux-System/hammer/internal/model"
)

func TestCleanRetainsNewestAndDeletesRest(t *testing.T) {
	eng, _ := newTestEngine(t)
	eng.Cfg.RetainCount = 2

	var names []string
	for i := 0; i < 4; i++ {
		names = append(names, seedDeployment(t, eng, time.Unix(int64(1000*(i+1)), 0).UTC(), model.StatusReady))
	}

	deleted, err := eng.Clean(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{names[0], names[1]}, deleted)

	remaining, rerr := eng.listDeploymentNames()
	require.NoError(t, rerr)
	assert.ElementsMatch(t, []string{names[2], names[3]}, remaining)
}

func TestCleanNeverDeletesCurrent(t *testing.T) {
	eng, _ := newTestEngine(t)
	eng.Cfg.RetainCount = 1

	oldest := seedDeployment(t, eng, time.Unix(1000, 0).UTC(), model.StatusPrevious)
	middle := seedDeployment(t, eng, time.Unix(2000, 0).UTC(), model.StatusPrevious)
	seedDeployment(t, eng, time.Unix(3000, 0).UTC(), model.StatusReady)
	pointCurrentAt(t, eng, oldest) // rolled back past the retention window

	deleted, err := eng.Clean(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{middle}, deleted)

	remaining, rerr := eng.listDeploymentNames()
	require.NoError(t, rerr)
	assert.Contains(t, remaining, oldest)
}

func TestCleanNothingToDoUnderRetainCount(t *testing.T) {
	eng, _ := newTestEngine(t)
	eng.Cfg.RetainCount = 5
	seedDeployment(t, eng, time.Unix(1000, 0).UTC(), model.StatusReady)

	deleted, err := eng.Clean(context.Background())
	require.NoError(t, err)
	assert.Empty(t, deleted)
}
