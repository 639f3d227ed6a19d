package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HackerOS-Linux-System/hammer/internal/model"
	"github.com/HackerOS-Linux-System/hammer/internal/procrunner"
)

// seedDeployment creates a deployment directory with a meta.json and
// returns its name, without going through the transaction scaffold;
// switch/rollback/clean/history/status operate purely on already-ready
// deployments and never run chroot steps. Callers distinguish
// deployments by their created time, which is also the name.
func seedDeployment(t *testing.T, eng *Engine, created time.Time, status model.Status) string {
	t.Helper()
	name := "hammer-" + created.Format(model.TimestampLayout)
	dir := filepath.Join(eng.Cfg.DeploymentsDir, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, eng.Meta.Write(name, model.Metadata{
		Created: created,
		Status:  status,
		Kernel:  fakeKernel,
	}))
	return name
}

func pointCurrentAt(t *testing.T, eng *Engine, name string) {
	t.Helper()
	target := filepath.Join(eng.Cfg.DeploymentsDir, name)
	_ = os.Remove(eng.Cfg.CurrentLink)
	require.NoError(t, os.Symlink(target, eng.Cfg.CurrentLink))
}

func allowReadOnlyCheck(run *snapshotRunner) {
	run.On("btrfs property get -ts", procrunner.Result{Success: true, Stdout: []byte("ro=true\n")})
}

func TestSwitchByName(t *testing.T) {
	eng, run := newTestEngine(t)
	allowReadOnlyCheck(run)

	older := seedDeployment(t, eng, time.Unix(1000, 0).UTC(), model.StatusPrevious)
	newer := seedDeployment(t, eng, time.Unix(2000, 0).UTC(), model.StatusReady)
	pointCurrentAt(t, eng, newer)

	target, err := eng.Switch(context.Background(), older)
	require.NoError(t, err)
	assert.Equal(t, older, target)

	got, lerr := os.Readlink(eng.Cfg.CurrentLink)
	require.NoError(t, lerr)
	assert.Equal(t, filepath.Join(eng.Cfg.DeploymentsDir, older), got)

	newerMeta, merr := eng.Meta.Read(newer)
	require.NoError(t, merr)
	assert.Equal(t, model.StatusPrevious, newerMeta.Status)
	assert.Equal(t, "manual", newerMeta.RollbackReason)
}

func TestSwitchDefaultsToSecondNewest(t *testing.T) {
	eng, run := newTestEngine(t)
	allowReadOnlyCheck(run)

	second := seedDeployment(t, eng, time.Unix(1000, 0).UTC(), model.StatusPrevious)
	newest := seedDeployment(t, eng, time.Unix(2000, 0).UTC(), model.StatusReady)
	pointCurrentAt(t, eng, newest)

	target, err := eng.Switch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, second, target)
}

func TestSwitchRejectsBroken(t *testing.T) {
	eng, run := newTestEngine(t)
	allowReadOnlyCheck(run)

	broken := seedDeployment(t, eng, time.Unix(1000, 0).UTC(), model.StatusBroken)
	current := seedDeployment(t, eng, time.Unix(2000, 0).UTC(), model.StatusReady)
	pointCurrentAt(t, eng, current)

	_, err := eng.Switch(context.Background(), broken)
	require.Error(t, err)
}

func TestSwitchUnknownName(t *testing.T) {
	eng, run := newTestEngine(t)
	allowReadOnlyCheck(run)

	current := seedDeployment(t, eng, time.Unix(1000, 0).UTC(), model.StatusReady)
	pointCurrentAt(t, eng, current)

	_, err := eng.Switch(context.Background(), "hammer-00000000000000")
	require.Error(t, err)
}

func TestRollbackByIndex(t *testing.T) {
	eng, run := newTestEngine(t)
	allowReadOnlyCheck(run)

	oldest := seedDeployment(t, eng, time.Unix(1000, 0).UTC(), model.StatusPrevious)
	_ = seedDeployment(t, eng, time.Unix(2000, 0).UTC(), model.StatusPrevious)
	newest := seedDeployment(t, eng, time.Unix(3000, 0).UTC(), model.StatusReady)
	pointCurrentAt(t, eng, newest)

	target, err := eng.Rollback(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, oldest, target)
}

func TestRollbackOutOfRange(t *testing.T) {
	eng, run := newTestEngine(t)
	allowReadOnlyCheck(run)

	current := seedDeployment(t, eng, time.Unix(1000, 0).UTC(), model.StatusReady)
	pointCurrentAt(t, eng, current)

	_, err := eng.Rollback(context.Background(), 5)
	require.Error(t, err)
}
