package engine

import (
	"os"

	"github.com/HackerOS-Linux-System/hammer/internal/model"
)

// Reconcile implements the `check-transaction` subcommand, run early
// at boot: if the marker exists, compare the deployment it
// names against what current actually resolves to. A match means the
// promotion committed and the deployment boots normally, so it's marked
// booted; a mismatch means the crash happened before the symlink was
// repointed, so the in-flight deployment is marked broken. The marker
// is removed in both cases. It also clears a stale lock left by a
// process that died before releasing it: the lock is always acquired
// before the marker is created, so a lock file older than an
// unreconciled marker cannot belong to a still-running operation.
func (e *Engine) Reconcile() (model.Status, error) {
	if !e.Marker.Exists() {
		return "", nil
	}

	markerInfo, _ := os.Stat(e.Cfg.MarkerFile)

	pending, err := e.Marker.Read()
	if err != nil {
		return "", err
	}
	defer func() { _ = e.Marker.Remove() }()

	e.pruneStaleLock(markerInfo)

	if pending == "" {
		return "", nil
	}

	current, _ := e.currentName()

	var status model.Status
	if current == pending {
		status = model.StatusBooted
	} else {
		status = model.StatusBroken
	}

	if err := e.Meta.Update(pending, func(m *model.Metadata) { m.Status = status }); err != nil {
		return "", err
	}
	return status, nil
}

// pruneStaleLock clears the lock file when it predates the marker
// (the lock is always acquired before the marker is created, so an
// older lock cannot belong to a still-running operation). Without a
// marker to compare against, staleness can't be inferred (a lock
// alone may belong to an operation still in its pre-marker phase), so
// the lock is left for operator intervention.
func (e *Engine) pruneStaleLock(markerInfo os.FileInfo) {
	if markerInfo == nil || !e.Lock.Held() {
		return
	}
	lockInfo, err := os.Stat(e.Cfg.LockFile)
	if err != nil {
		return
	}
	if lockInfo.ModTime().Before(markerInfo.ModTime()) {
		_ = e.Lock.Clear()
	}
}
