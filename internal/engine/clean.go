package engine

import (
	"context"
	"os/exec"

	"go.uber.org/zap"
)

// Clean prunes containers (if the optional container-sandbox
// collaborator is present) and deletes every deployment older than the
// newest Cfg.RetainCount. The deployment current points at is never
// deleted, even when a rollback has left it outside the retention
// window.
func (e *Engine) Clean(ctx context.Context) ([]string, error) {
	var deleted []string

	txErr := e.Lock.WithLock(func() error {
		e.pruneContainers(ctx)

		names, err := e.listDeploymentNames()
		if err != nil {
			return err
		}
		entries, err := e.Meta.All(names) // sorted by Created descending
		if err != nil {
			return err
		}

		if len(entries) <= e.Cfg.RetainCount {
			return nil
		}

		current, _ := e.currentName()

		for _, stale := range entries[e.Cfg.RetainCount:] {
			if stale.Name == current {
				continue
			}
			if err := e.Btrfs.DeleteRecursive(ctx, e.deploymentPath(stale.Name)); err != nil {
				return err
			}
			deleted = append(deleted, stale.Name)
		}
		return nil
	})

	return deleted, txErr
}

// pruneContainers shells out to the optional non-atomic container
// sandbox package manager's prune subcommand when that binary is
// present on PATH. Its absence is not an error.
func (e *Engine) pruneContainers(ctx context.Context) {
	if _, err := exec.LookPath(e.Cfg.ContainerSandboxBin); err != nil {
		return
	}
	res, err := e.Run.Run(ctx, e.Cfg.ContainerSandboxBin, "prune")
	if err != nil {
		e.Log.Warn("container sandbox prune failed", zap.Error(err))
		return
	}
	if !res.Success {
		e.Log.Warn("container sandbox prune failed", zap.String("stderr", string(res.Stderr)))
	}
}
