package engine

import (
	"context"
	"time"

	"github.com/HackerOS-Linux-System/hammer/internal/model"
)

// Refresh updates package-manager cache metadata without creating a
// new deployment. Nothing reachable from current is touched, even
// transiently: refresh snapshots the current deployment into a scratch
// subvolume, runs the refresh step there, and deletes the scratch
// subvolume when done. No new deployment is promoted; running it twice
// in a row has no side effect beyond the package cache itself.
func (e *Engine) Refresh(ctx context.Context) error {
	return e.Lock.WithLock(func() error {
		if err := e.validate(ctx, false); err != nil {
			return err
		}
		return e.withScratchChroot(ctx, func(cmd *ChrootCmd) error {
			return cmd.Run(ctx, "refresh package metadata", Step{e.Cfg.PackageTool, "update"})
		})
	})
}

// withScratchChroot snapshots the current deployment into a throwaway
// writable subvolume, mounts a chroot workspace on it, runs fn, then
// tears the chroot down and deletes the scratch subvolume. The scratch
// name deliberately fails the hammer-<timestamp> parse, so deployment
// listings skip it even if a crash leaves it behind.
func (e *Engine) withScratchChroot(ctx context.Context, fn func(cmd *ChrootCmd) error) error {
	_, sourcePath, err := e.transactionSource(ctx, false)
	if err != nil {
		return err
	}
	if err := e.freeSpacePreflight(sourcePath); err != nil {
		return err
	}

	scratchName := "hammer-refresh-" + time.Now().Format(model.TimestampLayout)
	scratchPath := e.deploymentPath(scratchName)

	if err := e.Btrfs.SnapshotRecursive(ctx, sourcePath, scratchPath, true); err != nil {
		return err
	}
	defer func() { _ = e.Btrfs.DeleteRecursive(ctx, scratchPath) }()

	device, err := e.Mount.RootDevice(ctx)
	if err != nil {
		return err
	}
	chroot, err := e.Mount.PrepareChroot(ctx, device, e.deploymentSubvol(scratchName))
	defer func() { _ = e.Mount.TeardownChroot(ctx, chroot) }()
	if err != nil {
		return err
	}

	return fn(e.chrootCmd(chroot.Path))
}
