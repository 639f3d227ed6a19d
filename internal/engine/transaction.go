package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HackerOS-Linux-System/hammer/internal/herr"
	"github.com/HackerOS-Linux-System/hammer/internal/model"
	"github.com/HackerOS-Linux-System/hammer/internal/mountops"
)

// transactOpts parametrizes the shared mutating-transaction scaffold
// used by the five operations that create a new deployment:
// init/update/install/remove/deploy.
type transactOpts struct {
	// Action is the metadata "action" field: "initial", "update",
	// "install <pkg>", "remove <pkg>", or "deploy".
	Action string

	// IsInit skips the current-symlink validation check and leaves the
	// transaction marker in place for first-boot reconciliation instead
	// of removing it immediately.
	IsInit bool

	// PackageWork runs the chroot steps that mutate the new snapshot's
	// package state. nil means no package mutation happens at all
	// (deploy): kernel and system_version are copied from the parent's
	// metadata instead of re-derived from a fresh packages.list.
	PackageWork func(ctx context.Context, cmd *ChrootCmd) error

	// NoopCheck runs once the chroot is prepared, before PackageWork. If
	// it reports isNoop, the transaction aborts with herr.NoopError and
	// runs the same cleanup path as any other failure.
	NoopCheck func(ctx context.Context, cmd *ChrootCmd) (isNoop bool, reason string, err error)
}

// transact runs the full deployment transaction under the lock: record
// parent, snapshot, mark pending, chroot work, sanity check, metadata
// ready, boot entries, seal, promote, clear marker. On any failure
// (including NoopError) the in-flight deployment is marked broken, the
// chroot is torn down, and the marker is cleared: the same cleanup
// path regardless of which step failed.
func (e *Engine) transact(ctx context.Context, opts transactOpts) (string, model.Metadata, error) {
	var newName string
	var meta model.Metadata

	txErr := e.Lock.WithLock(func() (err error) {
		var newPath string
		var created bool
		var chroot *mountops.Chroot

		defer func() {
			if chroot != nil {
				_ = e.Mount.TeardownChroot(ctx, chroot)
			}
			if err != nil {
				if created {
					_ = e.Meta.Update(newName, func(m *model.Metadata) { m.Status = model.StatusBroken })
				}
				_ = e.Marker.Remove()
			}
		}()

		if err = e.validate(ctx, opts.IsInit); err != nil {
			return err
		}

		parentName, sourcePath, serr := e.transactionSource(ctx, opts.IsInit)
		if serr != nil {
			err = serr
			return err
		}

		if err = e.freeSpacePreflight(sourcePath); err != nil {
			return err
		}
		if err = e.ensureDeploymentsSubvolume(ctx); err != nil {
			return err
		}

		newName = "hammer-" + time.Now().Format(model.TimestampLayout)
		newPath = e.deploymentPath(newName)

		if err = e.Btrfs.SnapshotRecursive(ctx, sourcePath, newPath, true); err != nil {
			return err
		}
		created = true

		if err = e.Marker.Create(newName); err != nil {
			return err
		}

		device, derr := e.Mount.RootDevice(ctx)
		if derr != nil {
			err = derr
			return err
		}

		chroot, err = e.Mount.PrepareChroot(ctx, device, e.deploymentSubvol(newName))
		if err != nil {
			return err
		}

		cmd := e.chrootCmd(chroot.Path)

		if opts.NoopCheck != nil {
			isNoop, reason, nerr := opts.NoopCheck(ctx, cmd)
			if nerr != nil {
				err = nerr
				return err
			}
			if isNoop {
				err = &herr.NoopError{Reason: reason}
				return err
			}
		}

		var kernel, sysver string
		if opts.PackageWork != nil {
			if err = opts.PackageWork(ctx, cmd); err != nil {
				return err
			}

			data, rerr := readPackagesList(newPath)
			if rerr != nil {
				err = rerr
				return err
			}
			kernel, err = highestKernelVersion(data)
			if err != nil {
				return err
			}
			sysver = systemVersion(data)
		} else {
			parentMeta, merr := e.Meta.Read(parentName)
			if merr != nil {
				err = merr
				return err
			}
			kernel = parentMeta.Kernel
			sysver = parentMeta.SystemVersion
		}

		if err = e.sanityCheck(ctx, newPath, chroot.Path, kernel); err != nil {
			return err
		}

		if opts.PackageWork != nil {
			_ = discardPackagesList(newPath)
		}

		meta = model.Metadata{
			Created:       time.Now().UTC(),
			Action:        opts.Action,
			Parent:        parentName,
			Kernel:        kernel,
			SystemVersion: sysver,
			Status:        model.StatusReady,
		}
		if err = e.Meta.Write(newName, meta); err != nil {
			return err
		}

		if err = e.regenerateBootEntries(ctx, newPath); err != nil {
			return err
		}

		if err = cmd.Run(ctx, "bootloader generator", Step{e.Cfg.UpdateGrubBin}); err != nil {
			return err
		}

		// Chroot workspace is released before sealing; the deferred
		// teardown above becomes a no-op once chroot is nilled out here.
		if terr := e.Mount.TeardownChroot(ctx, chroot); terr != nil {
			err = terr
			return err
		}
		chroot = nil

		if err = e.sealRecursive(ctx, newPath); err != nil {
			return err
		}
		if err = e.promote(ctx, newName, newPath); err != nil {
			return err
		}

		if !opts.IsInit {
			if err = e.Marker.Remove(); err != nil {
				return err
			}
		}
		return nil
	})

	return newName, meta, txErr
}

// transactionSource resolves the parent deployment name (empty for
// init) and the source path to snapshot from. For init this is the
// running root's own subvolume; for every other operation it's the
// current deployment.
func (e *Engine) transactionSource(ctx context.Context, isInit bool) (parentName, sourcePath string, err error) {
	if err = e.Mount.EnsureTopMounted(ctx, e.Cfg.BtrfsRoot); err != nil {
		return "", "", err
	}

	if isInit {
		name, serr := e.Btrfs.SubvolName(ctx, "/")
		if serr != nil {
			return "", "", serr
		}
		if name == "" {
			return "", e.Cfg.BtrfsRoot, nil
		}
		return "", filepath.Join(e.Cfg.BtrfsRoot, name), nil
	}

	parentName, err = e.currentName()
	if err != nil {
		return "", "", err
	}
	return parentName, e.deploymentPath(parentName), nil
}

// ensureDeploymentsSubvolume creates the deployments/ subvolume if it
// doesn't yet exist. Idempotent for every operation other than init,
// where it is always already present.
func (e *Engine) ensureDeploymentsSubvolume(ctx context.Context) error {
	if _, err := os.Stat(e.Cfg.DeploymentsDir); err == nil {
		return nil
	}

	res, err := e.Run.Run(ctx, e.Cfg.BtrfsBin, "subvolume", "create", e.Cfg.DeploymentsDir)
	if err != nil {
		return &herr.BtrfsError{Stage: "subvolume create", Detail: err.Error()}
	}
	if !res.Success {
		return &herr.BtrfsError{Stage: "subvolume create", Detail: strings.TrimSpace(string(res.Stderr))}
	}
	return nil
}
