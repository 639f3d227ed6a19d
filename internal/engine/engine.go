// Package engine is the deployment transaction engine: it composes
// btrfsops, mountops, metastore, lockguard, and txmarker into
// init/update/install/remove/deploy/switch/rollback/refresh/clean,
// plus the check-transaction reconciliation and the
// check/status/history read paths.
//
// One file per operation: init.go, update.go, install.go, remove.go,
// deploy.go, switch.go, refresh.go, clean.go, status.go, history.go,
// check.go, plus shared scaffolding in transaction.go, sanity.go, and
// version.go.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/HackerOS-Linux-System/hammer/internal/bootentries"
	"github.com/HackerOS-Linux-System/hammer/internal/btrfsops"
	"github.com/HackerOS-Linux-System/hammer/internal/config"
	"github.com/HackerOS-Linux-System/hammer/internal/herr"
	"github.com/HackerOS-Linux-System/hammer/internal/lockguard"
	"github.com/HackerOS-Linux-System/hammer/internal/metastore"
	"github.com/HackerOS-Linux-System/hammer/internal/model"
	"github.com/HackerOS-Linux-System/hammer/internal/mountops"
	"github.com/HackerOS-Linux-System/hammer/internal/procrunner"
	"github.com/HackerOS-Linux-System/hammer/internal/txmarker"
)

// Engine composes every leaf component into the deployment transaction
// engine. All fields are constructed once by New and never reassigned;
// there is no ambient global state.
type Engine struct {
	Cfg *config.Config
	Log *zap.Logger

	Btrfs  *btrfsops.Ops
	Mount  *mountops.Ops
	Meta   *metastore.Store
	Lock   *lockguard.Guard
	Marker *txmarker.Marker
	Run    procrunner.Runner

	// statfs backs the btrfs-filesystem-type check in validate. It is a
	// seam over unix.Statfs so tests can exercise validate without a real
	// btrfs-rooted machine; New wires the real syscall.
	statfs func(path string, buf *unix.Statfs_t) error
}

// New wires an Engine from a Config, a Runner (real or FakeRunner in
// tests), and a logger.
func New(cfg *config.Config, run procrunner.Runner, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		Cfg:    cfg,
		Log:    log,
		Btrfs:  btrfsops.New(cfg.BtrfsBin, run),
		Mount:  mountops.New(cfg.MountBin, cfg.UmountBin, cfg.FindmntBin, cfg.MktempBin, run),
		Meta:   metastore.New(cfg.DeploymentsDir),
		Lock:   lockguard.New(cfg.LockFile),
		Marker: txmarker.New(cfg.MarkerFile),
		Run:    run,
		statfs: unix.Statfs,
	}
}

// btrfsMagic is BTRFS_SUPER_MAGIC (linux/magic.h), used to confirm / is
// btrfs via unix.Statfs instead of shelling out.
const btrfsMagic = 0x9123683e

// validate checks the system preconditions: / must be btrfs, current
// must exist, and its target must be ro=true. skipCurrentCheck is set
// by init, which runs before current exists.
func (e *Engine) validate(ctx context.Context, skipCurrentCheck bool) error {
	var st unix.Statfs_t
	if err := e.statfs("/", &st); err != nil {
		return &herr.EnvError{Reason: fmt.Sprintf("cannot stat /: %v", err)}
	}
	if int64(st.Type) != btrfsMagic {
		return &herr.EnvError{Reason: "root filesystem is not btrfs"}
	}

	if skipCurrentCheck {
		return nil
	}

	target, err := os.Readlink(e.Cfg.CurrentLink)
	if err != nil {
		return &herr.EnvError{Reason: fmt.Sprintf("%s does not exist: not yet initialized", e.Cfg.CurrentLink)}
	}

	roRaw, err := e.Run.Run(ctx, e.Cfg.BtrfsBin, "property", "get", "-ts", target, "ro")
	if err != nil || !roRaw.Success {
		return &herr.EnvError{Reason: "cannot read ro property of current deployment"}
	}
	if !bytesContain(roRaw.Stdout, "ro=true") {
		return &herr.EnvError{Reason: "current deployment is not read-only"}
	}
	return nil
}

func bytesContain(b []byte, sub string) bool {
	return strings.Contains(string(b), sub)
}

// currentName returns the basename of the deployment the current
// symlink resolves to.
func (e *Engine) currentName() (string, error) {
	target, err := os.Readlink(e.Cfg.CurrentLink)
	if err != nil {
		return "", &herr.EnvError{Reason: "current symlink missing"}
	}
	return filepath.Base(target), nil
}

func (e *Engine) deploymentPath(name string) string {
	return filepath.Join(e.Cfg.DeploymentsDir, name)
}

// deploymentSubvol returns name's subvolume path relative to the
// filesystem top, the form `mount -o subvol=` expects.
func (e *Engine) deploymentSubvol(name string) string {
	rel, err := filepath.Rel(e.Cfg.BtrfsRoot, e.deploymentPath(name))
	if err != nil {
		return filepath.Join("deployments", name)
	}
	return rel
}

// freeSpacePreflight guards every snapshot creation: estimate the
// used bytes of source and compare against the available space at the
// btrfs top, failing fast with herr.EnvError before any mutation
// happens.
func (e *Engine) freeSpacePreflight(sourcePath string) error {
	used, err := dirSize(sourcePath)
	if err != nil {
		// best-effort: an unreadable source is caught by the snapshot
		// call itself moments later, no need to fail the preflight on it.
		return nil
	}
	avail, err := mountops.AvailableBytes(e.Cfg.BtrfsRoot)
	if err != nil {
		return nil
	}
	if avail < used {
		return &herr.EnvError{Reason: fmt.Sprintf(
			"insufficient free space: need ~%d bytes, %d available", used, avail)}
	}
	return nil
}

// dirSize walks root and sums file sizes. Because the tree is a btrfs
// subvolume tree that will be reflink-snapshotted, this over-estimates
// (no COW sharing is accounted for) but that only makes the guard more
// conservative, never less safe.
func dirSize(root string) (uint64, error) {
	var total uint64
	err := filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best-effort, skip unreadable entries
		}
		if !info.IsDir() {
			total += uint64(info.Size())
		}
		return nil
	})
	return total, err
}

// sealRecursive makes the finished deployment and every nested
// subvolume read-only. Sealing happens before the default-subvolume
// flip and symlink repoint.
func (e *Engine) sealRecursive(ctx context.Context, path string) error {
	return e.Btrfs.SetRORecursive(ctx, path, true)
}

// promote flips the btrfs default subvolume to newPath's id and
// repoints the current symlink at it. This is the last step before
// marker removal.
func (e *Engine) promote(ctx context.Context, newName, newPath string) error {
	id, err := e.Btrfs.SubvolID(ctx, newPath)
	if err != nil {
		return err
	}
	if err := e.Btrfs.SetDefault(ctx, id); err != nil {
		return err
	}
	tmp := e.Cfg.CurrentLink + ".tmp"
	_ = os.Remove(tmp)
	if err := os.Symlink(newPath, tmp); err != nil {
		return &herr.EnvError{Reason: fmt.Sprintf("cannot create symlink: %v", err)}
	}
	if err := os.Rename(tmp, e.Cfg.CurrentLink); err != nil {
		return &herr.EnvError{Reason: fmt.Sprintf("cannot repoint current: %v", err)}
	}
	e.Log.Info("promoted deployment", zap.String("deployment", newName))
	return nil
}

// disableForeignGrubDropins clears the execute bit on every file in
// <deploymentPath>/etc/grub.d/ except keep (this repo's own drop-in),
// so exactly one script contributes deployment menu entries. It is
// applied host-side, since the deployment's subvolume directory is the
// same data whether or not it's currently chroot-mounted.
func (e *Engine) disableForeignGrubDropins(deploymentPath, keep string) error {
	dir := filepath.Join(deploymentPath, "etc", "grub.d")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == keep {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		_ = os.Chmod(filepath.Join(dir, entry.Name()), info.Mode()&^0111)
	}
	return nil
}

// listDeploymentNames enumerates hammer-* subvolumes and drops any whose
// timestamp suffix fails to parse, logging each skip at Warn.
func (e *Engine) listDeploymentNames() ([]string, error) {
	all, err := btrfsops.ListDeployments(e.Cfg.DeploymentsDir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(all))
	for _, name := range all {
		ts := strings.TrimPrefix(name, model.NamePrefix)
		if _, terr := time.Parse(model.TimestampLayout, ts); terr != nil {
			e.Log.Warn("skipping deployment with unparseable timestamp", zap.String("name", name))
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

// goodCandidates lists every deployment, filters to ready|booted, sorts
// newest-first, and caps at Cfg.RetainCount, for the boot menu.
func (e *Engine) goodCandidates() ([]bootentries.Candidate, error) {
	names, err := e.listDeploymentNames()
	if err != nil {
		return nil, err
	}
	entries, err := e.Meta.All(names)
	if err != nil {
		return nil, err
	}
	good := metastore.GoodNewestFirst(entries, e.Cfg.RetainCount)
	out := make([]bootentries.Candidate, 0, len(good))
	for _, g := range good {
		out = append(out, bootentries.Candidate{Name: g.Name, Meta: g.Meta})
	}
	return out, nil
}

// regenerateBootEntries writes the grub.d drop-in into newDeploymentPath
// covering the current good deployments (which, since meta.json for the
// new deployment must already be written ready, includes it).
func (e *Engine) regenerateBootEntries(ctx context.Context, newDeploymentPath string) error {
	uuid, err := e.Btrfs.FSUUID(ctx)
	if err != nil {
		return err
	}
	candidates, err := e.goodCandidates()
	if err != nil {
		return err
	}
	if err := e.disableForeignGrubDropins(newDeploymentPath, bootentries.DropinName); err != nil {
		return err
	}
	return bootentries.Write(newDeploymentPath, uuid, candidates)
}
