// Package mountops mounts the btrfs top-level subvolume and builds the
// chroot workspace the engine runs package work in: a subvolume mount
// at a temp path, bind mounts of the host pseudo-filesystems, and the
// matching ordered teardown.
package mountops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/HackerOS-Linux-System/hammer/internal/herr"
	"github.com/HackerOS-Linux-System/hammer/internal/procrunner"
)

// Ops wraps the mount/umount/findmnt/mktemp external tools.
type Ops struct {
	MountBin   string
	UmountBin  string
	FindmntBin string
	MktempBin  string
	Run        procrunner.Runner
}

func New(mountBin, umountBin, findmntBin, mktempBin string, runner procrunner.Runner) *Ops {
	return &Ops{
		MountBin:   mountBin,
		UmountBin:  umountBin,
		FindmntBin: findmntBin,
		MktempBin:  mktempBin,
		Run:        runner,
	}
}

func (o *Ops) run(ctx context.Context, stage string, bin string, args ...string) (procrunner.Result, error) {
	res, err := o.Run.Run(ctx, bin, args...)
	if err != nil {
		return res, &herr.MountError{Stage: stage, Detail: err.Error()}
	}
	if !res.Success {
		return res, &herr.MountError{Stage: stage, Detail: strings.TrimSpace(string(res.Stderr))}
	}
	return res, nil
}

// IsMountpoint reports whether path is currently a mountpoint.
func IsMountpoint(path string) (bool, error) {
	var st, parentSt unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := unix.Stat(filepath.Dir(path), &parentSt); err != nil {
		return false, err
	}
	return st.Dev != parentSt.Dev, nil
}

// RootDevice resolves the root device via `findmnt -no SOURCE /`,
// stripping any trailing "[subvol]" decoration.
func (o *Ops) RootDevice(ctx context.Context) (string, error) {
	res, err := o.run(ctx, "findmnt", o.FindmntBin, "-no", "SOURCE", "/")
	if err != nil {
		return "", err
	}
	src := strings.TrimSpace(string(res.Stdout))
	if idx := strings.Index(src, "["); idx >= 0 {
		src = strings.TrimSpace(src[:idx])
	}
	if src == "" {
		return "", &herr.MountError{Stage: "findmnt", Detail: "empty SOURCE for /"}
	}
	return src, nil
}

// EnsureTopMounted mounts the filesystem top (subvol=/) at topPath if it
// is not already a mountpoint. Idempotent.
func (o *Ops) EnsureTopMounted(ctx context.Context, topPath string) error {
	mounted, err := IsMountpoint(topPath)
	if err != nil {
		return &herr.MountError{Stage: "stat", Detail: err.Error()}
	}
	if mounted {
		return nil
	}

	if err := os.MkdirAll(topPath, 0755); err != nil {
		return &herr.MountError{Stage: "mkdir top", Detail: err.Error()}
	}

	device, err := o.RootDevice(ctx)
	if err != nil {
		return err
	}

	_, err = o.run(ctx, "mount top", o.MountBin, "-o", "subvol=/", device, topPath)
	return err
}

// Chroot is a prepared chroot workspace and the ordered set of bind
// mounts layered into it. Teardown attempts every unmount in best-effort
// order, even when setup failed partway, and reports the first failure;
// TeardownChroot unwinds only what was actually mounted.
type Chroot struct {
	Path    string
	mounted []string // in mount order; torn down in reverse
}

// PrepareChroot makes a temp directory via `mktemp -d --tmpdir`, mounts
// the root device there with subvol=<newSubvol> (a subvolume path
// relative to the filesystem top, e.g. "deployments/hammer-<ts>"), then
// bind-mounts /proc, /sys, /dev; mounts a fresh devpts at dev/pts with
// ptmxmode=0666 and a tmpfs at dev/shm; and best-effort copies
// /etc/resolv.conf. It always returns a non-nil *Chroot, even on partial
// failure, so the caller's deferred TeardownChroot always has something
// safe to unwind.
func (o *Ops) PrepareChroot(ctx context.Context, device, newSubvol string) (*Chroot, error) {
	c := &Chroot{}

	res, err := o.run(ctx, "mktemp", o.MktempBin, "-d", "--tmpdir")
	if err != nil {
		return c, err
	}
	c.Path = strings.TrimSpace(string(res.Stdout))
	if c.Path == "" {
		return c, &herr.MountError{Stage: "mktemp", Detail: "empty path returned"}
	}

	if _, err := o.run(ctx, "mount root", o.MountBin, "-o", "subvol="+newSubvol, device, c.Path); err != nil {
		return c, err
	}
	c.mounted = append(c.mounted, c.Path)

	binds := []struct{ src, dst string }{
		{"/proc", "proc"},
		{"/sys", "sys"},
		{"/dev", "dev"},
	}
	for _, b := range binds {
		dst := filepath.Join(c.Path, b.dst)
		if err := os.MkdirAll(dst, 0755); err != nil {
			return c, &herr.MountError{Stage: "mkdir " + b.dst, Detail: err.Error()}
		}
		if _, err := o.run(ctx, "bind "+b.dst, o.MountBin, "--bind", b.src, dst); err != nil {
			return c, err
		}
		c.mounted = append(c.mounted, dst)
	}

	pts := filepath.Join(c.Path, "dev", "pts")
	if err := os.MkdirAll(pts, 0755); err != nil {
		return c, &herr.MountError{Stage: "mkdir dev/pts", Detail: err.Error()}
	}
	if _, err := o.run(ctx, "mount devpts", o.MountBin, "-t", "devpts", "-o", "ptmxmode=0666", "devpts", pts); err != nil {
		return c, err
	}
	c.mounted = append(c.mounted, pts)

	shm := filepath.Join(c.Path, "dev", "shm")
	if err := os.MkdirAll(shm, 0755); err != nil {
		return c, &herr.MountError{Stage: "mkdir dev/shm", Detail: err.Error()}
	}
	if _, err := o.run(ctx, "mount shm", o.MountBin, "-t", "tmpfs", "tmpfs", shm); err != nil {
		return c, err
	}
	c.mounted = append(c.mounted, shm)

	copyResolvConf(c.Path) // best-effort, failure is not fatal

	return c, nil
}

func copyResolvConf(chrootPath string) {
	data, err := os.ReadFile("/etc/resolv.conf")
	if err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(chrootPath, "etc", "resolv.conf"), data, 0644)
}

// TeardownChroot unmounts dev/shm, dev/pts, then dev, sys, proc in the
// reverse of setup order, finally unmounting the chroot root. Every
// PrepareChroot has a matching TeardownChroot even on failure paths.
func (o *Ops) TeardownChroot(ctx context.Context, c *Chroot) error {
	if c == nil {
		return nil
	}
	var firstErr error
	for i := len(c.mounted) - 1; i >= 0; i-- {
		path := c.mounted[i]
		if _, err := o.run(ctx, "umount "+path, o.UmountBin, "-l", path); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	c.mounted = nil
	return firstErr
}

// AvailableBytes reports the free space on the filesystem containing
// path, via unix.Statfs.
func AvailableBytes(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return st.Bavail * uint64(st.Bsize), nil
}
