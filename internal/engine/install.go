package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/HackerOS-Linux-System/hammer/internal/model"
)

// Install adds pkg to the system: same
// transaction scaffold as update, but the chroot command only touches
// pkg plus the autoremove/dump/initramfs/bootloader tail. If pkg is
// already installed, the transaction aborts with herr.NoopError.
func (e *Engine) Install(ctx context.Context, pkg string) (string, model.Metadata, error) {
	return e.transact(ctx, transactOpts{
		Action: "install " + pkg,
		NoopCheck: func(ctx context.Context, cmd *ChrootCmd) (bool, string, error) {
			installed, err := dpkgInstalled(ctx, cmd, e.Cfg.DpkgQueryBin, pkg)
			if err != nil {
				return false, "", nil // unknown state: proceed with the install
			}
			if installed {
				return true, fmt.Sprintf("%s is already installed", pkg), nil
			}
			return false, "", nil
		},
		PackageWork: func(ctx context.Context, cmd *ChrootCmd) error {
			if err := cmd.Run(ctx, "install package", Step{e.Cfg.PackageTool, "install", "-y", pkg}); err != nil {
				return err
			}
			if err := cmd.Run(ctx, "autoremove", Step{e.Cfg.PackageTool, "-y", "autoremove"}); err != nil {
				return err
			}
			if err := cmd.Shell(ctx, "dump package listing", "dpkg -l > /tmp/packages.list"); err != nil {
				return err
			}
			return cmd.Run(ctx, "regenerate initramfs", Step{e.Cfg.UpdateInitramfsBin, "-u", "-k", "all"})
		},
	})
}

// dpkgInstalled reports whether pkg's dpkg status is "install ok
// installed". A query failure (unknown package) is reported as a
// non-nil error, leaving the installed state to the caller's judgment.
func dpkgInstalled(ctx context.Context, cmd *ChrootCmd, dpkgQueryBin, pkg string) (bool, error) {
	res, err := cmd.RunCapture(ctx, "query package state", Step{dpkgQueryBin, "-W", "-f", "${Status}", pkg})
	if err != nil {
		return false, err
	}
	return strings.Contains(string(res.Stdout), "install ok installed"), nil
}
