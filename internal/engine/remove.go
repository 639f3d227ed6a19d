package engine

import (
	"context"
	"fmt"

	"github.com/HackerOS-Linux-System/hammer/internal/model"
)

// Remove uninstalls pkg. If pkg is already
// absent (or unknown), the transaction aborts with herr.NoopError.
func (e *Engine) Remove(ctx context.Context, pkg string) (string, model.Metadata, error) {
	return e.transact(ctx, transactOpts{
		Action: "remove " + pkg,
		NoopCheck: func(ctx context.Context, cmd *ChrootCmd) (bool, string, error) {
			installed, err := dpkgInstalled(ctx, cmd, e.Cfg.DpkgQueryBin, pkg)
			if err != nil || !installed {
				return true, fmt.Sprintf("%s is already not installed", pkg), nil
			}
			return false, "", nil
		},
		PackageWork: func(ctx context.Context, cmd *ChrootCmd) error {
			if err := cmd.Run(ctx, "remove package", Step{e.Cfg.PackageTool, "remove", "-y", pkg}); err != nil {
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
