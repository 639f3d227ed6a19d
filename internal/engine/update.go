package engine

import (
	"context"
	"strings"

	"github.com/HackerOS-Linux-System/hammer/internal/herr"
	"github.com/HackerOS-Linux-System/hammer/internal/model"
)

// Update performs a full-system upgrade. If the
// system has never been initialized, it silently delegates to Init and
// returns herr.NoopError carrying the reboot instruction instead of
// creating an upgrade deployment. The caller still exits 0.
//
// force bypasses the no-op short-circuit and creates a new deployment
// even when the upgrade simulation shows nothing would change.
func (e *Engine) Update(ctx context.Context, force bool) (string, model.Metadata, error) {
	if !e.AlreadyInitialized() {
		if _, _, err := e.Init(ctx); err != nil {
			return "", model.Metadata{}, initError(err)
		}
		return "", model.Metadata{}, &herr.NoopError{Reason: EnsureInitializedMessage}
	}

	opts := transactOpts{
		Action:      "update",
		PackageWork: e.updateChrootWork,
	}
	if !force {
		opts.NoopCheck = e.updateNoopCheck
	}
	return e.transact(ctx, opts)
}

func (e *Engine) updateChrootWork(ctx context.Context, cmd *ChrootCmd) error {
	if err := cmd.Run(ctx, "refresh package metadata", Step{e.Cfg.PackageTool, "update"}); err != nil {
		return err
	}
	if err := cmd.Run(ctx, "upgrade", Step{
		e.Cfg.PackageTool, "-y",
		"-o", "Dpkg::Options::=--force-confdef",
		"-o", "Dpkg::Options::=--force-confold",
		"dist-upgrade",
	}); err != nil {
		return err
	}
	if err := cmd.Run(ctx, "autoremove", Step{e.Cfg.PackageTool, "-y", "autoremove"}); err != nil {
		return err
	}
	if err := cmd.Shell(ctx, "dump package listing", "dpkg -l > /tmp/packages.list"); err != nil {
		return err
	}
	return cmd.Run(ctx, "regenerate initramfs", Step{e.Cfg.UpdateInitramfsBin, "-u", "-k", "all"})
}

// updateNoopCheck simulates the upgrade (`apt-get -s dist-upgrade`) and
// reports a no-op when the simulation shows nothing would change.
func (e *Engine) updateNoopCheck(ctx context.Context, cmd *ChrootCmd) (bool, string, error) {
	res, err := cmd.RunCapture(ctx, "simulate upgrade", Step{e.Cfg.PackageTool, "-s", "dist-upgrade"})
	if err != nil {
		return false, "", err
	}
	if strings.Contains(string(res.Stdout), "0 upgraded, 0 newly installed, 0 to remove") {
		return true, "system is already up to date", nil
	}
	return false, "", nil
}
