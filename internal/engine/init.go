package engine

import (
	"context"
	"fmt"

	"github.com/HackerOS-Linux-System/hammer/internal/model"
)

// Init performs first-time provisioning: snapshot the running root's
// own subvolume, run the initial package-tool sequence, seal it, and
// flip current onto it. The transaction marker is left in place;
// reconciliation happens on first boot.
func (e *Engine) Init(ctx context.Context) (string, model.Metadata, error) {
	return e.transact(ctx, transactOpts{
		Action: "initial",
		IsInit: true,
		PackageWork: func(ctx context.Context, cmd *ChrootCmd) error {
			if err := cmd.Run(ctx, "refresh package metadata", Step{e.Cfg.PackageTool, "update"}); err != nil {
				return err
			}
			if err := cmd.Run(ctx, "reinstall boot splash", Step{
				e.Cfg.PackageTool, "install", "--reinstall", "-y", e.Cfg.BootSplashPackage,
			}); err != nil {
				return err
			}
			if err := cmd.Run(ctx, "mark boot splash manual", Step{
				e.Cfg.AptMarkBin, "manual", e.Cfg.BootSplashPackage,
			}); err != nil {
				return err
			}
			if err := cmd.Shell(ctx, "dump package listing", "dpkg -l > /tmp/packages.list"); err != nil {
				return err
			}
			if err := cmd.Run(ctx, "regenerate initramfs", Step{e.Cfg.UpdateInitramfsBin, "-u", "-k", "all"}); err != nil {
				return err
			}
			return nil
		},
	})
}

// AlreadyInitialized reports whether the current symlink exists, i.e.
// whether Init has already run.
func (e *Engine) AlreadyInitialized() bool {
	_, err := e.currentName()
	return err == nil
}

// EnsureInitializedMessage is the operator-facing instruction update
// prints when it silently delegates to Init.
const EnsureInitializedMessage = "system was not initialized: ran init instead. Reboot, then run update again."

// initError wraps a failure during the implicit init performed by update.
func initError(err error) error {
	return fmt.Errorf("implicit init failed: %w", err)
}
