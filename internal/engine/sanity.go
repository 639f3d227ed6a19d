package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HackerOS-Linux-System/hammer/internal/herr"
)

// sanityCheck verifies the new deployment boots: its boot/ files for
// kernel must exist, and /etc/fstab inside it must be parseable via
// a dry-run mount. It must run while chroot is still mounted at
// chrootPath: a fresh writable deployment is indistinguishable from a
// stale one until this passes.
func (e *Engine) sanityCheck(ctx context.Context, deploymentPath, chrootPath, kernel string) error {
	vmlinuz := filepath.Join(deploymentPath, "boot", "vmlinuz-"+kernel)
	if _, err := os.Stat(vmlinuz); err != nil {
		return &herr.SanityError{Which: fmt.Sprintf("missing %s", vmlinuz)}
	}

	initrd := filepath.Join(deploymentPath, "boot", "initrd.img-"+kernel)
	if _, err := os.Stat(initrd); err != nil {
		return &herr.SanityError{Which: fmt.Sprintf("missing %s", initrd)}
	}

	cmd := e.chrootCmd(chrootPath)
	if err := cmd.Run(ctx, "fstab dry-run", Step{"mount", "-f", "-a"}); err != nil {
		return &herr.SanityError{Which: "fstab unparseable: " + err.Error()}
	}
	return nil
}
