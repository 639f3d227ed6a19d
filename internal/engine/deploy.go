package engine

import (
	"context"

	"github.com/HackerOS-Linux-System/hammer/internal/model"
)

// Deploy creates a new deployment identical to the current one, with
// no package action, forcing a new identity for the current content. PackageWork is nil, so transact copies the
// parent's kernel and system_version verbatim instead of re-deriving
// them from a packages.list that no chroot step would otherwise produce.
func (e *Engine) Deploy(ctx context.Context) (string, model.Metadata, error) {
	return e.transact(ctx, transactOpts{Action: "deploy"})
}
