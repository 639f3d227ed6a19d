package engine

import (
	"context"
	"strconv"

	"github.com/HackerOS-Linux-System/hammer/internal/herr"
	"github.com/HackerOS-Linux-System/hammer/internal/metastore"
	"github.com/HackerOS-Linux-System/hammer/internal/model"
)

// Switch repoints current at an existing deployment. With no name, the
// target is the second-newest deployment by creation time. No new deployment is
// created, no chroot work runs, and no transaction marker is used; any
// target whose status is not broken is accepted.
func (e *Engine) Switch(ctx context.Context, name string) (string, error) {
	var target string

	txErr := e.Lock.WithLock(func() error {
		if err := e.validate(ctx, false); err != nil {
			return err
		}

		entries, err := e.listByCreatedDesc()
		if err != nil {
			return err
		}

		if name != "" {
			target = name
			if !deploymentExists(entries, target) {
				return &herr.NotFoundError{What: "deployment " + target}
			}
		} else {
			if len(entries) < 2 {
				return &herr.NotFoundError{What: "a second-newest deployment to switch to"}
			}
			target = entries[1].Name
		}

		return e.promoteExisting(ctx, target)
	})

	return target, txErr
}

// Rollback repoints current at the deployment n generations back,
// sorted by creation time descending. n must be strictly less than the
// number of existing deployments.
func (e *Engine) Rollback(ctx context.Context, n int) (string, error) {
	var target string

	txErr := e.Lock.WithLock(func() error {
		if err := e.validate(ctx, false); err != nil {
			return err
		}

		entries, err := e.listByCreatedDesc()
		if err != nil {
			return err
		}
		if n < 0 || n >= len(entries) {
			return &herr.NotFoundError{What: "rollback target at index " + strconv.Itoa(n)}
		}
		target = entries[n].Name

		return e.promoteExisting(ctx, target)
	})

	return target, txErr
}

// promoteExisting flips the default subvolume and current symlink onto
// an already-existing target deployment, and demotes whatever was
// current before to "previous" with rollback_reason "manual". Both
// switch and rollback promote this way.
func (e *Engine) promoteExisting(ctx context.Context, target string) error {
	meta, err := e.Meta.Read(target)
	if err != nil {
		return err
	}
	if meta.Status == model.StatusBroken {
		return &herr.EnvError{Reason: "cannot switch to a broken deployment"}
	}

	oldCurrent, _ := e.currentName()

	if err := e.promote(ctx, target, e.deploymentPath(target)); err != nil {
		return err
	}

	if oldCurrent != "" && oldCurrent != target {
		if err := e.Meta.Update(oldCurrent, func(m *model.Metadata) {
			m.Status = model.StatusPrevious
			m.RollbackReason = "manual"
		}); err != nil {
			return err
		}
	}
	return nil
}

// listByCreatedDesc lists every deployment sorted by Created descending.
func (e *Engine) listByCreatedDesc() ([]metastore.Entry, error) {
	names, err := e.listDeploymentNames()
	if err != nil {
		return nil, err
	}
	return e.Meta.All(names)
}

func deploymentExists(entries []metastore.Entry, name string) bool {
	for _, e := range entries {
		if e.Name == name {
			return true
		}
	}
	return false
}
