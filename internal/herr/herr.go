// Package herr defines the typed error kinds raised by the deployment
// engine: a small family of concrete error types participating in
// errors.As/errors.Is, wrapped with plain fmt.Errorf where context is
// needed.
package herr

import "fmt"

// BusyError is returned when the lock file is already present.
type BusyError struct{}

func (*BusyError) Error() string { return "another hammer operation is already in progress" }

// EnvError covers system validation failures: root not btrfs, no current
// symlink, running deployment not read-only, missing root privilege,
// insufficient disk space.
type EnvError struct {
	Reason string
}

func (e *EnvError) Error() string { return e.Reason }

// BtrfsError wraps a failed btrfs admin CLI invocation.
type BtrfsError struct {
	Stage  string
	Detail string
}

func (e *BtrfsError) Error() string {
	return fmt.Sprintf("btrfs %s failed: %s", e.Stage, e.Detail)
}

// MountError wraps a failed mount/umount invocation.
type MountError struct {
	Stage  string
	Detail string
}

func (e *MountError) Error() string {
	return fmt.Sprintf("mount %s failed: %s", e.Stage, e.Detail)
}

// ChrootError wraps a non-zero exit from a command run inside the chroot.
type ChrootError struct {
	Stage  string
	Detail string
}

func (e *ChrootError) Error() string {
	return fmt.Sprintf("chroot step %q failed: %s", e.Stage, e.Detail)
}

// SanityError is raised by the post-chroot sanity check.
type SanityError struct {
	Which string
}

func (e *SanityError) Error() string { return "sanity check failed: " + e.Which }

// MetaError covers malformed or missing meta.json.
type MetaError struct {
	Reason string
}

func (e *MetaError) Error() string { return "metadata error: " + e.Reason }

// NotFoundError covers a missing deployment, rollback index, or package.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string { return e.What + " not found" }

// NoopError means a package operation found the system already in the
// desired state. Callers surface this as a non-error user message and
// exit 0, but it still triggers the same transaction cleanup path as a
// real failure (the in-flight deployment is marked broken and kept).
type NoopError struct {
	Reason string
}

func (e *NoopError) Error() string { return e.Reason }
