// Package lockguard implements single-writer mutual exclusion between
// hammer processes: a lock file whose mere presence denotes a held
// exclusive lock. Acquisition never blocks; a held lock fails
// immediately with herr.BusyError. The lock carries no pid; stale locks
// are reconciled by check-transaction or the operator.
package lockguard

import (
	"os"

	"github.com/HackerOS-Linux-System/hammer/internal/herr"
)

// Guard wraps a lock file path.
type Guard struct {
	Path string
}

func New(path string) *Guard { return &Guard{Path: path} }

// WithLock acquires the lock, runs fn, and releases the lock on every
// exit path including a panic inside fn. Returns herr.BusyError if the
// lock file already exists.
func (g *Guard) WithLock(fn func() error) error {
	f, err := os.OpenFile(g.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return &herr.BusyError{}
		}
		return err
	}
	_ = f.Close()

	defer os.Remove(g.Path)
	return fn()
}

// Held reports whether the lock file is currently present.
func (g *Guard) Held() bool {
	_, err := os.Stat(g.Path)
	return err == nil
}

// Clear removes the lock file unconditionally. Used only by
// check-transaction's stale-lock pruning; reconciliation runs outside
// any mutating engine operation, so this never races a WithLock call
// made by the same invocation.
func (g *Guard) Clear() error {
	err := os.Remove(g.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
