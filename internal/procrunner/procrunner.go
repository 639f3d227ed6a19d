// Package procrunner executes external tools and captures their outcome.
// It never turns a non-zero exit into a Go error; callers decide what a
// given exit status means for the operation in progress.
package procrunner

import (
	"bytes"
	"context"
	"os/exec"
)

// Result is the outcome of one child process invocation.
type Result struct {
	Success bool
	Stdout  []byte
	Stderr  []byte
}

// Runner is the interface the engine and its components depend on, so
// tests can substitute FakeRunner without invoking real btrfs/mount/chroot
// binaries.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
	RunShell(ctx context.Context, script string) (Result, error)
}

// Exec is the real Runner, backed by os/exec. Current working directory
// and environment are inherited; callers must not depend on variables
// beyond PATH and SUDO_USER.
type Exec struct{}

func New() *Exec { return &Exec{} }

// Run executes name with args to completion. Standard input is not
// connected. The returned error is non-nil only when the child could not
// be started at all (e.g. executable not found); a non-zero exit is
// reported via Result.Success, not via error.
func (*Exec) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if err == nil {
		res.Success = true
		return res, nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		res.Success = false
		return res, nil
	}
	// the child never ran at all (lookup failure, fork failure, ...)
	return res, err
}

// RunShell accepts a single command string for the few places a chroot
// shell pipeline is needed. No shell interposition happens anywhere
// else in this package.
func (e *Exec) RunShell(ctx context.Context, script string) (Result, error) {
	return e.Run(ctx, "sh", "-c", script)
}
