package engine

import (
	"context"
	"strings"

	"github.com/HackerOS-Linux-System/hammer/internal/herr"
	"github.com/HackerOS-Linux-System/hammer/internal/procrunner"
)

// Step is one argv to run as `chroot <path> <Step...>`.
type Step []string

// ChrootCmd runs a named sequence of steps one at a time
// inside a chroot, stopping at the first non-zero exit. Each step is
// its own argv, with no shell interposition or quoting hazards, except
// steps that genuinely need a pipe or redirection, which call Shell
// explicitly (e.g. dumping `dpkg -l` to a file).
type ChrootCmd struct {
	e    *Engine
	path string
}

func (e *Engine) chrootCmd(path string) *ChrootCmd {
	return &ChrootCmd{e: e, path: path}
}

// Run executes step as `chroot <path> step[0] step[1:]...`.
func (c *ChrootCmd) Run(ctx context.Context, stage string, step Step) error {
	args := append([]string{c.path}, step...)
	res, err := c.e.Run.Run(ctx, c.e.Cfg.ChrootBin, args...)
	if err != nil {
		return &herr.ChrootError{Stage: stage, Detail: err.Error()}
	}
	if !res.Success {
		return &herr.ChrootError{Stage: stage, Detail: strings.TrimSpace(string(res.Stderr))}
	}
	return nil
}

// RunCapture is Run, but also returns the child's stdout/stderr for
// callers that need to inspect output rather than just success, e.g.
// a package-manager dry run deciding whether an operation would be a
// no-op.
func (c *ChrootCmd) RunCapture(ctx context.Context, stage string, step Step) (procrunner.Result, error) {
	args := append([]string{c.path}, step...)
	res, err := c.e.Run.Run(ctx, c.e.Cfg.ChrootBin, args...)
	if err != nil {
		return res, &herr.ChrootError{Stage: stage, Detail: err.Error()}
	}
	if !res.Success {
		return res, &herr.ChrootError{Stage: stage, Detail: strings.TrimSpace(string(res.Stderr))}
	}
	return res, nil
}

// Shell runs a single command string inside the chroot via
// `chroot <path> sh -c script`, for the handful of steps that
// genuinely need shell redirection (the packages.list dump). This is
// the only place inside the engine that builds a shell pipeline.
func (c *ChrootCmd) Shell(ctx context.Context, stage, script string) error {
	return c.Run(ctx, stage, Step{"sh", "-c", script})
}

// Steps runs each step in order, returning on the first failure.
func (c *ChrootCmd) Steps(ctx context.Context, named []NamedStep) error {
	for _, n := range named {
		if err := c.Run(ctx, n.Stage, n.Step); err != nil {
			return err
		}
	}
	return nil
}

// NamedStep pairs a Step with the stage name reported in ChrootError.
type NamedStep struct {
	Stage string
	Step  Step
}
