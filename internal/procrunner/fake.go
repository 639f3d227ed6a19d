package procrunner

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Call records one invocation seen by FakeRunner.
type Call struct {
	Name string
	Args []string
}

// String renders the call the way it would appear on a command line, for
// assertions that don't want to compare the Args slice field by field.
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// FakeRunner is a Runner double used by engine/btrfsops/mountops tests so
// they never invoke real btrfs/mount/chroot binaries.
type FakeRunner struct {
	mu      sync.Mutex
	calls   []Call
	results map[string]Result
	err     map[string]error
	Default Result
}

func NewFake() *FakeRunner {
	return &FakeRunner{
		results: make(map[string]Result),
		err:     make(map[string]error),
		Default: Result{Success: true},
	}
}

// On registers the Result returned for every call matching key
// (Call.String()). key may be a prefix of the full call string; when
// several registered keys match one call, which of them answers is not
// defined.
func (f *FakeRunner) On(key string, res Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[key] = res
}

// OnError registers a start-failure for calls matching key.
func (f *FakeRunner) OnError(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err[key] = err
}

func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeRunner) Run(_ context.Context, name string, args ...string) (Result, error) {
	f.mu.Lock()
	call := Call{Name: name, Args: args}
	f.calls = append(f.calls, call)
	key := call.String()

	for k, err := range f.err {
		if strings.HasPrefix(key, k) {
			f.mu.Unlock()
			return Result{}, err
		}
	}
	for k, res := range f.results {
		if strings.HasPrefix(key, k) {
			f.mu.Unlock()
			return res, nil
		}
	}
	res := f.Default
	f.mu.Unlock()
	return res, nil
}

func (f *FakeRunner) RunShell(ctx context.Context, script string) (Result, error) {
	return f.Run(ctx, "sh", "-c", script)
}

var _ fmt.Stringer = Call{}
