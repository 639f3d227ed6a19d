// Package btrfsops wraps the btrfs admin CLI with typed operations:
// snapshotting (including nested subvolume trees), the read-only
// property, subvolume identity, the default-subvolume pointer, deletion,
// and filesystem UUID lookup.
package btrfsops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/HackerOS-Linux-System/hammer/internal/herr"
	"github.com/HackerOS-Linux-System/hammer/internal/procrunner"
)

// Ops is a thin, typed wrapper over the btrfs admin CLI.
type Ops struct {
	Bin string
	Run procrunner.Runner
}

func New(bin string, runner procrunner.Runner) *Ops {
	return &Ops{Bin: bin, Run: runner}
}

func (o *Ops) run(ctx context.Context, stage string, args ...string) (procrunner.Result, error) {
	res, err := o.Run.Run(ctx, o.Bin, args...)
	if err != nil {
		return res, &herr.BtrfsError{Stage: stage, Detail: err.Error()}
	}
	if !res.Success {
		return res, &herr.BtrfsError{Stage: stage, Detail: strings.TrimSpace(string(res.Stderr))}
	}
	return res, nil
}

// Snapshot creates a btrfs subvolume snapshot, read-only unless writable
// is set.
func (o *Ops) Snapshot(ctx context.Context, source, dest string, writable bool) error {
	args := []string{"subvolume", "snapshot"}
	if !writable {
		args = append(args, "-r")
	}
	args = append(args, source, dest)
	_, err := o.run(ctx, "subvolume snapshot", args...)
	return err
}

// NestedSubvolume is one entry discovered under a source subvolume's
// FS_TREE logical path, relative to that source.
type NestedSubvolume struct {
	RelPath string
}

// SnapshotRecursive snapshots source into dest, then walks every nested
// subvolume of source (via `subvolume list -a --sort=path`, so parents
// precede children), removes the placeholder directory the top-level
// snapshot left at dest/<rel>, and snapshots the nested subvolume into
// its matching destination path.
func (o *Ops) SnapshotRecursive(ctx context.Context, source, dest string, writable bool) error {
	if err := o.Snapshot(ctx, source, dest, writable); err != nil {
		return err
	}

	nested, err := o.nestedSubvolumes(ctx, source)
	if err != nil {
		return err
	}

	for _, n := range nested {
		src := filepath.Join(source, n.RelPath)
		dst := filepath.Join(dest, n.RelPath)

		if err := os.RemoveAll(dst); err != nil {
			return &herr.BtrfsError{Stage: "remove placeholder", Detail: err.Error()}
		}
		if err := o.Snapshot(ctx, src, dst, writable); err != nil {
			return err
		}
	}
	return nil
}

// nestedSubvolumes enumerates nested subvolumes of source via
// `subvolume list -a --sort=path`, parsing paths prefixed by source's
// logical <FS_TREE>/... path and computing each one's path relative to
// source. Ordering is sorted-by-path, so parents precede children.
func (o *Ops) nestedSubvolumes(ctx context.Context, source string) ([]NestedSubvolume, error) {
	sourceName, err := o.SubvolName(ctx, source)
	if err != nil {
		return nil, err
	}
	if sourceName == "" {
		return nil, nil
	}

	res, err := o.run(ctx, "subvolume list", "subvolume", "list", "-a", "--sort=path", source)
	if err != nil {
		return nil, err
	}

	prefix := sourceName + "/"
	var out []NestedSubvolume
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		path := parseSubvolumeListPath(line)
		if path == "" || path == sourceName {
			continue
		}
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		out = append(out, NestedSubvolume{RelPath: strings.TrimPrefix(path, prefix)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out, nil
}

// parseSubvolumeListPath extracts the trailing "path" field from one line
// of `btrfs subvolume list -a` output, stripping the leading "<FS_TREE>/"
// decoration when present.
func parseSubvolumeListPath(line string) string {
	idx := strings.Index(line, "path ")
	if idx < 0 {
		return ""
	}
	p := strings.TrimSpace(line[idx+len("path "):])
	p = strings.TrimPrefix(p, "<FS_TREE>/")
	return p
}

// SetRO sets the read-only property on a single subvolume.
func (o *Ops) SetRO(ctx context.Context, path string, ro bool) error {
	_, err := o.run(ctx, "property set", "property", "set", "-ts", path, "ro", strconv.FormatBool(ro))
	return err
}

// SetRORecursive applies SetRO to path and then to every nested
// subvolume, in the same enumeration order as SnapshotRecursive, so the
// ro property agrees across the deployment and everything it captured.
func (o *Ops) SetRORecursive(ctx context.Context, path string, ro bool) error {
	if err := o.SetRO(ctx, path, ro); err != nil {
		return err
	}
	nested, err := o.nestedSubvolumes(ctx, path)
	if err != nil {
		return err
	}
	for _, n := range nested {
		if err := o.SetRO(ctx, filepath.Join(path, n.RelPath), ro); err != nil {
			return err
		}
	}
	return nil
}

// DeleteRecursive deletes path and every nested subvolume it contains,
// children before parents (the reverse of SnapshotRecursive's
// parents-before-children order), so no delete ever targets a subvolume
// that still has a live child mounted inside it.
func (o *Ops) DeleteRecursive(ctx context.Context, path string) error {
	nested, err := o.nestedSubvolumes(ctx, path)
	if err != nil {
		return err
	}
	for i := len(nested) - 1; i >= 0; i-- {
		if err := o.Delete(ctx, filepath.Join(path, nested[i].RelPath)); err != nil {
			return err
		}
	}
	return o.Delete(ctx, path)
}

// SubvolID parses the "Subvolume ID:" line from `btrfs subvolume show`.
func (o *Ops) SubvolID(ctx context.Context, path string) (int, error) {
	res, err := o.run(ctx, "subvolume show", "subvolume", "show", path)
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "Subvolume ID:"); ok {
			id, err := strconv.Atoi(strings.TrimSpace(after))
			if err != nil {
				return 0, &herr.BtrfsError{Stage: "subvolume show", Detail: "unparseable subvolume id: " + line}
			}
			return id, nil
		}
	}
	return 0, &herr.BtrfsError{Stage: "subvolume show", Detail: "no Subvolume ID line in output"}
}

// SubvolName returns the first non-empty line of `btrfs subvolume show`,
// treating "<FS_TREE>" or "/" as empty (the filesystem top itself).
func (o *Ops) SubvolName(ctx context.Context, path string) (string, error) {
	res, err := o.run(ctx, "subvolume show", "subvolume", "show", path)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "<FS_TREE>" || line == "/" {
			return "", nil
		}
		return line, nil
	}
	return "", nil
}

// SetDefault sets the filesystem-level default subvolume id.
func (o *Ops) SetDefault(ctx context.Context, id int) error {
	_, err := o.run(ctx, "subvolume set-default", "subvolume", "set-default", strconv.Itoa(id), "/")
	return err
}

// Delete deletes a subvolume.
func (o *Ops) Delete(ctx context.Context, path string) error {
	_, err := o.run(ctx, "subvolume delete", "subvolume", "delete", path)
	return err
}

// FSUUID parses "uuid:" from `btrfs filesystem show /`.
func (o *Ops) FSUUID(ctx context.Context) (string, error) {
	res, err := o.run(ctx, "filesystem show", "filesystem", "show", "/")
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "uuid:"); ok {
			return strings.TrimSpace(after), nil
		}
	}
	return "", &herr.BtrfsError{Stage: "filesystem show", Detail: "no uuid: line in output"}
}

// ListDeployments reads directory entries of the deployments root,
// filtered by the "hammer-" prefix.
func ListDeployments(deploymentsDir string) ([]string, error) {
	entries, err := os.ReadDir(deploymentsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list deployments: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), "hammer-") {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
