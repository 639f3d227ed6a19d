// Package bootentries renders the boot menu into a GRUB
// drop-in script. It selects the newest N "good" deployments, skips any
// whose kernel metadata is missing, and wraps the entries in a script
// that begins by re-emitting its own tail, the standard grub.d
// convention (see /etc/grub.d/40_custom on any grub install) so
// grub-mkconfig captures the entries as this script's stdout.
package bootentries

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/HackerOS-Linux-System/hammer/internal/model"
)

// DropinName is the fixed grub.d drop-in filename the generated menu
// entries live under.
const DropinName = "25_hammer_entries"

// Candidate is one deployment eligible for a menu entry.
type Candidate struct {
	Name string
	Meta model.Metadata
}

const header = "#!/bin/sh\nexec tail -n +3 \"$0\"\n"

// Render builds the drop-in script body for the given candidates
// (already filtered to status ready|booted and sorted newest-first,
// limited to the retention count) and filesystem UUID. Candidates whose
// Kernel field is empty are skipped: there is no kernel image to point
// the entry at.
func Render(uuid string, candidates []Candidate) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("# generated by hammer, do not edit\n")

	for _, c := range candidates {
		if c.Meta.Kernel == "" {
			continue
		}
		fmt.Fprintf(&b, "\nmenuentry 'hammer: %s' --class hammer --class gnu-linux --class gnu --class os {\n", c.Name)
		fmt.Fprintf(&b, "\tsearch --no-floppy --fs-uuid --set=root %s\n", uuid)
		fmt.Fprintf(&b, "\tlinux /deployments/%s/boot/vmlinuz-%s root=UUID=%s rw rootflags=subvol=deployments/%s quiet splash $vt_handoff\n",
			c.Name, c.Meta.Kernel, uuid, c.Name)
		fmt.Fprintf(&b, "\tinitrd /deployments/%s/boot/initrd.img-%s\n", c.Name, c.Meta.Kernel)
		b.WriteString("}\n")
	}

	return b.String()
}

// Write renders and writes the drop-in into
// <newDeploymentPath>/etc/grub.d/25_hammer_entries with mode 0755.
func Write(newDeploymentPath, uuid string, candidates []Candidate) error {
	dir := filepath.Join(newDeploymentPath, "etc", "grub.d")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	body := Render(uuid, candidates)
	return os.WriteFile(filepath.Join(dir, DropinName), []byte(body), 0755)
}
