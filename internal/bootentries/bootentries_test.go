package bootentries_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HackerOS-Linux-System/hammer/internal/bootentries"
	"github.com/HackerOS-Linux-System/hammer/internal/model"
)

func TestRenderSkipsMissingKernel(t *testing.T) {
	body := bootentries.Render("fs-uuid-1", []bootentries.Candidate{
		{Name: "hammer-20240102030405", Meta: model.Metadata{Kernel: "6.6.0-1"}},
		{Name: "hammer-20240101000000", Meta: model.Metadata{Kernel: ""}},
	})

	assert.True(t, strings.HasPrefix(body, "#!/bin/sh\nexec tail -n +3 \"$0\"\n"))
	assert.Contains(t, body, "menuentry 'hammer: hammer-20240102030405'")
	assert.NotContains(t, body, "hammer-20240101000000")
	assert.Contains(t, body, "search --no-floppy --fs-uuid --set=root fs-uuid-1")
	assert.Contains(t, body, "rootflags=subvol=deployments/hammer-20240102030405")
	assert.Contains(t, body, "vmlinuz-6.6.0-1")
	assert.Contains(t, body, "initrd.img-6.6.0-1")
}

func TestRenderEmptyCandidates(t *testing.T) {
	body := bootentries.Render("fs-uuid-1", nil)
	assert.NotContains(t, body, "menuentry")
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	candidates := []bootentries.Candidate{
		{Name: "hammer-20240102030405", Meta: model.Metadata{Kernel: "6.6.0-1"}},
	}
	require.NoError(t, bootentries.Write(dir, "fs-uuid-1", candidates))

	dropin := filepath.Join(dir, "etc", "grub.d", bootentries.DropinName)
	info, err := os.Stat(dropin)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	data, err := os.ReadFile(dropin)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hammer-20240102030405")
}
