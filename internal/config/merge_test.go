package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeOverridesOnlyNonZeroFields(t *testing.T) {
	dst := Default()
	src := &Config{
		RetainCount: 10,
		PackageTool: "nala",
	}

	merge(dst, src)

	assert.Equal(t, 10, dst.RetainCount)
	assert.Equal(t, "nala", dst.PackageTool)
	// everything else untouched
	assert.Equal(t, "/btrfs-root", dst.BtrfsRoot)
	assert.Equal(t, "btrfs", dst.BtrfsBin)
	assert.Equal(t, "hammer-box", dst.ContainerSandboxBin)
}

func TestMergeEmptyOverrideChangesNothing(t *testing.T) {
	dst := Default()
	want := *dst

	merge(dst, &Config{})

	assert.Equal(t, want, *dst)
}

func TestMergeZeroRetainCountIsIgnored(t *testing.T) {
	dst := Default()
	merge(dst, &Config{RetainCount: 0})
	assert.Equal(t, 5, dst.RetainCount)
}
