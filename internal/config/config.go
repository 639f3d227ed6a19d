// Package config holds the single configuration value threaded explicitly
// through the engine (design note: "Global module state (paths,
// constants). Capture in a single configuration value... No ambient
// globals."). It loads optional overrides from /etc/hammer/config.yaml
// and otherwise falls back to the fixed defaults below.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is constructed once in cmd/hammer and passed into every
// component constructor.
type Config struct {
	BtrfsRoot      string `yaml:"btrfs_root"`
	DeploymentsDir string `yaml:"deployments_dir"`
	CurrentLink    string `yaml:"current_link"`
	LockFile       string `yaml:"lock_file"`
	MarkerFile     string `yaml:"marker_file"`
	LogFile        string `yaml:"log_file"`
	RetainCount    int    `yaml:"retain_count"`

	BtrfsBin    string `yaml:"btrfs_bin"`
	MountBin    string `yaml:"mount_bin"`
	UmountBin   string `yaml:"umount_bin"`
	ChrootBin   string `yaml:"chroot_bin"`
	MktempBin   string `yaml:"mktemp_bin"`
	FindmntBin  string `yaml:"findmnt_bin"`
	PackageTool string `yaml:"package_tool"`

	DpkgBin             string `yaml:"dpkg_bin"`
	DpkgQueryBin        string `yaml:"dpkg_query_bin"`
	AptMarkBin          string `yaml:"apt_mark_bin"`
	UpdateInitramfsBin  string `yaml:"update_initramfs_bin"`
	UpdateGrubBin       string `yaml:"update_grub_bin"`
	BootSplashPackage   string `yaml:"boot_splash_package"`

	// ContainerSandboxBin names the optional non-atomic "install in
	// container" collaborator. clean detects its presence via exec.LookPath
	// before asking it to prune; its absence is not an error.
	ContainerSandboxBin string `yaml:"container_sandbox_bin"`
}

// Default returns the fixed filesystem layout and tool names.
func Default() *Config {
	return &Config{
		BtrfsRoot:      "/btrfs-root",
		DeploymentsDir: "/btrfs-root/deployments",
		CurrentLink:    "/btrfs-root/current",
		LockFile:       "/run/hammer.lock",
		MarkerFile:     "/btrfs-root/hammer-transaction",
		LogFile:        "/usr/lib/HackerOS/hammer/logs/hammer-updater.log",
		RetainCount:    5,

		BtrfsBin:    "btrfs",
		MountBin:    "mount",
		UmountBin:   "umount",
		ChrootBin:   "chroot",
		MktempBin:   "mktemp",
		FindmntBin:  "findmnt",
		PackageTool: "apt-get",

		DpkgBin:            "dpkg",
		DpkgQueryBin:       "dpkg-query",
		AptMarkBin:         "apt-mark",
		UpdateInitramfsBin: "update-initramfs",
		UpdateGrubBin:      "update-grub",
		BootSplashPackage:  "plymouth",

		ContainerSandboxBin: "hammer-box",
	}
}

const OverridePath = "/etc/hammer/config.yaml"

// Load returns Default(), overridden field-by-field by OverridePath when
// that file exists. A missing file is not an error; a malformed one is.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(OverridePath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("cannot read %s: %w", OverridePath, err)
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", OverridePath, err)
	}

	merge(cfg, &override)
	return cfg, nil
}

func merge(dst, src *Config) {
	if src.BtrfsRoot != "" {
		dst.BtrfsRoot = src.BtrfsRoot
	}
	if src.DeploymentsDir != "" {
		dst.DeploymentsDir = src.DeploymentsDir
	}
	if src.CurrentLink != "" {
		dst.CurrentLink = src.CurrentLink
	}
	if src.LockFile != "" {
		dst.LockFile = src.LockFile
	}
	if src.MarkerFile != "" {
		dst.MarkerFile = src.MarkerFile
	}
	if src.LogFile != "" {
		dst.LogFile = src.LogFile
	}
	if src.RetainCount > 0 {
		dst.RetainCount = src.RetainCount
	}
	if src.BtrfsBin != "" {
		dst.BtrfsBin = src.BtrfsBin
	}
	if src.MountBin != "" {
		dst.MountBin = src.MountBin
	}
	if src.UmountBin != "" {
		dst.UmountBin = src.UmountBin
	}
	if src.ChrootBin != "" {
		dst.ChrootBin = src.ChrootBin
	}
	if src.MktempBin != "" {
		dst.MktempBin = src.MktempBin
	}
	if src.FindmntBin != "" {
		dst.FindmntBin = src.FindmntBin
	}
	if src.PackageTool != "" {
		dst.PackageTool = src.PackageTool
	}
	if src.DpkgBin != "" {
		dst.DpkgBin = src.DpkgBin
	}
	if src.DpkgQueryBin != "" {
		dst.DpkgQueryBin = src.DpkgQueryBin
	}
	if src.AptMarkBin != "" {
		dst.AptMarkBin = src.AptMarkBin
	}
	if src.UpdateInitramfsBin != "" {
		dst.UpdateInitramfsBin = src.UpdateInitramfsBin
	}
	if src.UpdateGrubBin != "" {
		dst.UpdateGrubBin = src.UpdateGrubBin
	}
	if src.BootSplashPackage != "" {
		dst.BootSplashPackage = src.BootSplashPackage
	}
	if src.ContainerSandboxBin != "" {
		dst.ContainerSandboxBin = src.ContainerSandboxBin
	}
}
