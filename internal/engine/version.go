package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/HackerOS-Linux-System/hammer/internal/herr"
)

const packagesListName = "packages.list"

func packagesListPath(deploymentPath string) string {
	return filepath.Join(deploymentPath, "tmp", packagesListName)
}

// readPackagesList loads the dpkg -l dump a chroot step produced at
// <deployment>/tmp/packages.list. Absence means the chroot work never
// ran to completion, which is a failure.
func readPackagesList(deploymentPath string) ([]byte, error) {
	data, err := os.ReadFile(packagesListPath(deploymentPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &herr.SanityError{Which: "packages.list missing"}
		}
		return nil, err
	}
	return data, nil
}

// systemVersion is the content-addressed identity of a deployment:
// SHA-256 over the packages.list bytes.
func systemVersion(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// discardPackagesList deletes packages.list once it has been hashed.
func discardPackagesList(deploymentPath string) error {
	err := os.Remove(packagesListPath(deploymentPath))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

var kernelImageRE = regexp.MustCompile(`linux-image-([0-9][0-9A-Za-z.+~_-]*)`)

// highestKernelVersion parses a `dpkg -l` listing for every installed
// linux-image-<version> package and returns the highest version as
// ordered by compareVersions.
func highestKernelVersion(dpkgListing []byte) (string, error) {
	matches := kernelImageRE.FindAllStringSubmatch(string(dpkgListing), -1)
	if len(matches) == 0 {
		return "", &herr.SanityError{Which: "no linux-image-<version> package found"}
	}

	best := matches[0][1]
	for _, m := range matches[1:] {
		if compareVersions(m[1], best) > 0 {
			best = m[1]
		}
	}
	return best, nil
}

var versionComponentRE = regexp.MustCompile(`[0-9]+|[^0-9]+`)

// compareVersions orders two kernel version strings component-wise:
// numeric runs compare numerically, non-numeric runs compare
// lexicographically, and a missing component sorts before any present
// one. Unlike dpkg, '~' gets no special pre-release ordering. Returns
// -1, 0, or 1.
func compareVersions(a, b string) int {
	ac := versionComponentRE.FindAllString(a, -1)
	bc := versionComponentRE.FindAllString(b, -1)

	for i := 0; i < len(ac) || i < len(bc); i++ {
		var ai, bi string
		if i < len(ac) {
			ai = ac[i]
		}
		if i < len(bc) {
			bi = bc[i]
		}
		if ai == bi {
			continue
		}
		an, aerr := strconv.Atoi(ai)
		bn, berr := strconv.Atoi(bi)
		if aerr == nil && berr == nil {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}
		if ai < bi {
			return -1
		}
		return 1
	}
	return 0
}
