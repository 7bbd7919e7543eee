package extapi

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// MinSupportedVersion is the oldest engine the generated bindings target.
const MinSupportedVersion = "v4.0.0-beta.1"

// Version is an engine version as printed by `--version`, e.g.
// "4.0.beta10.official.d0398f62f" or "4.1.1.stable.official.bd6af8e0e".
type Version struct {
	Major  int
	Minor  int
	Patch  int
	Status string // "stable", "beta10", "rc1", "dev"
	Build  string
	Hash   string
}

// ParseVersion parses the engine's dotted version string.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	var nums []int
	i := 0
	for ; i < len(parts) && i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			break
		}
		nums = append(nums, n)
	}
	if len(nums) < 2 {
		return Version{}, fmt.Errorf("invalid engine version %q", s)
	}

	v := Version{Major: nums[0], Minor: nums[1]}
	if len(nums) == 3 {
		v.Patch = nums[2]
	}
	rest := parts[i:]
	if len(rest) > 0 {
		v.Status = rest[0]
	}
	if len(rest) > 1 {
		v.Build = rest[1]
	}
	if len(rest) > 2 {
		v.Hash = rest[2]
	}
	return v, nil
}

// VersionFromHeader builds a Version from the description header.
func VersionFromHeader(h Header) Version {
	return Version{Major: h.Major, Minor: h.Minor, Patch: h.Patch, Status: h.Status, Build: h.Build}
}

// Semver renders the version in semantic-version form. Pre-release
// counters are split off ("beta10" → "beta.10") so they order numerically.
func (v Version) Semver() string {
	base := fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Status == "" || v.Status == "stable" {
		return base
	}
	j := len(v.Status)
	for j > 0 && v.Status[j-1] >= '0' && v.Status[j-1] <= '9' {
		j--
	}
	if j == 0 || j == len(v.Status) {
		return base + "-" + v.Status
	}
	return base + "-" + v.Status[:j] + "." + v.Status[j:]
}

// Supported reports whether v is at least MinSupportedVersion.
func (v Version) Supported() bool {
	sv := v.Semver()
	return semver.IsValid(sv) && semver.Compare(sv, MinSupportedVersion) >= 0
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d", v.Major, v.Minor)
	if v.Patch != 0 {
		s += fmt.Sprintf(".%d", v.Patch)
	}
	for _, p := range []string{v.Status, v.Build, v.Hash} {
		if p != "" {
			s += "." + p
		}
	}
	return s
}
