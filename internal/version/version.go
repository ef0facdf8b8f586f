// Package version implements parsing, packing, total ordering, and
// constraint satisfaction for the three-part major.minor.patch versions
// this tool resolves against.
package version

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Version is an immutable major.minor.patch triple. Each component must fit
// in 16 bits; missing trailing components parse as zero.
type Version struct {
	Major, Minor, Patch uint16
}

// Parse reads a dot-separated decimal string of 1-3 components. Pre-release
// suffixes and any other non-numeric trailing text are rejected.
func Parse(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) == 0 || len(parts) > 3 {
		return Version{}, errors.Errorf("invalid version %q", s)
	}

	var nums [3]uint16
	for i, p := range parts {
		if p == "" {
			return Version{}, errors.Errorf("invalid version %q: empty component", s)
		}
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return Version{}, errors.Wrapf(err, "invalid version %q", s)
		}
		nums[i] = uint16(n)
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MustParse is Parse but panics on error; used for literal versions in tests
// and fixtures.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Pack returns the single 64-bit value representing v, major most
// significant, preserving a strict weak order over Versions.
func (v Version) Pack() uint64 {
	return uint64(v.Major)<<32 | uint64(v.Minor)<<16 | uint64(v.Patch)
}

// Unpack is the inverse of Pack.
func Unpack(p uint64) Version {
	return Version{
		Major: uint16(p >> 32),
		Minor: uint16(p >> 16),
		Patch: uint16(p),
	}
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than o.
func (v Version) Compare(o Version) int {
	a, b := v.Pack(), o.Pack()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Less reports whether v orders strictly before o.
func (v Version) Less(o Version) bool { return v.Pack() < o.Pack() }

// Equal reports whether v and o pack to the same value.
func (v Version) Equal(o Version) bool { return v.Pack() == o.Pack() }

func (v Version) String() string {
	return strconv.Itoa(int(v.Major)) + "." + strconv.Itoa(int(v.Minor)) + "." + strconv.Itoa(int(v.Patch))
}

// Max returns the maximum element of a non-empty slice by total order, tie
// breaking by leaving the first-seen maximal element in place (stable),
// matching the resolver's deterministic-by-insertion-order tie break.
func Max(vs []Version) (Version, bool) {
	if len(vs) == 0 {
		return Version{}, false
	}
	best := vs[0]
	for _, v := range vs[1:] {
		if v.Pack() > best.Pack() {
			best = v
		}
	}
	return best, true
}
