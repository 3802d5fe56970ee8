// Package semver provides the three-part version identifiers used by the
// version ledger.
//
// Identifiers are parsed at the boundary into a structured Version; the
// rest of the system never does string comparison on ids. Parsing accepts
// an optional leading "v" and coerces missing trailing components to zero
// ("1.2" == "1.2.0"), so ledgers written by older tooling still load. The
// canonical form is always "major.minor.patch" with no prefix.
package semver

import (
	"errors"
	"fmt"
	"sort"

	mmsemver "github.com/Masterminds/semver/v3"
)

// ErrMalformed is returned when a version identifier cannot be parsed.
var ErrMalformed = errors.New("malformed version id")

// Bump identifies which component an increment advances.
type Bump string

const (
	BumpMajor Bump = "major"
	BumpMinor Bump = "minor"
	BumpPatch Bump = "patch"
)

// ParseBump validates a bump kind supplied by a caller. The empty string
// defaults to a minor bump.
func ParseBump(s string) (Bump, error) {
	switch Bump(s) {
	case "":
		return BumpMinor, nil
	case BumpMajor, BumpMinor, BumpPatch:
		return Bump(s), nil
	}
	return "", fmt.Errorf("unknown bump kind %q (want major, minor or patch)", s)
}

// Version is an ordered three-part version identifier.
type Version struct {
	major uint64
	minor uint64
	patch uint64
}

// Parse converts a dotted identifier into a Version. Pre-release and build
// metadata suffixes are rejected: ledger ids are plain numeric triples.
func Parse(s string) (Version, error) {
	v, err := mmsemver.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return Version{}, fmt.Errorf("%w: %q carries a suffix", ErrMalformed, s)
	}
	return Version{major: v.Major(), minor: v.Minor(), patch: v.Patch()}, nil
}

// MustParse is Parse for identifiers known to be valid; it panics on error
// and is intended for literals in tests and defaults.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the canonical "major.minor.patch" form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

// Compare orders versions by their integer components. It returns -1, 0 or
// +1 as v is less than, equal to or greater than o.
func (v Version) Compare(o Version) int {
	if v.major != o.major {
		return compareUint(v.major, o.major)
	}
	if v.minor != o.minor {
		return compareUint(v.minor, o.minor)
	}
	return compareUint(v.patch, o.patch)
}

// Less reports whether v orders before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Increment returns the next version for the given bump kind:
// major -> (m+1).0.0, minor -> m.(n+1).0, patch -> m.n.(p+1).
func (v Version) Increment(kind Bump) Version {
	switch kind {
	case BumpMajor:
		return Version{major: v.major + 1}
	case BumpMinor:
		return Version{major: v.major, minor: v.minor + 1}
	default:
		return Version{major: v.major, minor: v.minor, patch: v.patch + 1}
	}
}

// SortIDs sorts raw identifiers ascending by semantic-version order.
// Unparseable ids sort first so that well-formed ids keep their relative
// order; callers that need strictness should Parse each id themselves.
func SortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		vi, erri := Parse(ids[i])
		vj, errj := Parse(ids[j])
		if erri != nil || errj != nil {
			return erri != nil && errj == nil
		}
		return vi.Less(vj)
	})
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
