// Package version provides the devlog release version and the entry layout
// versions its readers accept.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/mash-protocol/devlog/pkg/log"
)

// Current is the devlog release.
const Current = "1.0"

// ErrUnsupportedLayout is returned for entries written with an unknown
// header layout.
var ErrUnsupportedLayout = errors.New("unsupported entry layout")

// Version represents a parsed "major.minor" version.
type Version struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Version{}, errors.Newf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return Version{}, errors.Newf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return Version{}, errors.Newf("invalid version %q: bad minor component", s)
	}

	return Version{Major: uint16(major), Minor: uint16(minor)}, nil
}

// String returns the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible returns true if the other version has the same major version.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major
}

// SupportedLayouts returns the entry header layouts the readers understand.
// Currently only the layout written by the engine.
func SupportedLayouts() []uint8 {
	return []uint8{log.HeaderVersion}
}

// CheckLayout returns ErrUnsupportedLayout unless v is a supported layout.
func CheckLayout(v uint8) error {
	for _, s := range SupportedLayouts() {
		if v == s {
			return nil
		}
	}
	return errors.Wrapf(ErrUnsupportedLayout, "layout %d (supported: %v)", v, SupportedLayouts())
}

// Banner returns the one-line description printed by the version command.
func Banner() string {
	return fmt.Sprintf("devlog %s (entry layout %d)", Current, log.HeaderVersion)
}
