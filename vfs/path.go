package vfs

import (
	"strings"
)

// pathSeparator joins a Path's components back into a display string;
// fixed across platforms since a Path only ever addresses positions
// inside a repository's tree, never the host filesystem.
const pathSeparator = "/"

// Path is a platform-agnostic position in the filesystem view, stored as
// a slice of components: "" is Root, and ["backups", "1", "docs"] is
// the "docs" directory of snapshot 1 of family "backups".
type Path []string

// Root is the path with zero components.
var Root = Path{}

// ParsePath splits a "/"-joined string into a Path, discarding empty
// components so leading, trailing and doubled slashes are all
// equivalent to a single separator.
func ParsePath(s string) Path {
	var p Path
	for _, c := range strings.Split(s, pathSeparator) {
		if c != "" {
			p = append(p, c)
		}
	}
	return p
}

// Parent returns the path one level up; the root's parent is itself.
func (p Path) Parent() Path {
	if len(p) < 2 {
		return Root
	}
	return p[:len(p)-1]
}

// Base returns the last component, or the separator for the root.
func (p Path) Base() string {
	if len(p) < 1 {
		return pathSeparator
	}
	return p[len(p)-1]
}

// String implements fmt.Stringer.
func (p Path) String() string {
	return pathSeparator + strings.Join(p, pathSeparator)
}
