package domain

import (
	"fmt"
	"strings"
)

// Path is the hierarchical key of a node in the composed stage, e.g. "/World/Geo".
type Path string

// RootPath is the pseudo-root sentinel every stage hierarchy starts from.
const RootPath Path = "/"

// ParsePath validates and normalises a prim path.
// Trailing slashes are dropped and empty segments are rejected.
func ParsePath(s string) (Path, error) {
	if s == "" || s[0] != '/' {
		return "", fmt.Errorf("%w: path %q must be absolute", ErrInvalidInput, s)
	}
	if s == "/" {
		return RootPath, nil
	}
	trimmed := strings.TrimSuffix(s, "/")
	for _, segment := range strings.Split(trimmed[1:], "/") {
		if segment == "" {
			return "", fmt.Errorf("%w: path %q has an empty segment", ErrInvalidInput, s)
		}
	}
	return Path(trimmed), nil
}

// String returns the string representation.
func (p Path) String() string {
	return string(p)
}

// IsRoot reports whether p is the pseudo-root.
func (p Path) IsRoot() bool {
	return p == RootPath
}

// Name returns the last path segment. The root's name is "/".
func (p Path) Name() string {
	if p.IsRoot() {
		return string(RootPath)
	}
	s := string(p)
	return s[strings.LastIndexByte(s, '/')+1:]
}

// Parent returns the parent path. The root is its own parent.
func (p Path) Parent() Path {
	if p.IsRoot() {
		return RootPath
	}
	s := string(p)
	i := strings.LastIndexByte(s, '/')
	if i <= 0 {
		return RootPath
	}
	return Path(s[:i])
}

// Child appends a segment to p.
func (p Path) Child(name string) Path {
	if p.IsRoot() {
		return Path("/" + name)
	}
	return Path(string(p) + "/" + name)
}

// Depth returns the number of segments below the root.
func (p Path) Depth() int {
	if p.IsRoot() {
		return 0
	}
	return strings.Count(string(p), "/")
}
