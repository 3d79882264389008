package dirtree

import "strings"

// MaxNameLength bounds the length of a single path component, per the
// compile-time MAX_NAME constant of spec §6.
const MaxNameLength = 255

func isValidName(name string) bool {
	if len(name) == 0 || len(name) > MaxNameLength {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

// isValidPath reports whether path conforms to the grammar
// `path := "/" | ("/" name)+ "/"`.
func isValidPath(path string) bool {
	if path == "/" {
		return true
	}
	if len(path) < 2 || path[0] != '/' || path[len(path)-1] != '/' {
		return false
	}
	for _, name := range strings.Split(path[1:len(path)-1], "/") {
		if !isValidName(name) {
			return false
		}
	}
	return true
}

// splitPath breaks a valid path into its ordered, nonempty components.
// splitPath("/") returns nil.
func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// joinPath is the inverse of splitPath.
func joinPath(components []string) string {
	if len(components) == 0 {
		return "/"
	}
	return "/" + strings.Join(components, "/") + "/"
}

// splitParent splits a valid, non-root path into its parent path and
// final component name. It reports ok=false for "/", which has no
// parent.
func splitParent(path string) (parentPath, name string, ok bool) {
	components := splitPath(path)
	if len(components) == 0 {
		return "", "", false
	}
	name = components[len(components)-1]
	parentPath = joinPath(components[:len(components)-1])
	return parentPath, name, true
}

// commonPrefixLen returns the number of leading components shared by a
// and b, used to locate the lowest common ancestor of two paths.
func commonPrefixLen(a, b []string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// isSelfOrDescendantPath reports whether target names source itself or
// a node inside source's subtree, i.e. whether target's component list
// starts with source's.
func isSelfOrDescendantPath(source, target []string) bool {
	if len(target) < len(source) {
		return false
	}
	for i := range source {
		if source[i] != target[i] {
			return false
		}
	}
	return true
}
