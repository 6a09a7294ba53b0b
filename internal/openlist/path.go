package openlist

import "strings"

// NormalizePath ensures a leading slash and collapses duplicate slashes.
func NormalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

// ParentPath returns the parent directory of p, "/" for top-level paths.
func ParentPath(p string) string {
	p = NormalizePath(p)
	idx := strings.LastIndex(p, "/")
	if idx <= 0 {
		return "/"
	}
	return p[:idx]
}

// MapPath translates a drive-native path into the index service's
// mount-relative path by prefix substitution: when path sits under
// rootPath, that prefix is swapped for mountPrefix; otherwise the path is
// returned untouched.
func MapPath(path, rootPath, mountPrefix string) string {
	path = NormalizePath(path)
	rootPath = strings.TrimRight(rootPath, "/")
	mountPrefix = strings.TrimRight(mountPrefix, "/")
	if rootPath == "" || mountPrefix == "" {
		return path
	}
	if path == rootPath {
		return NormalizePath(mountPrefix)
	}
	if strings.HasPrefix(path, rootPath+"/") {
		return NormalizePath(mountPrefix + strings.TrimPrefix(path, rootPath))
	}
	return path
}
