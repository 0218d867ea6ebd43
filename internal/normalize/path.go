package normalize

import "strings"

// HasExtension reports whether the final path segment carries a file
// extension: a '.' followed by a non-empty suffix.
func HasExtension(path string) bool {
	segment := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		segment = path[idx+1:]
	}
	dot := strings.LastIndexByte(segment, '.')
	if dot < 0 {
		return false
	}
	return dot < len(segment)-1
}

// AppendSlash returns path with a single trailing slash. Empty paths are
// returned unchanged.
func AppendSlash(path string) string {
	if path == "" || strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}
