package calibration

import (
	"path/filepath"
	"strings"
)

// Descriptions are often authored on Windows, so both separators are
// honoured regardless of the host.
func splitPath(path string) (dir, file string) {
	i := strings.LastIndexAny(path, `/\`)
	if i < 0 {
		return ".", path
	}
	if i == 0 {
		return path[:1], path[1:]
	}
	return path[:i], path[i+1:]
}

// fileStem returns the lower-cased file name of path without extension.
func fileStem(path string) string {
	_, file := splitPath(path)
	return strings.ToLower(strings.TrimSuffix(file, filepath.Ext(file)))
}
