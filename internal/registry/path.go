package registry

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ResolvePath maps a database name to the DSN passed to store.Open.
//
// ":memory:" and "file::memory:" are returned unchanged. Names that request
// memory mode ("notes?mode=memory") become SQLite URIs. Absolute paths and
// "file:" URIs are kept; anything else is placed under baseDir. A ".db"
// suffix is added when the name has none, before any query string.
func ResolvePath(baseDir, name string) string {
	name = norm.NFC.String(name)
	if name == ":memory:" || name == "file::memory:" {
		return name
	}

	path := name
	switch {
	case strings.HasPrefix(name, "file:"), filepath.IsAbs(name):
	case strings.Contains(name, "mode=memory"):
		path = "file:" + name
	default:
		path = filepath.Join(baseDir, name)
	}

	if !strings.Contains(path, ".db") {
		if i := strings.Index(path, "?"); i >= 0 {
			path = path[:i] + ".db" + path[i:]
		} else {
			path += ".db"
		}
	}
	return path
}

// isMemory reports whether a resolved DSN names an in-memory database.
func isMemory(dsn string) bool {
	return dsn == ":memory:" || dsn == "file::memory:" || strings.Contains(dsn, "mode=memory")
}
