package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun checks if the current process is running via `go run` or `go test`.
// It relies on the fact that these commands build binaries in temporary directories.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}

	tempDir := os.TempDir()
	if strings.HasPrefix(strings.ToLower(exe), strings.ToLower(tempDir)) {
		return true
	}

	if strings.HasSuffix(exe, ".test") || strings.HasSuffix(exe, ".test.exe") {
		return true
	}

	return false
}

// ResolveSandboxPath re-roots path into temp/koremd-dev/<role> when forceTemp is set.
// Paths already inside the system temp directory (t.TempDir()) are trusted as is.
func ResolveSandboxPath(path, role string, forceTemp bool) string {
	if !forceTemp || path == ":memory:" {
		return path
	}

	clean := filepath.Clean(path)
	tempRoot := os.TempDir()
	if rel, err := filepath.Rel(tempRoot, clean); err == nil && !strings.HasPrefix(rel, "..") {
		return clean
	}

	subName := filepath.Base(clean)
	if path == "" || subName == "." || subName == string(os.PathSeparator) {
		subName = "default"
	}
	return filepath.Join(tempRoot, "koremd-dev", role, subName)
}
