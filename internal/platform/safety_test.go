package platform_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/koremd/internal/platform"
)

func TestResolveSandboxPath(t *testing.T) {
	t.Parallel()

	tempRoot := os.TempDir()
	devBase := filepath.Join(tempRoot, "koremd-dev")

	tests := []struct {
		name      string
		path      string
		forceTemp bool
		expected  string
	}{
		{"Normal Mode", "/home/me/.config/koremd", false, "/home/me/.config/koremd"},
		{"Memory Database", ":memory:", true, ":memory:"},
		{"Sandbox Empty Path", "", true, filepath.Join(devBase, "data", "default")},
		{"Sandbox Named Path", "/home/me/.config/koremd", true, filepath.Join(devBase, "data", "koremd")},
		{"Sandbox Clean Name", "../bad/path", true, filepath.Join(devBase, "data", "path")},
		{"Inside Temp Is Trusted", filepath.Join(tempRoot, "my-test"), true, filepath.Join(tempRoot, "my-test")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, platform.ResolveSandboxPath(tt.path, "data", tt.forceTemp))
		})
	}
}

func TestIsDevRun(t *testing.T) {
	// This test runs inside "go test", so IsDevRun() must report true.
	assert.True(t, platform.IsDevRun())
}
