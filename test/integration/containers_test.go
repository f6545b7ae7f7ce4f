package integration

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// requireContainers skips t unless a Docker or Podman socket is present
func requireContainers(t *testing.T) {
	t.Helper()
	if os.Getenv("DOCKER_HOST") != "" {
		return
	}
	candidates := []string{"/var/run/docker.sock"}
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		candidates = append(candidates, filepath.Join(runtimeDir, "podman", "podman.sock"))
	} else if uid := os.Getuid(); uid > 0 {
		candidates = append(candidates, "/run/user/"+strconv.Itoa(uid)+"/podman/podman.sock")
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return
		}
	}
	t.Skip("container runtime not available; skipping container-based integration test")
}
