package integration_tests

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

// prebuiltBinary holds the path to the scaffold binary built for this test run.
var (
	prebuiltBinary string
	buildOnce      sync.Once
	errBuild       error
)

// ensureBinary builds the scaffold binary once on first call.
// Subsequent calls return immediately.
func ensureBinary() (string, error) {
	buildOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		baseFolder := filepath.Join(filepath.Dir(filename), "..")
		// Use PID to avoid collision between parallel test runs on the same machine
		binaryName := fmt.Sprintf("scaffold-test-binary-%d", os.Getpid())
		if runtime.GOOS == "windows" {
			binaryName += ".exe"
		}
		binaryPath := filepath.Join(os.TempDir(), binaryName)

		buildCmd := exec.Command("go", "build", "-o", binaryPath, filepath.Join(baseFolder, "main.go"))
		buildCmd.Dir = baseFolder
		buildCmd.Stdout = os.Stdout
		buildCmd.Stderr = os.Stderr
		if err := buildCmd.Run(); err != nil {
			errBuild = fmt.Errorf("failed to pre-build scaffold binary: %w", err)
			return
		}
		prebuiltBinary = binaryPath
	})
	return prebuiltBinary, errBuild
}

// Entrypoint for CLI integration tests
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup must happen before os.Exit (defer is not executed with os.Exit)
	if prebuiltBinary != "" {
		os.Remove(prebuiltBinary)
	}

	os.Exit(code)
}
