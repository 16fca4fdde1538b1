//go:build integration || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedSosigPath holds the path to a shared sosig binary built once for all tests.
	sharedSosigPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getSosigBinary returns the path to the sosig binary, building it once if needed.
func getSosigBinary() string {
	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "sosig-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		sosigPath := filepath.Join(tempDir, "sosig")
		buildCmd := exec.Command("go", "build", "-o", sosigPath, ".")
		buildCmd.Dir = ".." // Build from project root
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build sosig: %v\n%s", err, out))
		}

		sharedSosigPath = sosigPath
	})

	return sharedSosigPath
}

// runSosig runs the binary in dir and returns its stdout.
func runSosig(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getSosigBinary(), args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var stderr []byte
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = exitErr.Stderr
		}
		t.Logf("Command failed: %s\nStdout: %s\nStderr: %s", cmd.String(), out, stderr)
	}
	return string(out), err
}

// initRepo creates a git repository with the given number of commits and no remote.
func initRepo(t *testing.T, commits int) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	git := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Ada", "GIT_AUTHOR_EMAIL=ada@example.com",
			"GIT_COMMITTER_NAME=Ada", "GIT_COMMITTER_EMAIL=ada@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	git("init", "-q")
	for i := range commits {
		name := filepath.Join(dir, fmt.Sprintf("file%d.txt", i))
		require.NoError(t, os.WriteFile(name, []byte("one\ntwo\n"), 0o644))
		git("add", ".")
		git("commit", "-q", "-m", fmt.Sprintf("commit %d", i))
	}
	return dir
}
