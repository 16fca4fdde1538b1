package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct {
	timeout time.Duration // per-command bound, zero means unbounded
}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
// Each command is killed once timeout elapses; zero disables the bound.
func NewLocalGitClient(timeout time.Duration) *LocalGitClient {
	return &LocalGitClient{timeout: timeout}
}

// Run executes a git command and returns its stdout output.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	fullArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}

	cmdErr := &CommandExecutionError{
		Command: "git " + strings.Join(fullArgs, " "),
		Stderr:  strings.TrimSpace(stderr.String()),
		Err:     err,
	}
	var exitErr *exec.ExitError
	switch ctxErr := ctx.Err(); {
	case errors.Is(ctxErr, context.DeadlineExceeded):
		cmdErr.Err = fmt.Errorf("timed out after %s: %w", c.timeout, ctxErr)
	case ctxErr != nil:
		cmdErr.Err = ctxErr
	case !errors.As(err, &exitErr):
		cmdErr.Err = fmt.Errorf("%w. Ensure Git is installed and available on your PATH", err)
	}
	return nil, cmdErr
}

// GetRepoRoot implements the GitClient interface.
func (c *LocalGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	out, err := c.Run(ctx, contextPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetRootCommitTimes implements the GitClient interface.
func (c *LocalGitClient) GetRootCommitTimes(ctx context.Context, repoPath string) ([]time.Time, error) {
	out, err := c.Run(ctx, repoPath, "log", "--max-parents=0", "--format=%ct", "HEAD")
	if err != nil {
		return nil, err
	}
	return parseUnixLines(out)
}

// GetCommitTimes implements the GitClient interface.
func (c *LocalGitClient) GetCommitTimes(ctx context.Context, repoPath string) ([]time.Time, error) {
	out, err := c.Run(ctx, repoPath, "log", "--format=%ct", "HEAD")
	if err != nil {
		return nil, err
	}
	return parseUnixLines(out)
}

// GetAuthors implements the GitClient interface.
func (c *LocalGitClient) GetAuthors(ctx context.Context, repoPath string) ([]string, error) {
	out, err := c.Run(ctx, repoPath, "log", "--all", "--format=%aN")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// GetCommitCount implements the GitClient interface.
func (c *LocalGitClient) GetCommitCount(ctx context.Context, repoPath string) (int, error) {
	out, err := c.Run(ctx, repoPath, "rev-list", "--count", "HEAD")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("unexpected commit count %q: %w", strings.TrimSpace(string(out)), err)
	}
	return n, nil
}

// ListTrackedFiles implements the GitClient interface.
func (c *LocalGitClient) ListTrackedFiles(ctx context.Context, repoPath string) ([]string, error) {
	out, err := c.Run(ctx, repoPath, "ls-files", "-z")
	if err != nil {
		return nil, err
	}
	var files []string
	for f := range bytes.SplitSeq(out, []byte{0}) {
		if len(f) > 0 {
			files = append(files, string(f))
		}
	}
	return files, nil
}

// CountFileLines implements the GitClient interface.
// Lines are counted as newline bytes, so a final line without a newline is not counted.
func (c *LocalGitClient) CountFileLines(ctx context.Context, repoPath string, file string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f, err := os.Open(filepath.Join(repoPath, filepath.FromSlash(file)))
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 64*1024)
	count := 0
	for {
		n, err := f.Read(buf)
		count += bytes.Count(buf[:n], []byte{'\n'})
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// GetRemoteURL implements the GitClient interface.
func (c *LocalGitClient) GetRemoteURL(ctx context.Context, repoPath string, remote string) (string, error) {
	out, err := c.Run(ctx, repoPath, "remote", "get-url", remote)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// splitLines returns the non-empty trimmed lines of out.
func splitLines(out []byte) []string {
	var lines []string
	for line := range strings.SplitSeq(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseUnixLines parses one unix timestamp per line.
func parseUnixLines(out []byte) ([]time.Time, error) {
	lines := splitLines(out)
	times := make([]time.Time, 0, len(lines))
	for _, line := range lines {
		secs, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("unexpected timestamp %q: %w", line, err)
		}
		times = append(times, time.Unix(secs, 0))
	}
	return times, nil
}
