package contract

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfGitNotAvailable skips the test if git binary is not found in PATH
func skipIfGitNotAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
}

// initTestRepo creates a throwaway repository with the given commits.
// Each commit writes its file content and is dated at the given unix time.
func initTestRepo(t *testing.T, commits []testCommit) string {
	t.Helper()
	dir := t.TempDir()
	git := func(env []string, args ...string) {
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = append(os.Environ(), env...)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	git(nil, "init", "-q")
	git(nil, "config", "user.email", "dev@example.com")
	git(nil, "config", "user.name", "Dev")
	git(nil, "config", "commit.gpgsign", "false")

	for _, c := range commits {
		require.NoError(t, os.WriteFile(filepath.Join(dir, c.file), []byte(c.content), 0o644))
		git(nil, "add", c.file)
		date := time.Unix(c.unix, 0).UTC().Format(time.RFC3339)
		env := []string{
			"GIT_AUTHOR_DATE=" + date,
			"GIT_COMMITTER_DATE=" + date,
			"GIT_AUTHOR_NAME=" + c.author,
			"GIT_COMMITTER_NAME=" + c.author,
		}
		git(env, "commit", "-q", "-m", "commit "+c.file)
	}
	return dir
}

type testCommit struct {
	file    string
	content string
	author  string
	unix    int64
}

func TestMockGitClient_Run(t *testing.T) {
	mockClient := new(MockGitClient)
	ctx := context.Background()
	expectedOutput := []byte("a1b2c3d commit message")
	expectedError := errors.New("mocked git error")

	mockClient.On("Run", ctx, "/path/to/repo", "log", "-1", "--oneline").
		Return(expectedOutput, expectedError).
		Once()

	out, err := mockClient.Run(ctx, "/path/to/repo", "log", "-1", "--oneline")
	assert.Equal(t, expectedOutput, out)
	assert.Equal(t, expectedError, err)
	mockClient.AssertExpectations(t)
}

func TestNewLocalGitClient(t *testing.T) {
	client := NewLocalGitClient(time.Second)
	assert.NotNil(t, client)
	assert.Equal(t, time.Second, client.timeout)
}

func TestLocalGitClient_RunErrors(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient(10 * time.Second)
	ctx := context.Background()
	repo := initTestRepo(t, []testCommit{{"a.txt", "a\n", "Ann", 1_600_000_000}})

	t.Run("invalid repo path", func(t *testing.T) {
		_, err := client.Run(ctx, filepath.Join(t.TempDir(), "missing"), "status")
		var cmdErr *CommandExecutionError
		require.ErrorAs(t, err, &cmdErr)
		assert.Contains(t, cmdErr.Command, "git -C")
		assert.NotEmpty(t, cmdErr.Stderr)
	})

	t.Run("invalid git command", func(t *testing.T) {
		_, err := client.Run(ctx, repo, "definitely-not-a-command")
		var cmdErr *CommandExecutionError
		require.ErrorAs(t, err, &cmdErr)
		assert.Contains(t, cmdErr.Command, "definitely-not-a-command")
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := client.Run(cancelled, repo, "status")
		var cmdErr *CommandExecutionError
		require.ErrorAs(t, err, &cmdErr)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLocalGitClient_History(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient(10 * time.Second)
	ctx := context.Background()
	repo := initTestRepo(t, []testCommit{
		{"a.txt", "one\ntwo\n", "Ann", 1_600_000_000},
		{"b.txt", "three\n", "Bob", 1_600_086_400},
		{"a.txt", "one\ntwo\nfour\n", "Ann", 1_600_172_800},
	})

	roots, err := client.GetRootCommitTimes(ctx, repo)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, int64(1_600_000_000), roots[0].Unix())

	times, err := client.GetCommitTimes(ctx, repo)
	require.NoError(t, err)
	require.Len(t, times, 3)
	assert.Equal(t, int64(1_600_172_800), times[0].Unix())

	authors, err := client.GetAuthors(ctx, repo)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Ann", "Bob", "Ann"}, authors)

	count, err := client.GetCommitCount(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	files, err := client.ListTrackedFiles(ctx, repo)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, files)

	lines, err := client.CountFileLines(ctx, repo, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, 3, lines)

	_, err = client.CountFileLines(ctx, repo, "missing.txt")
	assert.Error(t, err)

	root, err := client.GetRepoRoot(ctx, repo)
	require.NoError(t, err)
	resolvedRepo, _ := filepath.EvalSymlinks(repo)
	resolvedRoot, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, resolvedRepo, resolvedRoot)
}

func TestLocalGitClient_GetRemoteURL(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient(10 * time.Second)
	ctx := context.Background()
	repo := initTestRepo(t, []testCommit{{"a.txt", "a\n", "Ann", 1_600_000_000}})

	_, err := client.GetRemoteURL(ctx, repo, "origin")
	assert.Error(t, err, "repository without origin should fail")

	_, err = client.Run(ctx, repo, "remote", "add", "origin", "git@github.com:octo/hello.git")
	require.NoError(t, err)

	url, err := client.GetRemoteURL(ctx, repo, "origin")
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:octo/hello.git", url)
}

func TestParseUnixLines(t *testing.T) {
	times, err := parseUnixLines([]byte("100\n\n200\n"))
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.Equal(t, int64(200), times[1].Unix())

	_, err = parseUnixLines([]byte("abc\n"))
	assert.Error(t, err)
}
