package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const testRemote = "git@github.com:octo/hello.git"

var testID = schema.RepoIdentifier{Owner: "octo", Repo: "hello"}

// stubRepo sets up a repository with three commits ten days apart.
func stubRepo(git *contract.MockGitClient, path string) {
	first := testNow.AddDate(0, 0, -30)
	git.On("GetRootCommitTimes", mock.Anything, path).Return([]time.Time{first}, nil)
	git.On("GetCommitTimes", mock.Anything, path).Return([]time.Time{
		testNow.AddDate(0, 0, -10), testNow.AddDate(0, 0, -20), first,
	}, nil)
	git.On("GetAuthors", mock.Anything, path).Return([]string{"ann", "bob", "ann"}, nil)
	git.On("GetCommitCount", mock.Anything, path).Return(3, nil)
	git.On("ListTrackedFiles", mock.Anything, path).Return([]string{"main.go", "README.md"}, nil)
	git.On("CountFileLines", mock.Anything, path, "main.go").Return(120, nil)
	git.On("CountFileLines", mock.Anything, path, "README.md").Return(30, nil)
	git.On("GetRemoteURL", mock.Anything, path, "origin").Return(testRemote, nil)
}

func stubHost(host *contract.MockRepoHost) {
	host.On("ResolveRemote", testRemote).Return(testID, nil)
	host.On("GetRepoMetadata", mock.Anything, testID).Return(schema.RepoMetadata{Owner: "octo", Stars: 42, OpenIssues: 7}, nil)
}

func newTestCollector(git contract.GitClient, host contract.RepoHost, allowMissing bool) *Collector {
	c := NewCollector(git, host, allowMissing)
	c.now = func() time.Time { return testNow }
	return c
}

func TestCollect(t *testing.T) {
	git := &contract.MockGitClient{}
	host := &contract.MockRepoHost{}
	stubRepo(git, "/repo")
	stubHost(host)

	got, err := newTestCollector(git, host, false).Collect(context.Background(), "/repo")
	require.NoError(t, err)

	assert.InDelta(t, 30.0, got.Raw.AgeDays, 1e-9)
	assert.InDelta(t, 10.0, got.Raw.UpdateFrequencyDays, 1e-9)
	assert.Equal(t, 2, got.Raw.ContributorCount)
	assert.Equal(t, 3, got.Raw.CommitCount)
	assert.Equal(t, 150, got.Raw.LinesOfCode)
	assert.Equal(t, 42, got.Raw.Stars)
	assert.Equal(t, 7, got.Raw.OpenIssues)
	assert.Equal(t, "octo", got.Owner)
	git.AssertExpectations(t)
	host.AssertExpectations(t)
}

func TestCollect_SingleCommit(t *testing.T) {
	git := &contract.MockGitClient{}
	host := &contract.MockRepoHost{}
	git.On("GetRootCommitTimes", mock.Anything, "/one").Return([]time.Time{testNow.Add(-12 * time.Hour)}, nil)
	git.On("GetCommitTimes", mock.Anything, "/one").Return([]time.Time{testNow.Add(-12 * time.Hour)}, nil)
	git.On("GetAuthors", mock.Anything, "/one").Return([]string{"ann"}, nil)
	git.On("GetCommitCount", mock.Anything, "/one").Return(1, nil)
	git.On("ListTrackedFiles", mock.Anything, "/one").Return([]string{}, nil)
	git.On("GetRemoteURL", mock.Anything, "/one", "origin").Return(testRemote, nil)
	stubHost(host)

	got, err := newTestCollector(git, host, false).Collect(context.Background(), "/one")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Raw.UpdateFrequencyDays)
	assert.InDelta(t, 0.5, got.Raw.AgeDays, 1e-9)
	assert.Equal(t, 1, got.Raw.ContributorCount)
	assert.Equal(t, 0, got.Raw.LinesOfCode)
}

func TestCollect_LinesOfCodeSkipsUnreadableFiles(t *testing.T) {
	git := &contract.MockGitClient{}
	host := &contract.MockRepoHost{}
	path := "/bin-repo"
	git.On("GetRootCommitTimes", mock.Anything, path).Return([]time.Time{testNow}, nil)
	git.On("GetCommitTimes", mock.Anything, path).Return([]time.Time{testNow}, nil)
	git.On("GetAuthors", mock.Anything, path).Return([]string{"ann"}, nil)
	git.On("GetCommitCount", mock.Anything, path).Return(1, nil)
	git.On("ListTrackedFiles", mock.Anything, path).Return([]string{"a.go", "gone.txt", "b.go"}, nil)
	git.On("CountFileLines", mock.Anything, path, "a.go").Return(10, nil)
	git.On("CountFileLines", mock.Anything, path, "gone.txt").Return(0, errors.New("no such file"))
	git.On("CountFileLines", mock.Anything, path, "b.go").Return(5, nil)
	git.On("GetRemoteURL", mock.Anything, path, "origin").Return(testRemote, nil)
	stubHost(host)

	got, err := newTestCollector(git, host, false).Collect(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Raw.LinesOfCode)
}

func TestCollect_GitFailure(t *testing.T) {
	git := &contract.MockGitClient{}
	host := &contract.MockRepoHost{}
	path := "/broken"
	cmdErr := &contract.CommandExecutionError{Command: "git log", Err: errors.New("exit status 128")}
	git.On("GetRootCommitTimes", mock.Anything, path).Return(nil, cmdErr)
	git.On("GetCommitTimes", mock.Anything, path).Return(nil, cmdErr).Maybe()
	git.On("GetAuthors", mock.Anything, path).Return(nil, cmdErr).Maybe()
	git.On("GetCommitCount", mock.Anything, path).Return(0, cmdErr).Maybe()
	git.On("ListTrackedFiles", mock.Anything, path).Return(nil, cmdErr).Maybe()
	git.On("GetRemoteURL", mock.Anything, path, "origin").Return(testRemote, nil).Maybe()
	host.On("ResolveRemote", testRemote).Return(testID, nil).Maybe()
	host.On("GetRepoMetadata", mock.Anything, testID).Return(schema.RepoMetadata{}, nil).Maybe()

	_, err := newTestCollector(git, host, false).Collect(context.Background(), path)
	var target *contract.CommandExecutionError
	assert.ErrorAs(t, err, &target)
}

func TestCollect_RemoteFailure(t *testing.T) {
	remoteErr := &contract.RemoteMetadataError{Endpoint: "repos/octo/hello", StatusCode: 404, Message: "Not Found"}

	t.Run("fails the repository", func(t *testing.T) {
		git := &contract.MockGitClient{}
		host := &contract.MockRepoHost{}
		stubRepo(git, "/repo")
		host.On("ResolveRemote", testRemote).Return(testID, nil)
		host.On("GetRepoMetadata", mock.Anything, testID).Return(schema.RepoMetadata{}, remoteErr)

		_, err := newTestCollector(git, host, false).Collect(context.Background(), "/repo")
		var target *contract.RemoteMetadataError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, 404, target.StatusCode)
	})

	t.Run("allow missing remote substitutes zeros", func(t *testing.T) {
		git := &contract.MockGitClient{}
		host := &contract.MockRepoHost{}
		stubRepo(git, "/repo")
		host.On("ResolveRemote", testRemote).Return(testID, nil)
		host.On("GetRepoMetadata", mock.Anything, testID).Return(schema.RepoMetadata{}, remoteErr)

		got, err := newTestCollector(git, host, true).Collect(context.Background(), "/repo")
		require.NoError(t, err)
		assert.Equal(t, 0, got.Raw.Stars)
		assert.Equal(t, 0, got.Raw.OpenIssues)
		assert.Empty(t, got.Owner)
		assert.Equal(t, 3, got.Raw.CommitCount)
	})

	t.Run("missing origin is malformed", func(t *testing.T) {
		git := &contract.MockGitClient{}
		stubRepoWithoutRemote(git, "/local")

		_, err := newTestCollector(git, &contract.MockRepoHost{}, false).Collect(context.Background(), "/local")
		var target *contract.RemoteMetadataError
		require.ErrorAs(t, err, &target)
		assert.True(t, target.IsMalformed())
	})

	t.Run("no host configured", func(t *testing.T) {
		git := &contract.MockGitClient{}
		stubRepo(git, "/repo")
		_, err := newTestCollector(git, nil, false).Collect(context.Background(), "/repo")
		var target *contract.RemoteMetadataError
		assert.ErrorAs(t, err, &target)
	})
}

func stubRepoWithoutRemote(git *contract.MockGitClient, path string) {
	git.On("GetRootCommitTimes", mock.Anything, path).Return([]time.Time{testNow}, nil)
	git.On("GetCommitTimes", mock.Anything, path).Return([]time.Time{testNow}, nil)
	git.On("GetAuthors", mock.Anything, path).Return([]string{"ann"}, nil)
	git.On("GetCommitCount", mock.Anything, path).Return(1, nil)
	git.On("ListTrackedFiles", mock.Anything, path).Return([]string{}, nil)
	git.On("GetRemoteURL", mock.Anything, path, "origin").Return("", &contract.CommandExecutionError{
		Command: "git remote get-url origin", Err: errors.New("exit status 2"),
	})
}

func TestUpdateFrequencyDays(t *testing.T) {
	day := 24 * time.Hour
	tests := []struct {
		name  string
		times []time.Time
		want  float64
	}{
		{name: "none", want: 0},
		{name: "one", times: []time.Time{testNow}, want: 0},
		{name: "two a day apart", times: []time.Time{testNow, testNow.Add(-day)}, want: 1},
		{name: "unsorted", times: []time.Time{testNow.Add(-4 * day), testNow, testNow.Add(-2 * day)}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, updateFrequencyDays(tt.times), 1e-9)
		})
	}
}

func TestAgeDaysUsesEarliestRoot(t *testing.T) {
	roots := []time.Time{testNow.AddDate(0, 0, -2), testNow.AddDate(0, 0, -5)}
	assert.InDelta(t, 5.0, ageDays(roots, testNow), 1e-9)
	assert.Equal(t, 0.0, ageDays(nil, testNow))
}

func TestDistinctCount(t *testing.T) {
	assert.Equal(t, 2, distinctCount([]string{"a", "b", "a", ""}))
	assert.Equal(t, 0, distinctCount(nil))
}
