package contract

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/will-wright-eng/social-signals/schema"
)

// MockGitClient is a mock implementation of GitClient for testing.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Run implements the GitClient interface.
func (m *MockGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	callArgs := []any{ctx, repoPath}
	for _, a := range args {
		callArgs = append(callArgs, a)
	}
	ret := m.Called(callArgs...)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

// GetRepoRoot implements the GitClient interface.
func (m *MockGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	ret := m.Called(ctx, contextPath)
	return ret.String(0), ret.Error(1)
}

// GetRootCommitTimes implements the GitClient interface.
func (m *MockGitClient) GetRootCommitTimes(ctx context.Context, repoPath string) ([]time.Time, error) {
	ret := m.Called(ctx, repoPath)
	times, _ := ret.Get(0).([]time.Time)
	return times, ret.Error(1)
}

// GetCommitTimes implements the GitClient interface.
func (m *MockGitClient) GetCommitTimes(ctx context.Context, repoPath string) ([]time.Time, error) {
	ret := m.Called(ctx, repoPath)
	times, _ := ret.Get(0).([]time.Time)
	return times, ret.Error(1)
}

// GetAuthors implements the GitClient interface.
func (m *MockGitClient) GetAuthors(ctx context.Context, repoPath string) ([]string, error) {
	ret := m.Called(ctx, repoPath)
	authors, _ := ret.Get(0).([]string)
	return authors, ret.Error(1)
}

// GetCommitCount implements the GitClient interface.
func (m *MockGitClient) GetCommitCount(ctx context.Context, repoPath string) (int, error) {
	ret := m.Called(ctx, repoPath)
	return ret.Int(0), ret.Error(1)
}

// ListTrackedFiles implements the GitClient interface.
func (m *MockGitClient) ListTrackedFiles(ctx context.Context, repoPath string) ([]string, error) {
	ret := m.Called(ctx, repoPath)
	files, _ := ret.Get(0).([]string)
	return files, ret.Error(1)
}

// CountFileLines implements the GitClient interface.
func (m *MockGitClient) CountFileLines(ctx context.Context, repoPath string, file string) (int, error) {
	ret := m.Called(ctx, repoPath, file)
	return ret.Int(0), ret.Error(1)
}

// GetRemoteURL implements the GitClient interface.
func (m *MockGitClient) GetRemoteURL(ctx context.Context, repoPath string, remote string) (string, error) {
	ret := m.Called(ctx, repoPath, remote)
	return ret.String(0), ret.Error(1)
}

// MockRepoHost is a mock implementation of RepoHost for testing.
type MockRepoHost struct {
	mock.Mock
}

var _ RepoHost = &MockRepoHost{} // Compile-time check

// ResolveRemote implements the RepoHost interface.
func (m *MockRepoHost) ResolveRemote(remoteURL string) (schema.RepoIdentifier, error) {
	ret := m.Called(remoteURL)
	id, _ := ret.Get(0).(schema.RepoIdentifier)
	return id, ret.Error(1)
}

// GetRepoMetadata implements the RepoHost interface.
func (m *MockRepoHost) GetRepoMetadata(ctx context.Context, id schema.RepoIdentifier) (schema.RepoMetadata, error) {
	ret := m.Called(ctx, id)
	meta, _ := ret.Get(0).(schema.RepoMetadata)
	return meta, ret.Error(1)
}
