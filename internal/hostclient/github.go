// Package hostclient queries the hosted-repository service for repository metadata.
package hostclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-github/v76/github"
	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
)

// DefaultHost is the host of public GitHub remotes.
const DefaultHost = "github.com"

// GitHubClient implements contract.RepoHost with the GitHub REST API.
type GitHubClient struct {
	client  *github.Client
	host    string
	timeout time.Duration
}

var _ contract.RepoHost = &GitHubClient{} // Compile-time check

// NewGitHubClient creates a client. An empty token queries anonymously; a non-empty
// apiURL points the client and remote matching at a GitHub Enterprise server.
func NewGitHubClient(token, apiURL string, timeout time.Duration) (*GitHubClient, error) {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	host := DefaultHost
	if apiURL != "" {
		u, err := url.Parse(apiURL)
		if err != nil || u.Host == "" {
			return nil, &contract.ConfigurationError{Field: "github-api-url", Message: fmt.Sprintf("invalid URL %q", apiURL)}
		}
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, &contract.ConfigurationError{Field: "github-api-url", Message: err.Error()}
		}
		host = u.Hostname()
	}

	return &GitHubClient{client: client, host: host, timeout: timeout}, nil
}

// Host returns the host name remotes must point at.
func (c *GitHubClient) Host() string {
	return c.host
}

// ResolveRemote maps a git remote URL on this host to owner and repository.
func (c *GitHubClient) ResolveRemote(remoteURL string) (schema.RepoIdentifier, error) {
	return ParseRemoteURL(remoteURL, c.host)
}

// GetRepoMetadata fetches stars, owner login and open issue count.
// GitHub counts open pull requests as issues, and so does this.
func (c *GitHubClient) GetRepoMetadata(ctx context.Context, id schema.RepoIdentifier) (schema.RepoMetadata, error) {
	endpoint := fmt.Sprintf("repos/%s", id)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	repo, _, err := c.client.Repositories.Get(ctx, id.Owner, id.Repo)
	if err != nil {
		return schema.RepoMetadata{}, classifyError(endpoint, err)
	}

	owner := repo.GetOwner()
	switch {
	case owner == nil || owner.Login == nil:
		return schema.RepoMetadata{}, missingField(endpoint, "owner.login")
	case repo.StargazersCount == nil:
		return schema.RepoMetadata{}, missingField(endpoint, "stargazers_count")
	case repo.OpenIssuesCount == nil:
		return schema.RepoMetadata{}, missingField(endpoint, "open_issues_count")
	}

	return schema.RepoMetadata{
		Owner:      owner.GetLogin(),
		Stars:      repo.GetStargazersCount(),
		OpenIssues: repo.GetOpenIssuesCount(),
	}, nil
}

func missingField(endpoint, field string) error {
	return &contract.RemoteMetadataError{
		Endpoint: endpoint,
		Message:  "response is missing " + field,
		Err:      contract.ErrMalformedResponse,
	}
}

// classifyError converts go-github failures into RemoteMetadataError.
func classifyError(endpoint string, err error) error {
	remoteErr := &contract.RemoteMetadataError{Endpoint: endpoint, Err: err}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var respErr *github.ErrorResponse
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &rateErr):
		remoteErr.StatusCode = statusOf(rateErr.Response)
		remoteErr.Message = "rate limit exceeded; set github-token or GITHUB_TOKEN"
	case errors.As(err, &abuseErr):
		remoteErr.StatusCode = statusOf(abuseErr.Response)
		remoteErr.Message = abuseErr.Message
	case errors.As(err, &respErr):
		remoteErr.StatusCode = statusOf(respErr.Response)
		remoteErr.Message = respErr.Message
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		remoteErr.Message = "response is not valid repository JSON"
		remoteErr.Err = fmt.Errorf("%w: %w", contract.ErrMalformedResponse, err)
	}
	return remoteErr
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
