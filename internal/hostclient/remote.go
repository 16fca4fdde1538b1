package hostclient

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
)

// ParseRemoteURL extracts owner and repository from a git remote URL on host.
// It accepts https://host/owner/repo(.git), git@host:owner/repo(.git) and
// ssh://git@host[:port]/owner/repo(.git).
func ParseRemoteURL(remoteURL, host string) (schema.RepoIdentifier, error) {
	raw := strings.TrimSpace(remoteURL)
	if raw == "" {
		return schema.RepoIdentifier{}, malformedRemote(remoteURL, "remote URL is empty")
	}

	var gotHost, repoPath string
	switch {
	case strings.Contains(raw, "://"):
		u, err := url.Parse(raw)
		if err != nil {
			return schema.RepoIdentifier{}, malformedRemote(remoteURL, err.Error())
		}
		gotHost, repoPath = u.Hostname(), u.Path
	case strings.Contains(raw, "@") && strings.Contains(raw, ":"):
		// scp-like syntax: user@host:owner/repo
		userHost, p, _ := strings.Cut(raw, ":")
		_, gotHost, _ = strings.Cut(userHost, "@")
		repoPath = p
	default:
		return schema.RepoIdentifier{}, malformedRemote(remoteURL, "unrecognized remote URL format")
	}

	if !strings.EqualFold(gotHost, host) {
		return schema.RepoIdentifier{}, malformedRemote(remoteURL, fmt.Sprintf("remote host %q is not %s", gotHost, host))
	}

	parts := strings.Split(strings.Trim(repoPath, "/"), "/")
	if len(parts) != 2 {
		return schema.RepoIdentifier{}, malformedRemote(remoteURL, "expected owner/repo path")
	}
	owner, repo := parts[0], strings.TrimSuffix(parts[1], ".git")
	if owner == "" || repo == "" {
		return schema.RepoIdentifier{}, malformedRemote(remoteURL, "expected owner/repo path")
	}
	return schema.RepoIdentifier{Owner: owner, Repo: repo}, nil
}

func malformedRemote(remoteURL, message string) error {
	return &contract.RemoteMetadataError{
		Endpoint: remoteURL,
		Message:  message,
		Err:      contract.ErrMalformedResponse,
	}
}
