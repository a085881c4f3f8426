package forgejo

import (
	"errors"
	"fmt"

	"code.gitea.io/sdk/gitea"
)

// Client wraps the Forgejo API. Forgejo speaks the Gitea API, so the
// Gitea SDK is used directly.
type Client struct {
	api *gitea.Client
}

// NewClient creates a new Forgejo API client
func NewClient(baseURL, token string) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("Forgejo base URL is required")
	}

	opts := []gitea.ClientOption{}
	if token != "" {
		opts = append(opts, gitea.SetToken(token))
	}

	api, err := gitea.NewClient(baseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Forgejo client: %w", err)
	}

	return &Client{api: api}, nil
}

// ServerVersion reports the version of the connected Forgejo instance
func (c *Client) ServerVersion() (string, error) {
	version, _, err := c.api.ServerVersion()
	if err != nil {
		return "", fmt.Errorf("failed to query server version: %w", err)
	}
	return version, nil
}
