package client

import (
	"context"
	"fmt"
)

type authURLResponse struct {
	URL string `json:"url"`
}

type authStatusResponse struct {
	Authenticated bool `json:"authenticated"`
}

type leadCountResponse struct {
	Count int `json:"count"`
}

// AuthURL returns the Google OAuth consent URL for connecting the Sheets account.
func (c *Client) AuthURL(ctx context.Context) (string, error) {
	var resp authURLResponse
	if err := c.getJSON(ctx, "/api/auth/url", "fetch auth url", &resp); err != nil {
		return "", err
	}

	if resp.URL == "" {
		return "", fmt.Errorf("backend returned an empty auth url")
	}

	return resp.URL, nil
}

// AuthStatus reports whether the backend holds valid Google credentials.
func (c *Client) AuthStatus(ctx context.Context) (bool, error) {
	var resp authStatusResponse
	if err := c.getJSON(ctx, "/api/auth/status", "fetch auth status", &resp); err != nil {
		return false, err
	}

	return resp.Authenticated, nil
}

// LeadCount returns the number of leads currently stored in the sheet.
func (c *Client) LeadCount(ctx context.Context) (int, error) {
	var resp leadCountResponse
	if err := c.getJSON(ctx, "/api/auth/status/leads", "fetch lead count", &resp); err != nil {
		return 0, err
	}

	if resp.Count < 0 {
		return 0, fmt.Errorf("backend returned a negative lead count: %d", resp.Count)
	}

	return resp.Count, nil
}
