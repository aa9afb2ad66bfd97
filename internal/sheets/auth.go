package sheets

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2/google"
)

// ReadOnlyScope grants read access to spreadsheets.
const ReadOnlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"

// ServiceAccountHTTPClient returns an HTTP client that authorizes requests
// with the service account key file at path. Tokens are fetched and
// refreshed on demand. Private spreadsheets shared with the service
// account's email need this; public ones only need an API key.
func ServiceAccountHTTPClient(ctx context.Context, path string, timeout time.Duration) (*http.Client, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", path, err)
	}
	conf, err := google.JWTConfigFromJSON(data, ReadOnlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", path, err)
	}
	hc := conf.Client(ctx)
	hc.Timeout = timeout
	return hc, nil
}

// WithHTTPClient replaces the client used for requests, e.g. one from
// ServiceAccountHTTPClient.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}
