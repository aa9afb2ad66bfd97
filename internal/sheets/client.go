// Package sheets reads cell ranges from the Google Sheets v4 REST API.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://sheets.googleapis.com/v4"

// APIError is a non-2xx response from the Sheets API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sheets API error %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("sheets API error %d", e.StatusCode)
}

// Client fetches values from one spreadsheet.
type Client struct {
	baseURL       string
	spreadsheetID string
	apiKey        string
	httpClient    *http.Client
}

// NewClient creates a Sheets client. An empty baseURL uses the public
// endpoint; timeout bounds each request.
func NewClient(baseURL, spreadsheetID, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		spreadsheetID: spreadsheetID,
		apiKey:        apiKey,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

type valueRange struct {
	Range  string     `json:"range"`
	Values [][]string `json:"values"`
}

type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Values returns the rows of an A1-notation range. Trailing empty cells
// are omitted by the API, so rows may be ragged.
func (c *Client) Values(ctx context.Context, a1Range string) ([][]string, error) {
	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(a1Range))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create sheets request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-goog-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheets request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read sheets response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			apiErr.Status = eb.Error.Status
			apiErr.Message = eb.Error.Message
		}
		return nil, apiErr
	}

	var vr valueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("decode sheets response: %w", err)
	}
	return vr.Values, nil
}
