package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"stocktracker/internal/watchlist"
)

var _ watchlist.Store = (*BackendAPIClient)(nil)

// List retrieves every entry of the watchlist collection.
func (c *BackendAPIClient) List(ctx context.Context) ([]watchlist.Entry, error) {
	url := fmt.Sprintf("%s/watchlist", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	if !isSuccess(res.StatusCode) {
		return nil, fmt.Errorf("GET /watchlist: %w: %d", ErrUnexpectedStatus, res.StatusCode)
	}

	var entries []watchlist.Entry
	if err := json.NewDecoder(res.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding watchlist response: %w", err)
	}
	if entries == nil {
		entries = []watchlist.Entry{}
	}
	return entries, nil
}

// Append adds entries to the watchlist collection. The response body is
// not part of the contract; only the status is checked.
func (c *BackendAPIClient) Append(ctx context.Context, entries []watchlist.Entry) error {
	body, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding entries: %w", err)
	}

	url := fmt.Sprintf("%s/watchlist", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4<<10))

	if !isSuccess(res.StatusCode) {
		return fmt.Errorf("POST /watchlist: %w: %d", ErrUnexpectedStatus, res.StatusCode)
	}
	return nil
}
