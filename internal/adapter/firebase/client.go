// Package firebase implements the mirror store on the Firebase Realtime
// Database REST API.
package firebase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-events-service/internal/domain"
	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"
)

// Client implements domain.Mirror against one database path.
type Client struct {
	http   *resty.Client
	tokens *tokenSource // nil sends unauthenticated requests
	path   string
	logger *slog.Logger
}

// NewClient creates a Realtime Database client for databaseURL. Records live
// under path (e.g. "events"). Pass nil creds for the emulator or open rules.
func NewClient(databaseURL, path string, creds *Credentials, timeout time.Duration, logger *slog.Logger) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(databaseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		path:   "/" + strings.Trim(path, "/") + ".json",
		logger: logger.With("component", "firebase"),
	}
	if creds != nil {
		c.tokens = newTokenSource(creds, timeout, clockwork.NewRealClock())
	}
	return c
}

// Open creates a client, loading the service-account key at credentialsPath.
// An empty credentialsPath yields an unauthenticated client.
func Open(databaseURL, path, credentialsPath string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if credentialsPath == "" {
		return NewClient(databaseURL, path, nil, timeout, logger), nil
	}
	creds, err := LoadCredentials(credentialsPath)
	if err != nil {
		return nil, err
	}
	return NewClient(databaseURL, path, creds, timeout, logger), nil
}

// Authenticated reports whether requests carry an OAuth2 access token.
func (c *Client) Authenticated() bool { return c.tokens != nil }

type pushResponse struct {
	Name string `json:"name"`
}

// Append pushes record under the configured path and returns the generated push key.
func (c *Client) Append(ctx context.Context, record domain.MirrorRecord) (string, error) {
	req, err := c.request(ctx)
	if err != nil {
		return "", err
	}

	resp, err := req.SetBody(record).Post(c.path)
	if err != nil {
		return "", fmt.Errorf("firebase push: %w", err)
	}
	if resp.IsError() {
		return "", apiError("push", resp)
	}

	var pr pushResponse
	if err := json.Unmarshal(resp.Body(), &pr); err != nil {
		return "", fmt.Errorf("decode push response: %w", err)
	}
	return pr.Name, nil
}

// List fetches every record under the configured path. Children that are not
// JSON objects are skipped.
func (c *Client) List(ctx context.Context) (map[string]domain.MirrorRecord, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := req.Get(c.path)
	if err != nil {
		return nil, fmt.Errorf("firebase get: %w", err)
	}
	if resp.IsError() {
		return nil, apiError("get", resp)
	}

	// An absent path is returned as null and decodes to a nil map.
	var children map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &children); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	records := make(map[string]domain.MirrorRecord, len(children))
	for key, raw := range children {
		var rec domain.MirrorRecord
		if err := json.Unmarshal(raw, &rec); err != nil || rec == nil {
			c.logger.Debug("skipping non-object child", "key", key)
			continue
		}
		records[key] = rec
	}
	return records, nil
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	req := c.http.R().SetContext(ctx)
	if c.tokens == nil {
		return req, nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}
	return req.SetQueryParam("access_token", token), nil
}

// apiError extracts the {"error": "..."} message the REST API returns on failure.
func apiError(op string, resp *resty.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		return fmt.Errorf("firebase %s: status %d: %s", op, resp.StatusCode(), body.Error)
	}
	return fmt.Errorf("firebase %s: status %d: %s", op, resp.StatusCode(), resp.String())
}
