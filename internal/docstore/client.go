package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Ensure Client implements Store at compile time.
var _ Store = (*Client)(nil)

// Client talks to a larderd document server over HTTP.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	token     string
	userAgent string
}

const (
	defaultServerBind = "127.0.0.1:7433"
	defaultUserAgent  = "larder/0.1"
	requestTimeout    = 10 * time.Second
	watchWait         = 25 * time.Second
)

// NewClient builds a Client for the given host:port or URL. The token is
// sent as a bearer credential on every request; pass "" for unauthenticated
// shared-scope sessions.
func NewClient(serverBind, token string) (*Client, error) {
	base, err := parseBaseURL(serverBind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			// Watch requests hold the connection open for watchWait, so
			// the client timeout must comfortably exceed it.
			Timeout: watchWait + requestTimeout,
		},
		token:     token,
		userAgent: defaultUserAgent,
	}, nil
}

// snapshotEnvelope mirrors the server's document payload.
type snapshotEnvelope struct {
	Revision uint64 `json:"revision"`
	Doc      Patch  `json:"doc"`
}

// Get reads the document at path.
func (c *Client) Get(ctx context.Context, path Path) (Snapshot, error) {
	if c == nil {
		return Snapshot{}, fmt.Errorf("client is nil")
	}
	if err := path.Validate(); err != nil {
		return Snapshot{}, err
	}
	var payload snapshotEnvelope
	rel := &url.URL{Path: path.String()}
	if err := c.do(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Patch: payload.Doc, Revision: payload.Revision}, nil
}

// Merge writes the present fields of patch to the document at path.
func (c *Client) Merge(ctx context.Context, path Path, patch Patch) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if err := path.Validate(); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}
	rel := &url.URL{Path: path.String()}
	return c.do(ctx, http.MethodPatch, rel, patch, nil)
}

// Watch long-polls the document at path until its revision exceeds since or
// the server's wait window elapses, then returns the current snapshot.
func (c *Client) Watch(ctx context.Context, path Path, since uint64) (Snapshot, error) {
	if c == nil {
		return Snapshot{}, fmt.Errorf("client is nil")
	}
	if err := path.Validate(); err != nil {
		return Snapshot{}, err
	}
	values := url.Values{}
	values.Set("since", strconv.FormatUint(since, 10))
	values.Set("wait_ms", strconv.Itoa(int(watchWait/time.Millisecond)))
	rel := &url.URL{Path: path.String(), RawQuery: values.Encode()}

	var payload snapshotEnvelope
	if err := c.do(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Patch: payload.Doc, Revision: payload.Revision}, nil
}

func (c *Client) do(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("store %s %s: %w", method, rel.Path, ErrPermissionDenied)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("store %s %s: %w", method, rel.Path, ErrNotFound)
	case resp.StatusCode >= 400:
		return fmt.Errorf("store %s %s returned status %d", method, rel.Path, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(serverBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(serverBind)
	if trimmed == "" {
		trimmed = defaultServerBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server address %q: %w", serverBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
