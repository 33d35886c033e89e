package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukerupert/shoplist/internal/apperr"
	"github.com/dukerupert/shoplist/internal/grocery"
	"github.com/dukerupert/shoplist/internal/list"
	"github.com/dukerupert/shoplist/internal/model"
)

// ErrTransient marks failures caused by connectivity or server trouble. Operations failing
// this way are kept and retried later.
var ErrTransient = errors.New("transient failure")

// API is the part of the list server the agent talks to.
type API interface {
	ReadList(ctx context.Context, listID int64) (*model.List, error)
	Apply(ctx context.Context, op Operation) (*model.List, error)
}

// HTTPClient talks to the list server's JSON API with a session token.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient returns a client for the server at baseURL. A nil hc uses a client with a
// 30 second timeout.
func NewHTTPClient(baseURL, token string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), token: token, client: hc}
}

func (c *HTTPClient) BaseURL() string { return c.baseURL }
func (c *HTTPClient) Token() string   { return c.token }

// Me returns the id of the user owning the token.
func (c *HTTPClient) Me(ctx context.Context) (int64, error) {
	var out struct {
		UserID int64 `json:"userId"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, "", &out); err != nil {
		return 0, err
	}
	return out.UserID, nil
}

func (c *HTTPClient) ReadList(ctx context.Context, listID int64) (*model.List, error) {
	var l model.List
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/lists/%d", listID), nil, "", &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Apply sends op, using its correlation id as the idempotency key so a resend after a lost
// response is not applied twice.
func (c *HTTPClient) Apply(ctx context.Context, op Operation) (*model.List, error) {
	base := fmt.Sprintf("/api/lists/%d/items", op.ListID)
	itemPath := base + "/" + url.PathEscape(op.ItemID)

	var (
		method, path string
		body         any
	)
	switch op.Kind {
	case OpCreate:
		if op.Item == nil {
			return nil, apperr.Validation("create operation without item")
		}
		in := *op.Item
		in.ID = op.ItemID
		method, path, body = http.MethodPost, base, list.AddInput{Items: []grocery.Incoming{in}}
	case OpUpdate:
		if op.Patch == nil {
			return nil, apperr.Validation("update operation without patch")
		}
		method, path, body = http.MethodPatch, itemPath, op.Patch
	case OpToggle:
		active := op.Active
		method, path, body = http.MethodPatch, itemPath, list.ItemPatch{Active: &active}
	case OpDelete:
		method, path = http.MethodDelete, itemPath
	case OpDeleteChecked:
		method, path = http.MethodDelete, base+"?checked=true"
	case OpDeleteAll:
		method, path = http.MethodDelete, base
	default:
		return nil, apperr.Validation("unknown operation %q", op.Kind)
	}

	var l model.List
	if err := c.do(ctx, method, path, body, op.CorrelationID, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, idemKey string, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s %s: %w: %v", method, path, ErrTransient, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("read response: %w: %v", ErrTransient, err)
	}

	if resp.StatusCode >= 400 {
		return statusError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)
	msg := payload.Error
	if msg == "" {
		msg = http.StatusText(status)
	}

	if status >= 500 || status == http.StatusRequestTimeout || status == http.StatusTooManyRequests {
		return fmt.Errorf("server returned %d: %w: %s", status, ErrTransient, msg)
	}
	if e := apperr.FromStatus(status, msg); e != nil {
		return e
	}
	return fmt.Errorf("server returned %d: %s", status, msg)
}
