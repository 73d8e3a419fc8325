package autoplay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/flagmatch/internal/domain/types"
)

// Client talks to the game API.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base:   baseURL,
		client: &http.Client{Timeout: timeout},
	}
}

// Health checks that the service answers /healthz.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

// State fetches the view. With after > 0 it long-polls for a newer version.
func (c *Client) State(ctx context.Context, after uint64) (types.StateView, error) {
	url := c.base + "/state"
	if after > 0 {
		url += "?after=" + strconv.FormatUint(after, 10)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return types.StateView{}, fmt.Errorf("failed to create request: %w", err)
	}

	var v types.StateView
	if err := c.do(req, &v); err != nil {
		return types.StateView{}, err
	}
	return v, nil
}

// Select posts a card choice. Replaying requestID yields a duplicate ack.
func (c *Client) Select(ctx context.Context, requestID, uid string) (types.Ack, error) {
	return c.post(ctx, "/select", map[string]string{"request_id": requestID, "uid": uid})
}

// Reset deals a new game.
func (c *Client) Reset(ctx context.Context) (types.Ack, error) {
	return c.post(ctx, "/reset", map[string]string{"request_id": uuid.NewString()})
}

func (c *Client) post(ctx context.Context, path string, body any) (types.Ack, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return types.Ack{}, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(data))
	if err != nil {
		return types.Ack{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var ack types.Ack
	if err := c.do(req, &ack); err != nil {
		return types.Ack{}, err
	}
	return ack, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrRequest, req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
