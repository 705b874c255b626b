// Package scriptproxy implements transport.Transport against a
// user-deployed HTTP endpoint fronting the spreadsheet (typically an
// Apps Script web app). The client needs no credentials; the proxy is
// trusted to implement the row schema and server-side write locking.
package scriptproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"tasksheet/internal/model"
	"tasksheet/internal/rowcodec"
	"tasksheet/internal/transport"
)

// RequestTimeout bounds a single proxy round trip. Apps Script cold
// starts are slow, so this is generous.
const RequestTimeout = 30 * time.Second

// Client implements transport.Transport over the script proxy wire
// contract: GET ?action=check, GET ?action=sync_down, POST sync_up.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

// New creates a proxy client for the given endpoint URL.
func New(endpoint string, logger *slog.Logger) (*Client, error) {
	if endpoint == "" {
		return nil, transport.ErrNoTarget
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid script URL: %w", err)
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: RequestTimeout},
		logger:   logger,
	}, nil
}

// checkResponse is the ?action=check envelope.
type checkResponse struct {
	Status string `json:"status"`
}

// downResponse is the ?action=sync_down envelope. Both arrays include
// their header row, which the client skips.
type downResponse struct {
	Tasks [][]string `json:"tasks"`
	Goals [][]string `json:"goals"`
}

// upRequest is the sync_up POST body.
type upRequest struct {
	Action string     `json:"action"`
	Rows   [][]string `json:"rows"`
	Goals  [][]string `json:"goals"`
}

// TestConnection performs the check handshake.
func (c *Client) TestConnection(ctx context.Context) error {
	var resp checkResponse
	if err := c.get(ctx, "check", &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("script proxy check returned status %q", resp.Status)
	}
	return nil
}

// Pull fetches the full dataset via sync_down.
func (c *Client) Pull(ctx context.Context) (*transport.Payload, error) {
	var resp downResponse
	if err := c.get(ctx, "sync_down", &resp); err != nil {
		return nil, err
	}

	payload := &transport.Payload{}
	for i, raw := range skipHeader(resp.Tasks) {
		row := rowcodec.Row(raw)
		if rowcodec.IsSentinel(row) {
			if meta := rowcodec.DecodeMetadata(row); meta != nil {
				payload.Meta = meta
			}
			continue
		}
		t := rowcodec.DecodeTask(row)
		if t == nil {
			c.logger.Warn("skipping undecodable task row", "row", i+2)
			continue
		}
		payload.Tasks = append(payload.Tasks, *t)
	}
	for _, raw := range skipHeader(resp.Goals) {
		if g := rowcodec.DecodeGoal(rowcodec.Row(raw)); g != nil {
			payload.Goals = append(payload.Goals, *g)
		}
	}

	return payload, nil
}

// Push sends the full dataset via sync_up. Header rows are included so
// the proxy can overwrite its tables wholesale.
func (c *Client) Push(ctx context.Context, p *transport.Payload) error {
	goalsByID := model.GoalsByID(p.Goals)

	req := upRequest{Action: "sync_up"}
	req.Rows = append(req.Rows, rowcodec.TaskHeader)
	for _, t := range p.Tasks {
		req.Rows = append(req.Rows, rowcodec.EncodeTask(t, goalsByID))
	}
	if p.Meta != nil {
		req.Rows = append(req.Rows, rowcodec.EncodeMetadata(*p.Meta))
	}
	req.Goals = append(req.Goals, rowcodec.GoalHeader)
	for _, g := range p.Goals {
		req.Goals = append(req.Goals, rowcodec.EncodeGoal(g))
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding sync_up request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("script proxy push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("script proxy push: unexpected status %d", resp.StatusCode)
	}

	// The acknowledgement body is implementation-defined; drain it so
	// the connection can be reused.
	io.Copy(io.Discard, resp.Body)
	return nil
}

// get performs an action GET and decodes the JSON envelope into out.
func (c *Client) get(ctx context.Context, action string, out any) error {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("invalid script URL: %w", err)
	}
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("script proxy %s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("script proxy %s: unexpected status %d", action, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("script proxy %s: malformed response: %w", action, err)
	}
	return nil
}

// skipHeader drops the header row the proxy includes in each array.
func skipHeader(rows [][]string) [][]string {
	if len(rows) == 0 {
		return nil
	}
	return rows[1:]
}
