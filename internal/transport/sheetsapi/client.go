// Package sheetsapi implements transport.Transport against the Google
// Sheets API. Requires an authenticated session (oauth_client.json and
// token.json under the config dir).
package sheetsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"tasksheet/internal/config"
	"tasksheet/internal/model"
	"tasksheet/internal/rowcodec"
	"tasksheet/internal/transport"
)

const (
	// APITimeout is the timeout for a single Sheets API call. Bulk
	// range reads over a large board take longer than point lookups.
	APITimeout = 30 * time.Second

	// OAuth scope for reading and writing spreadsheets.
	sheetsScope = "https://www.googleapis.com/auth/spreadsheets"
)

// Client implements transport.Transport using the Sheets API.
type Client struct {
	svc      *sheets.Service
	sheetID  string
	tasksTab string
	goalsTab string
	logger   *slog.Logger
}

// New creates a Sheets client for the configured spreadsheet.
// Returns transport.ErrAuthRequired when no stored token exists.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg.SheetID == "" {
		return nil, transport.ErrNoTarget
	}
	if !cfg.HasToken() || !cfg.HasOAuthClient() {
		return nil, transport.ErrAuthRequired
	}

	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, sheetsScope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}

	tokenData, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}

	// Token source auto-refreshes on expiry.
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		svc:      svc,
		sheetID:  cfg.SheetID,
		tasksTab: cfg.TasksTabName(),
		goalsTab: cfg.GoalsTabName(),
		logger:   logger,
	}, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client and
// endpoint (for testing against a local fake).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, endpoint, sheetID string, logger *slog.Logger) (*Client, error) {
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient), option.WithEndpoint(endpoint))
	if err != nil {
		return nil, err
	}
	return &Client{
		svc:      svc,
		sheetID:  sheetID,
		tasksTab: config.DefaultTasksTab,
		goalsTab: config.DefaultGoalsTab,
		logger:   logger,
	}, nil
}

// TestConnection verifies the spreadsheet exists and is readable.
func (c *Client) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if _, err := c.svc.Spreadsheets.Get(c.sheetID).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

// EnsureSchema writes the header rows when the tasks tab is blank or
// carries an unexpected first column. Goals tab absence is tolerated.
func (c *Client) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	resp, err := c.svc.Spreadsheets.Values.Get(c.sheetID, c.tasksTab+"!A1:Q1").Context(ctx).Do()
	if err != nil {
		return wrapError(err)
	}

	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 || asString(resp.Values[0][0]) != rowcodec.TaskHeader[0] {
		vr := &sheets.ValueRange{Values: [][]interface{}{toCells(rowcodec.TaskHeader)}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.sheetID, c.tasksTab+"!A1", vr).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return wrapError(err)
		}
		c.logger.Info("initialized tasks header row", "tab", c.tasksTab)
	}

	// The goals tab is optional; users who never created it still sync
	// tasks fine.
	gr := &sheets.ValueRange{Values: [][]interface{}{toCells(rowcodec.GoalHeader)}}
	resp, err = c.svc.Spreadsheets.Values.Get(c.sheetID, c.goalsTab+"!A1:F1").Context(ctx).Do()
	switch {
	case isMissingTab(err):
		c.logger.Debug("goals tab absent, skipping header init", "tab", c.goalsTab)
	case err != nil:
		return wrapError(err)
	case len(resp.Values) == 0 || len(resp.Values[0]) == 0:
		if _, err := c.svc.Spreadsheets.Values.Update(c.sheetID, c.goalsTab+"!A1", gr).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return wrapError(err)
		}
		c.logger.Info("initialized goals header row", "tab", c.goalsTab)
	}

	return nil
}

// Pull reads the full tasks range plus the optional goals tab.
func (c *Client) Pull(ctx context.Context) (*transport.Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	resp, err := c.svc.Spreadsheets.Values.Get(c.sheetID, c.tasksTab+"!A2:Q").Context(ctx).Do()
	if err != nil {
		return nil, wrapError(err)
	}

	payload := &transport.Payload{}
	for i, raw := range resp.Values {
		row := fromCells(raw)
		if rowcodec.IsSentinel(row) {
			if meta := rowcodec.DecodeMetadata(row); meta != nil {
				payload.Meta = meta
			}
			continue
		}
		t := rowcodec.DecodeTask(row)
		if t == nil {
			if !isBlankRow(row) {
				c.logger.Warn("skipping undecodable task row", "row", i+2)
			}
			continue
		}
		payload.Tasks = append(payload.Tasks, *t)
	}

	gresp, err := c.svc.Spreadsheets.Values.Get(c.sheetID, c.goalsTab+"!A2:F").Context(ctx).Do()
	switch {
	case isMissingTab(err):
		// No goals tab; tasks-only spreadsheet.
	case err != nil:
		return nil, wrapError(err)
	default:
		for _, raw := range gresp.Values {
			if g := rowcodec.DecodeGoal(fromCells(raw)); g != nil {
				payload.Goals = append(payload.Goals, *g)
			}
		}
	}

	return payload, nil
}

// Push overwrites the tasks range (header, task rows, sentinel row) and
// clears whatever trails the written block, so a shrinking task set
// never leaves orphaned stale rows behind.
func (c *Client) Push(ctx context.Context, p *transport.Payload) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	goalsByID := model.GoalsByID(p.Goals)

	values := [][]interface{}{toCells(rowcodec.TaskHeader)}
	for _, t := range p.Tasks {
		values = append(values, toCells(rowcodec.EncodeTask(t, goalsByID)))
	}
	if p.Meta != nil {
		values = append(values, toCells(rowcodec.EncodeMetadata(*p.Meta)))
	}

	vr := &sheets.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.sheetID, c.tasksTab+"!A1", vr).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return wrapError(err)
	}

	clearRange := fmt.Sprintf("%s!A%d:Q", c.tasksTab, len(values)+1)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.sheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}

	gvalues := [][]interface{}{toCells(rowcodec.GoalHeader)}
	for _, g := range p.Goals {
		gvalues = append(gvalues, toCells(rowcodec.EncodeGoal(g)))
	}

	gvr := &sheets.ValueRange{Values: gvalues}
	_, err := c.svc.Spreadsheets.Values.Update(c.sheetID, c.goalsTab+"!A1", gvr).ValueInputOption("RAW").Context(ctx).Do()
	switch {
	case isMissingTab(err):
		c.logger.Debug("goals tab absent, skipping goals push", "tab", c.goalsTab)
		return nil
	case err != nil:
		return wrapError(err)
	}

	gclear := fmt.Sprintf("%s!A%d:F", c.goalsTab, len(gvalues)+1)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.sheetID, gclear, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}

	return nil
}

// isMissingTab reports whether an error is the Sheets API's rejection
// of a range referencing a tab that does not exist.
func isMissingTab(err error) bool {
	if err == nil {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")
	}
	return false
}

func isBlankRow(row rowcodec.Row) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func toCells(row rowcodec.Row) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

func fromCells(raw []interface{}) rowcodec.Row {
	row := make(rowcodec.Row, len(raw))
	for i, v := range raw {
		row[i] = asString(v)
	}
	return row
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if strings.Contains(errStr, "context deadline exceeded") {
		return fmt.Errorf("request timed out")
	}

	if strings.Contains(errStr, "401") || strings.Contains(errStr, "403") {
		return fmt.Errorf("token expired or revoked (run: tasksheet login): %w", transport.ErrAuthRequired)
	}

	if strings.Contains(errStr, "404") {
		return fmt.Errorf("spreadsheet not found")
	}

	return err
}
