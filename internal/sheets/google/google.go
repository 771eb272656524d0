package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and how to authenticate against it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// sheetIDTTL bounds how long a resolved sheet id is trusted; a sheet
// deleted and recreated under the same title gets a new id.
const sheetIDTTL = time.Hour

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	sheetIDs      *cache.LRU[int64]
}

// Ensure interface conformance
var _ sheets.Mirror = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	credentialsJSON, err := loadCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", cfg.SheetName)

	return newClient(svc, cfg), nil
}

// NewWithOptions builds a client from explicit API options, e.g. a
// custom endpoint and HTTP client.
func NewWithOptions(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newClient(svc, cfg), nil
}

func newClient(svc *gsheet.Service, cfg Config) *Client {
	name := strings.TrimSpace(cfg.SheetName)
	if name == "" {
		name = "Expenses"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     name,
		sheetIDs:      cache.NewLRU[int64](8, sheetIDTTL),
	}
}

// loadCredentials prefers inline JSON over a file path.
func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", cfg.CredentialsFile)
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

func (c *Client) idColumn(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read id column of %s: %w", c.sheetName, err)
	}
	return resp.Values, nil
}

// AppendExpense appends e below the last row. A row already carrying the
// id is left alone so redelivered events do not duplicate it.
func (c *Client) AppendExpense(ctx context.Context, e core.Expense) (string, error) {
	column, err := c.idColumn(ctx)
	if err != nil {
		return "", err
	}
	if i := sheets.RowIndexForID(column, e.ID); i >= 0 {
		return fmt.Sprintf("%s!A%d:E%d", c.sheetName, i+1, i+1), nil
	}

	var values [][]any
	if len(column) == 0 {
		values = append(values, toCells(sheets.Header))
	}
	values = append(values, toCells(sheets.Row(e)))

	rng := fmt.Sprintf("%s!A:E", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append expense %d to %s: %w", e.ID, c.sheetName, err)
	}

	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// DeleteExpense removes the row holding id. Rows shift up, so the row is
// located again on every call.
func (c *Client) DeleteExpense(ctx context.Context, id int64) error {
	column, err := c.idColumn(ctx)
	if err != nil {
		return err
	}
	idx := sheets.RowIndexForID(column, id)
	if idx < 0 {
		slog.DebugContext(ctx, "Expense not present in sheet", "expense_id", id)
		return nil
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(idx),
					EndIndex:   int64(idx + 1),
					// Zero is a valid sheet id and row index.
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		c.sheetIDs.Delete(c.sheetName)
		return fmt.Errorf("delete row %d of %s: %w", idx+1, c.sheetName, err)
	}
	return nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	return c.sheetIDs.GetOrLoad(c.sheetName, func() (int64, error) {
		return c.lookupSheetID(ctx)
	})
}

func (c *Client) lookupSheetID(ctx context.Context) (int64, error) {
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, s := range resp.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}

func toCells(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
