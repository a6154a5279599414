// Package google writes expense rows to a Google spreadsheet using a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tripplan/internal/core"
	"tripplan/internal/log"
	"tripplan/internal/sheets"
)

type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

var _ sheets.Mirror = (*Client)(nil)

// New creates a Sheets client authenticated with the configured service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentialsJSON(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, logger), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test endpoint.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Expenses"
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func credentialsJSON(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

func (c *Client) rng(cols string) string {
	return fmt.Sprintf("%s!%s", c.sheetName, cols)
}

// Append adds the expense as a new row and returns the updated range.
func (c *Client) Append(ctx context.Context, e core.Expense) (string, error) {
	if e.ID == "" {
		return "", errors.New("expense has no id")
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	vr := &gsheet.ValueRange{Values: [][]any{expenseRow(e)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.rng("A:I"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.DebugContext(ctx, "Expense row appended",
		log.FieldExpenseID, e.ID,
		log.FieldOperation, log.OpAppend,
		"range", ref)
	return ref, nil
}

func (c *Client) rows(ctx context.Context) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng("A:I")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", c.sheetName, err)
	}
	return resp.Values, nil
}

// ListExpenses scans the sheet for rows of one plan. Unreadable rows are skipped.
func (c *Client) ListExpenses(ctx context.Context, planID string) ([]core.Expense, error) {
	rows, err := c.rows(ctx)
	if err != nil {
		return nil, err
	}
	out := []core.Expense{}
	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		e, err := parseRow(row)
		if err != nil {
			c.logger.DebugContext(ctx, "Skipping unreadable row", "row", i+1, log.FieldError, err)
			continue
		}
		if e.PlanID == planID {
			out = append(out, e)
		}
	}
	return out, nil
}

// DeleteExpense removes the row whose first column is id.
func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	rows, err := c.rows(ctx)
	if err != nil {
		return err
	}
	index := -1
	for i, row := range rows {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == id {
			index = i
			break
		}
	}
	if index < 0 {
		return nil
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(index),
			EndIndex:   int64(index + 1),
			// Zero is a valid sheet id and row index.
			ForceSendFields: []string{"SheetId", "StartIndex"},
		}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", index+1, err)
	}
	c.logger.DebugContext(ctx, "Expense row deleted",
		log.FieldExpenseID, id,
		log.FieldOperation, log.OpDelete)
	return nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}
