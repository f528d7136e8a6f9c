// Package google exports monthly summaries to a Google Sheet using a
// Service Account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/sherdorkhudoyberdi/expense-tracker/internal/core"
	ports "github.com/sherdorkhudoyberdi/expense-tracker/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.SummaryWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Optional: GOOGLE_SHEET_NAME (default "Summaries"),
// GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE for auth;
// without either, Application Default Credentials are used.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Summaries"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	var opts []goption.ClientOption
	switch {
	case serviceAccountJSON != "":
		opts = append(opts, goption.WithCredentialsJSON([]byte(serviceAccountJSON)))
	case serviceAccountFile != "":
		opts = append(opts, goption.WithCredentialsFile(serviceAccountFile))
	default:
		slog.InfoContext(ctx, "No service account configured, using application default credentials")
	}
	opts = append(opts, goption.WithScopes(gsheet.SpreadsheetsScope))

	return gsheet.NewService(ctx, opts...)
}

// WriteMonthlySummary upserts the row for (owner, year, month): an existing
// row for the month is overwritten, otherwise a new one is appended.
func (c *Client) WriteMonthlySummary(ctx context.Context, ownerID int64, summary core.MonthlySummary) error {
	monthKey := fmt.Sprintf("%04d-%02d", summary.Year, summary.Month)
	row := []any{
		ownerID,
		monthKey,
		summary.TotalIncome.String(),
		summary.TotalExpense.String(),
		summary.Balance.String(),
	}

	rowIndex, err := c.findSummaryRow(ctx, ownerID, monthKey)
	if err != nil {
		return err
	}

	values := &gsheet.ValueRange{Values: [][]any{row}}
	if rowIndex > 0 {
		updateRange := fmt.Sprintf("%s!A%d:E%d", c.sheetName, rowIndex, rowIndex)
		_, err = c.svc.Spreadsheets.Values.
			Update(c.spreadsheetID, updateRange, values).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
	} else {
		appendRange := fmt.Sprintf("%s!A:E", c.sheetName)
		_, err = c.svc.Spreadsheets.Values.
			Append(c.spreadsheetID, appendRange, values).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
	}
	if err != nil {
		return fmt.Errorf("write summary row: %w", err)
	}

	slog.InfoContext(ctx, "Exported monthly summary",
		"owner_id", ownerID,
		"month", monthKey,
		"updated_existing", rowIndex > 0)

	return nil
}

// findSummaryRow returns the 1-based row holding the owner+month pair, or 0
// when absent.
func (c *Client) findSummaryRow(ctx context.Context, ownerID int64, monthKey string) (int, error) {
	readRange := fmt.Sprintf("%s!A:B", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, readRange).
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("read summary sheet: %w", err)
	}

	owner := fmt.Sprintf("%d", ownerID)
	for i, row := range resp.Values {
		if len(row) < 2 {
			continue
		}
		if fmt.Sprintf("%v", row[0]) == owner && fmt.Sprintf("%v", row[1]) == monthKey {
			return i + 1, nil
		}
	}
	return 0, nil
}
