package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ports "orcamento/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

var _ ports.QuoteWriter = (*Client)(nil)

// Config selects the target spreadsheet. CredentialsFile falls back to
// application default credentials when empty.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
}

// New creates a Sheets client for cfg.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Orcamentos"
	}

	svc, err := newSheetsService(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

func newSheetsService(ctx context.Context, credentialsFile string) (*gsheet.Service, error) {
	opts := []goption.ClientOption{
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}
	if credentialsFile != "" {
		credentialsJSON, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Using service account credentials for Sheets", "path", credentialsFile)
		opts = append(opts, goption.WithCredentialsJSON(credentialsJSON))
	} else {
		slog.InfoContext(ctx, "Using application default credentials for Sheets")
	}

	service, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendQuote writes the quote rows after the last used row and returns the
// updated range.
func (c *Client) AppendQuote(ctx context.Context, rec ports.QuoteRecord) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if len(rec.Items) == 0 {
		return "", errors.New("quote has no items")
	}

	vr := &gsheet.ValueRange{Values: ports.Rows(rec)}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, appendRange(c.sheet), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append quote to sheet %s: %w", c.sheet, err)
	}

	ref := appendRange(c.sheet)
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Quote exported to Google Sheets",
		"quote_id", rec.QuoteID,
		"items", len(rec.Items),
		"range", ref)
	return ref, nil
}

// appendRange quotes sheet names that need it in A1 notation.
func appendRange(sheet string) string {
	if strings.ContainsAny(sheet, " '!") {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet + "!A:G"
}
