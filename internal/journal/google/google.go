package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finboard/internal/core"
	"finboard/internal/journal"
)

// Header is the first row written to an empty snapshot sheet.
var Header = []any{"Recorded At", "Assets", "Liabilities", "Goal", "Net Worth", "Ref"}

// Options configures the exporter.
type Options struct {
	SpreadsheetID   string
	SheetName       string // base name; the snapshot year is prefixed
	CredentialsJSON string
	CredentialsFile string

	// ClientOptions are appended to the service options, mainly for tests.
	ClientOptions []goption.ClientOption
}

// Client appends snapshots to a Google Sheets spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	logger        *slog.Logger
}

var _ journal.SnapshotExporter = (*Client)(nil)

// New creates a Sheets exporter authenticated with a service account.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	base := strings.TrimSpace(opts.SheetName)
	if base == "" {
		base = "Net Worth"
	}

	svcOpts, err := credentialOptions(opts)
	if err != nil {
		return nil, err
	}
	svcOpts = append(svcOpts, opts.ClientOptions...)

	svc, err := gsheet.NewService(ctx, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger.InfoContext(ctx, "Google Sheets exporter ready", "spreadsheet_id", opts.SpreadsheetID, "sheet", base)
	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetBase:     base,
		logger:        logger,
	}, nil
}

// credentialOptions prefers inline JSON, then a credentials file. When the
// caller supplies its own client options, missing credentials are allowed.
func credentialOptions(opts Options) ([]goption.ClientOption, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		credentialsJSON = []byte(opts.CredentialsJSON)
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	case len(opts.ClientOptions) > 0:
		return nil, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	return []goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

// Export appends one row for the snapshot to "<year> <sheet>" and returns
// the updated range.
func (c *Client) Export(ctx context.Context, s core.NetWorthSnapshot) (string, error) {
	if err := s.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := yearPrefixedName(c.sheetBase, s.RecordedAt.Year())
	rng := fmt.Sprintf("'%s'!A:F", sheet)
	vr := &gsheet.ValueRange{Values: [][]any{SnapshotRow(s)}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}

	ref := sheet
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.DebugContext(ctx, "Snapshot exported", "sheet", sheet, "range", ref, "snapshot_ref", s.Ref)
	return ref, nil
}

// EnsureHeader writes Header to the current year's sheet when its first row is empty.
func (c *Client) EnsureHeader(ctx context.Context, year int) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(c.sheetBase, year)
	rng := fmt.Sprintf("'%s'!A1:F1", sheet)

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{Header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header to %s: %w", sheet, err)
	}
	c.logger.InfoContext(ctx, "Header written to snapshot sheet", "sheet", sheet)
	return nil
}

// SnapshotRow renders a snapshot as a sheet row. Amounts are plain decimal
// strings so USER_ENTERED parses them as numbers.
func SnapshotRow(s core.NetWorthSnapshot) []any {
	return []any{
		s.RecordedAt.UTC().Format("2006-01-02 15:04:05"),
		s.Assets.String(),
		s.Liabilities.String(),
		s.Goal.String(),
		s.NetWorth.String(),
		s.Ref,
	}
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
