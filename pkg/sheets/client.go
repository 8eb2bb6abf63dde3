package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/khetihal/khetihal-backend/pkg/config"
	"github.com/khetihal/khetihal-backend/pkg/logger"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

var (
	errSpreadsheetRequired  = errors.New("spreadsheet id is required")
	errSheetNameRequired    = errors.New("sheet name is required")
	errClientNotInitialized = errors.New("sheets client not initialized")

	// ErrRowNotFound signals that no row matched the requested id.
	ErrRowNotFound = errors.New("sheet row not found")
)

// Client wraps the Sheets API calls the mirror layer needs.
type Client struct {
	service       *sheetsapi.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// NewClient creates a Sheets client and verifies the spreadsheet is reachable.
func NewClient(ctx context.Context, cfg config.SheetsConfig, logg *logger.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errSpreadsheetRequired
	}

	opts := clientOptions(cfg)
	opts = append(opts, option.WithScopes(sheetsapi.SpreadsheetsScope))
	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	client := &Client{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetIDs:      make(map[string]int64),
	}

	if err := client.Ping(ctx); err != nil {
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, "sheets client initialized")
	}

	return client, nil
}

func clientOptions(cfg config.SheetsConfig) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	return opts
}

// Ping verifies the spreadsheet is accessible.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.service == nil {
		return errClientNotInitialized
	}
	_, err := c.service.Spreadsheets.Get(c.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("checking spreadsheet %q: %w", c.spreadsheetID, err)
	}
	return nil
}

// ReadAll returns every row of the named sheet, header included.
func (c *Client) ReadAll(ctx context.Context, sheet string) ([][]any, error) {
	if c == nil || c.service == nil {
		return nil, errClientNotInitialized
	}
	if strings.TrimSpace(sheet) == "" {
		return nil, errSheetNameRequired
	}

	resp, err := c.service.Spreadsheets.Values.Get(c.spreadsheetID, sheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return resp.Values, nil
}

// AppendRow appends a single row to the end of the named sheet.
func (c *Client) AppendRow(ctx context.Context, sheet string, row []any) error {
	if c == nil || c.service == nil {
		return errClientNotInitialized
	}
	if strings.TrimSpace(sheet) == "" {
		return errSheetNameRequired
	}

	body := &sheetsapi.ValueRange{Values: [][]any{row}}
	_, err := c.service.Spreadsheets.Values.
		Append(c.spreadsheetID, sheet, body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("appending to sheet %q: %w", sheet, err)
	}
	return nil
}

// FindRowByID scans the first column for the numeric id and returns the
// 1-based row index. The header row is skipped.
func (c *Client) FindRowByID(ctx context.Context, sheet string, id int64) (int64, []any, error) {
	rows, err := c.ReadAll(ctx, sheet)
	if err != nil {
		return 0, nil, err
	}
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		parsed, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(row[0])), 10, 64)
		if err != nil {
			continue
		}
		if parsed == id {
			return int64(i + 1), row, nil
		}
	}
	return 0, nil, ErrRowNotFound
}

// UpdateRow overwrites the row at the given 1-based index.
func (c *Client) UpdateRow(ctx context.Context, sheet string, rowIndex int64, row []any) error {
	if c == nil || c.service == nil {
		return errClientNotInitialized
	}
	if strings.TrimSpace(sheet) == "" {
		return errSheetNameRequired
	}
	if rowIndex <= 0 {
		return fmt.Errorf("invalid row index %d", rowIndex)
	}

	rng := fmt.Sprintf("%s!A%d", sheet, rowIndex)
	body := &sheetsapi.ValueRange{Values: [][]any{row}}
	_, err := c.service.Spreadsheets.Values.
		Update(c.spreadsheetID, rng, body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("updating row %d of sheet %q: %w", rowIndex, sheet, err)
	}
	return nil
}

// UpdateCell overwrites a single cell addressed by 1-based row and column.
func (c *Client) UpdateCell(ctx context.Context, sheet string, rowIndex, colIndex int64, value any) error {
	if c == nil || c.service == nil {
		return errClientNotInitialized
	}
	if strings.TrimSpace(sheet) == "" {
		return errSheetNameRequired
	}
	if rowIndex <= 0 || colIndex <= 0 {
		return fmt.Errorf("invalid cell position %d,%d", rowIndex, colIndex)
	}

	rng := fmt.Sprintf("%s!%s%d", sheet, columnLetter(colIndex), rowIndex)
	body := &sheetsapi.ValueRange{Values: [][]any{{value}}}
	_, err := c.service.Spreadsheets.Values.
		Update(c.spreadsheetID, rng, body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("updating cell %s of sheet %q: %w", rng, sheet, err)
	}
	return nil
}

// DeleteRow removes the row at the given 1-based index from the named sheet.
func (c *Client) DeleteRow(ctx context.Context, sheet string, rowIndex int64) error {
	if c == nil || c.service == nil {
		return errClientNotInitialized
	}
	if rowIndex <= 0 {
		return fmt.Errorf("invalid row index %d", rowIndex)
	}

	sheetID, err := c.sheetID(ctx, sheet)
	if err != nil {
		return err
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: rowIndex - 1,
					EndIndex:   rowIndex,
				},
			},
		}},
	}
	if _, err := c.service.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("deleting row %d of sheet %q: %w", rowIndex, sheet, err)
	}
	return nil
}

// NextID returns one greater than the largest numeric id in the first column.
// Rows whose first cell does not parse as an integer are skipped.
func (c *Client) NextID(ctx context.Context, sheet string) (int64, error) {
	rows, err := c.ReadAll(ctx, sheet)
	if err != nil {
		return 0, err
	}

	var max int64
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		parsed, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(row[0])), 10, 64)
		if err != nil {
			continue
		}
		if parsed > max {
			max = parsed
		}
	}
	return max + 1, nil
}

func (c *Client) sheetID(ctx context.Context, sheet string) (int64, error) {
	title := strings.TrimSpace(sheet)
	if title == "" {
		return 0, errSheetNameRequired
	}

	c.mu.Lock()
	if id, ok := c.sheetIDs[title]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	meta, err := c.service.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets(properties(sheetId,title))").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("listing sheets of %q: %w", c.spreadsheetID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range meta.Sheets {
		if s.Properties != nil {
			c.sheetIDs[s.Properties.Title] = s.Properties.SheetId
		}
	}
	id, ok := c.sheetIDs[title]
	if !ok {
		return 0, fmt.Errorf("sheet %q not found in spreadsheet", title)
	}
	return id, nil
}

func columnLetter(col int64) string {
	letters := ""
	for col > 0 {
		col--
		letters = string(rune('A'+col%26)) + letters
		col /= 26
	}
	return letters
}

// IsNotFound reports whether the error is a 404 from the Sheets API.
func IsNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.Code == http.StatusNotFound
	}
	return false
}
