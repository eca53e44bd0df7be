package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"subtrack/internal/core"
	"subtrack/internal/log"
	ports "subtrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultSheetName = "Subscriptions"

var errSheetNotFound = errors.New("sheet not found in spreadsheet")

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger

	// sheetID is the numeric tab id needed by row deletes, resolved on first use.
	mu      sync.Mutex
	sheetID *int64
}

var _ ports.SubscriptionMirror = (*Client)(nil)

// NewClient creates a mirror client authenticated with service account credentials.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS.
func NewClient(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, sheetName), nil
}

// NewWithService wraps an already configured service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = defaultSheetName
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        log.WithComponent(log.ComponentSheets),
	}
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	log.WithComponent(log.ComponentSheets).InfoContext(ctx, "Google Sheets service created", "credentials_size", len(credentialsJSON))
	return service, nil
}

func (c *Client) Upsert(ctx context.Context, s core.Subscription) (string, error) {
	if s.ID <= 0 {
		return "", fmt.Errorf("mirror subscription: invalid id %d", s.ID)
	}

	ids, err := c.readIDs(ctx)
	if err != nil {
		return "", err
	}
	row := indexOf(ids, s.ID) + 1
	if row == 0 {
		row = len(ids) + 1
	}

	values := ports.RowValues(s)
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}

	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, row, lastColumn(), row)
	vr := &gsheet.ValueRange{Values: [][]any{cells}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", rng, err)
	}

	c.logger.DebugContext(ctx, "Mirrored subscription",
		log.FieldSubscriptionID, s.ID,
		log.FieldSheetsRef, rng)
	return rng, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(ids, id)
	if idx < 0 {
		return nil
	}

	sheetID, err := c.resolveSheetID(ctx)
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
					// zero is a valid sheet id and row index
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete row %d in sheet %s: %w", idx+1, c.sheetName, err)
	}
	c.logger.DebugContext(ctx, "Removed mirrored subscription",
		log.FieldSubscriptionID, id,
		log.FieldRow, idx+1)
	return nil
}

// readIDs returns column A, one entry per sheet row.
func (c *Client) readIDs(ctx context.Context) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read ids from %s: %w", c.sheetName, err)
	}
	out := make([]string, len(resp.Values))
	for i, r := range resp.Values {
		if len(r) > 0 {
			out[i] = strings.TrimSpace(fmt.Sprint(r[0]))
		}
	}
	return out, nil
}

func (c *Client) resolveSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheetID != nil {
		return *c.sheetID, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to read spreadsheet metadata: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			id := sh.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", errSheetNotFound, c.sheetName)
}

func indexOf(ids []string, id int64) int {
	key := strconv.FormatInt(id, 10)
	for i, v := range ids {
		if v == key {
			return i
		}
	}
	return -1
}

func lastColumn() string {
	return string(rune('A' + len(ports.Columns) - 1))
}
