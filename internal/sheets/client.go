package sheets

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/teemow/applytrack/internal/google"
	"github.com/teemow/applytrack/internal/instrumentation"
)

// valueInputOption makes the spreadsheet parse dates the way a user typing
// them would.
const valueInputOption = "USER_ENTERED"

// Service is the subset of the spreadsheet API the tracker needs.
type Service interface {
	// Append adds row after the last non-empty row of rng.
	Append(ctx context.Context, spreadsheetID, rng string, row []string) error
	// ReadAll returns every row of rng. Cells are rendered as strings.
	ReadAll(ctx context.Context, spreadsheetID, rng string) ([][]string, error)
	// Update sets the single cell addressed by cell.
	Update(ctx context.Context, spreadsheetID, cell, value string) error
	// Create makes a spreadsheet with one named sheet and returns its id.
	Create(ctx context.Context, title, sheetTitle string) (string, error)
}

// Client implements Service over the Sheets v4 API.
type Client struct {
	svc     *sheets.Service
	metrics *instrumentation.Metrics
}

// NewClient creates a Sheets client authenticated with the cached OAuth token.
func NewClient(ctx context.Context, cfg google.Config, metrics *instrumentation.Metrics) (*Client, error) {
	httpClient, err := google.HTTPClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	return &Client{svc: svc, metrics: metrics}, nil
}

// Append implements Service.
func (c *Client) Append(ctx context.Context, spreadsheetID, rng string, row []string) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceSheets, instrumentation.OperationAppend)
	defer span.End()
	start := time.Now()

	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	_, err := c.svc.Spreadsheets.Values.Append(spreadsheetID, rng, &sheets.ValueRange{
		Values: [][]interface{}{cells},
	}).ValueInputOption(valueInputOption).Context(ctx).Do()

	c.record(ctx, instrumentation.OperationAppend, err, start)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return fmt.Errorf("failed to append row: %w", err)
	}
	return nil
}

// ReadAll implements Service.
func (c *Client) ReadAll(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceSheets, instrumentation.OperationGet)
	defer span.End()
	start := time.Now()

	res, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	c.record(ctx, instrumentation.OperationGet, err, start)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to read %s: %w", rng, err)
	}

	rows := make([][]string, len(res.Values))
	for i, r := range res.Values {
		rows[i] = make([]string, len(r))
		for j, cell := range r {
			rows[i][j] = fmt.Sprint(cell)
		}
	}
	return rows, nil
}

// Update implements Service.
func (c *Client) Update(ctx context.Context, spreadsheetID, cell, value string) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceSheets, instrumentation.OperationUpdate)
	defer span.End()
	start := time.Now()

	_, err := c.svc.Spreadsheets.Values.Update(spreadsheetID, cell, &sheets.ValueRange{
		Values: [][]interface{}{{value}},
	}).ValueInputOption(valueInputOption).Context(ctx).Do()

	c.record(ctx, instrumentation.OperationUpdate, err, start)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return fmt.Errorf("failed to update %s: %w", cell, err)
	}
	return nil
}

// Create implements Service.
func (c *Client) Create(ctx context.Context, title, sheetTitle string) (string, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceSheets, instrumentation.OperationCreate)
	defer span.End()
	start := time.Now()

	created, err := c.svc.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: sheetTitle}},
		},
	}).Context(ctx).Do()

	c.record(ctx, instrumentation.OperationCreate, err, start)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", fmt.Errorf("failed to create spreadsheet: %w", err)
	}
	return created.SpreadsheetId, nil
}

func (c *Client) record(ctx context.Context, op string, err error, start time.Time) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceSheets, op, status, time.Since(start))
}
