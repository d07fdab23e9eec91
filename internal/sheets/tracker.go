package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/teemow/applytrack/internal/jobs"
	"github.com/teemow/applytrack/internal/logging"
)

// SheetTitle is the sheet that holds application rows.
const SheetTitle = "Job Applications"

// statusColumn is the column letter of the status cell.
const statusColumn = "D"

// Tracker reads and writes application rows in one spreadsheet.
type Tracker struct {
	svc           Service
	spreadsheetID string
	logger        *slog.Logger
}

// NewTracker returns a Tracker for the spreadsheet with the given id.
func NewTracker(svc Service, spreadsheetID string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logging.WithService(logger, "sheets"),
	}
}

// SpreadsheetID returns the id of the tracked spreadsheet.
func (t *Tracker) SpreadsheetID() string {
	return t.spreadsheetID
}

// ValidateApplication checks the arguments of AddApplication without
// touching the spreadsheet. Every field must be non-empty and date must be
// YYYY-MM-DD.
func ValidateApplication(role, company, date, status string) error {
	if err := requireFields(
		field{"job_title", role},
		field{"company", company},
		field{"application_date", date},
		field{"status", status},
	); err != nil {
		return err
	}
	if _, err := civil.ParseDate(strings.TrimSpace(date)); err != nil {
		return &jobs.ValidationError{Field: "application_date", Reason: "must be in YYYY-MM-DD format"}
	}
	return nil
}

// ValidateStatusUpdate checks the arguments of UpdateStatus without touching
// the spreadsheet.
func ValidateStatusUpdate(role, company, newStatus string) error {
	return requireFields(
		field{"job_title", role},
		field{"company", company},
		field{"new_status", newStatus},
	)
}

// AddApplication appends one row for a new application. date must be
// YYYY-MM-DD. status is written as given.
func (t *Tracker) AddApplication(ctx context.Context, role, company, date, status string) error {
	if err := ValidateApplication(role, company, date, status); err != nil {
		return err
	}

	row := []string{role, company, strings.TrimSpace(date), status}
	if err := t.svc.Append(ctx, t.spreadsheetID, SheetTitle, row); err != nil {
		return fmt.Errorf("add application: %w", err)
	}

	t.logger.Info("added application", logging.Company(company), slog.String("role", role))
	return nil
}

// UpdateStatus sets the status of the first row whose job title and company
// equal role and company. When no row matches it returns a
// *jobs.NotFoundError and changes nothing.
func (t *Tracker) UpdateStatus(ctx context.Context, role, company, newStatus string) error {
	if err := ValidateStatusUpdate(role, company, newStatus); err != nil {
		return err
	}

	rows, err := t.svc.ReadAll(ctx, t.spreadsheetID, SheetTitle)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	row, ok := findRow(rows, role, company)
	if !ok {
		return &jobs.NotFoundError{Role: role, Company: company}
	}

	cell := fmt.Sprintf("%s!%s%d", SheetTitle, statusColumn, row)
	if err := t.svc.Update(ctx, t.spreadsheetID, cell, newStatus); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	t.logger.Info("updated application status",
		logging.Company(company),
		slog.String("role", role),
		logging.Status(newStatus))
	return nil
}

// findRow returns the 1-based sheet row of the first match.
func findRow(rows [][]string, role, company string) (int, bool) {
	for i, r := range rows {
		if len(r) >= 2 && r[0] == role && r[1] == company {
			return i + 1, true
		}
	}
	return 0, false
}

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &jobs.ValidationError{Field: f.name, Reason: "must be non-empty"}
		}
	}
	return nil
}
