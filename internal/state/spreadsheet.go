package state

import (
	"context"
	"fmt"
)

// SpreadsheetIDFile is the file name the spreadsheet id is stored under.
const SpreadsheetIDFile = "spreadsheet_id.json"

type spreadsheetDoc struct {
	SpreadsheetID string `json:"spreadsheet_id"`
}

// SpreadsheetIDStore persists the id of the tracking spreadsheet.
type SpreadsheetIDStore struct {
	record Record
}

// NewSpreadsheetIDStore returns a store backed by record.
func NewSpreadsheetIDStore(record Record) *SpreadsheetIDStore {
	return &SpreadsheetIDStore{record: record}
}

// Read returns the stored id, or "" if none has been written.
func (s *SpreadsheetIDStore) Read(ctx context.Context) (string, error) {
	var doc spreadsheetDoc
	if _, err := loadJSON(ctx, s.record, &doc); err != nil {
		return "", fmt.Errorf("read spreadsheet id: %w", err)
	}
	return doc.SpreadsheetID, nil
}

// Write persists id.
func (s *SpreadsheetIDStore) Write(ctx context.Context, id string) error {
	if err := storeJSON(ctx, s.record, spreadsheetDoc{SpreadsheetID: id}); err != nil {
		return fmt.Errorf("write spreadsheet id: %w", err)
	}
	return nil
}
