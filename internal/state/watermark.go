package state

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// WatermarkLayout is the on-disk date layout of the watermark.
const WatermarkLayout = "2006/01/02"

// WatermarkFile is the file name the watermark is stored under in the data dir.
const WatermarkFile = "last_fetch_date.json"

type watermarkDoc struct {
	LastFetchDate string `json:"last_fetch_date"`
}

// WatermarkStore reads and writes the date of the last successful fetch.
type WatermarkStore struct {
	record Record
}

// NewWatermarkStore returns a store backed by record.
func NewWatermarkStore(record Record) *WatermarkStore {
	return &WatermarkStore{record: record}
}

// Read returns the stored watermark, or nil if none has been written.
func (s *WatermarkStore) Read(ctx context.Context) (*civil.Date, error) {
	var doc watermarkDoc
	ok, err := loadJSON(ctx, s.record, &doc)
	if err != nil {
		return nil, fmt.Errorf("read watermark: %w", err)
	}
	if !ok || doc.LastFetchDate == "" {
		return nil, nil
	}
	t, err := time.Parse(WatermarkLayout, doc.LastFetchDate)
	if err != nil {
		return nil, fmt.Errorf("read watermark: invalid date %q: %w", doc.LastFetchDate, err)
	}
	d := civil.DateOf(t)
	return &d, nil
}

// Write persists d as the new watermark.
func (s *WatermarkStore) Write(ctx context.Context, d civil.Date) error {
	doc := watermarkDoc{LastFetchDate: FormatWatermark(d)}
	if err := storeJSON(ctx, s.record, doc); err != nil {
		return fmt.Errorf("write watermark: %w", err)
	}
	return nil
}

// FormatWatermark renders d in WatermarkLayout.
func FormatWatermark(d civil.Date) string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year, int(d.Month), d.Day)
}
