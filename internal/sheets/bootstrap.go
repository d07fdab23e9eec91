package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/applytrack/internal/state"
)

// SpreadsheetTitle is the title of a spreadsheet created by Bootstrap.
const SpreadsheetTitle = "Job Application Status"

// Bootstrap returns the id of the tracking spreadsheet. The id is read from
// store; when none is stored a spreadsheet is created and its id persisted,
// so repeated calls return the same id.
func Bootstrap(ctx context.Context, svc Service, store *state.SpreadsheetIDStore, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	id, err := store.Read(ctx)
	if err != nil {
		return "", err
	}
	if id != "" {
		logger.Debug("using existing spreadsheet", slog.String("spreadsheet_id", id))
		return id, nil
	}

	id, err = svc.Create(ctx, SpreadsheetTitle, SheetTitle)
	if err != nil {
		return "", fmt.Errorf("bootstrap spreadsheet: %w", err)
	}
	if err := store.Write(ctx, id); err != nil {
		return "", fmt.Errorf("bootstrap spreadsheet %s: %w", id, err)
	}

	logger.Info("created spreadsheet", slog.String("spreadsheet_id", id))
	return id, nil
}
