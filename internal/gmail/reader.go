package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/applytrack/internal/google"
	"github.com/teemow/applytrack/internal/jobs"
	"github.com/teemow/applytrack/internal/logging"
)

const (
	// DefaultLookback is how far back Fetch reaches when no watermark exists.
	DefaultLookback = 3 * 24 * time.Hour

	// DefaultRequestTimeout bounds each individual API call.
	DefaultRequestTimeout = 30 * time.Second
)

// ReaderConfig tunes a Reader. Zero values select defaults.
type ReaderConfig struct {
	Lookback       time.Duration
	RequestTimeout time.Duration
	// Now is the clock used for the default lower bound.
	Now func() time.Time
}

// Reader fetches messages newer than a watermark from a MailService.
type Reader struct {
	svc    MailService
	cfg    ReaderConfig
	logger *slog.Logger
}

// NewReader returns a Reader over svc.
func NewReader(svc MailService, cfg ReaderConfig, logger *slog.Logger) *Reader {
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultLookback
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{svc: svc, cfg: cfg, logger: logging.WithService(logger, "gmail")}
}

// Query returns the search expression for messages on or after since. A
// nil since means now minus the configured lookback.
func (r *Reader) Query(since *civil.Date) string {
	from := civil.DateOf(r.cfg.Now().UTC().Add(-r.cfg.Lookback))
	if since != nil {
		from = *since
	}
	return fmt.Sprintf("after:%04d/%02d/%02d", from.Year, int(from.Month), from.Day)
}

// Fetch returns every message matching Query(since), in the order the mail
// service listed them.
func (r *Reader) Fetch(ctx context.Context, since *civil.Date) ([]jobs.RawMessage, error) {
	query := r.Query(since)
	logger := logging.WithOperation(r.logger, "gmail.fetch")

	ids, err := r.search(ctx, query)
	if err != nil {
		return nil, mailError("search", err)
	}
	logger.Debug("search complete", "query", query, "matches", len(ids))

	msgs := make([]jobs.RawMessage, 0, len(ids))
	for _, id := range ids {
		m, err := r.get(ctx, id)
		if err != nil {
			return nil, mailError("get "+id, err)
		}
		subject := HeaderValue(m, "Subject")
		if subject == "" {
			subject = jobs.DefaultSubject
		}
		msgs = append(msgs, jobs.RawMessage{
			ID:      id,
			Subject: subject,
			Body:    PlainTextBody(m),
			Date:    DeliveryDate(m),
		})
	}

	logger.Info("fetched messages", "query", query, "count", len(msgs))
	return msgs, nil
}

func (r *Reader) search(ctx context.Context, query string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()
	return r.svc.Search(ctx, query)
}

func (r *Reader) get(ctx context.Context, id string) (*gmail.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()
	return r.svc.Get(ctx, id)
}

func mailError(op string, err error) error {
	mse := &jobs.MailServiceError{Op: op, Err: err}
	if google.IsAuthError(err) {
		return fmt.Errorf("%w: %w", jobs.ErrAuth, mse)
	}
	return mse
}
