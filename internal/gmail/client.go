package gmail

import (
	"context"
	"fmt"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/applytrack/internal/google"
	"github.com/teemow/applytrack/internal/instrumentation"
)

// MailService is the subset of the mailbox API the reader needs.
type MailService interface {
	// Search returns the ids of every message matching query, across all pages.
	Search(ctx context.Context, query string) ([]string, error)
	// Get returns the full message for id.
	Get(ctx context.Context, id string) (*gmail.Message, error)
}

// Client implements MailService over the Gmail v1 API.
type Client struct {
	svc     *gmail.UsersService
	metrics *instrumentation.Metrics
}

// NewClient creates a Gmail client authenticated with the cached OAuth token.
func NewClient(ctx context.Context, cfg google.Config, metrics *instrumentation.Metrics) (*Client, error) {
	httpClient, err := google.HTTPClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{svc: svc.Users, metrics: metrics}, nil
}

// Search implements MailService.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, instrumentation.OperationSearch)
	defer span.End()
	start := time.Now()

	var ids []string
	pageToken := ""
	for {
		req := c.svc.Messages.List("me").Q(query).Context(ctx)
		if pageToken != "" {
			req.PageToken(pageToken)
		}
		res, err := req.Do()
		if err != nil {
			c.record(ctx, instrumentation.OperationSearch, err, start)
			instrumentation.SetSpanError(span, err)
			return nil, err
		}
		for _, m := range res.Messages {
			ids = append(ids, m.Id)
		}
		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	c.record(ctx, instrumentation.OperationSearch, nil, start)
	return ids, nil
}

// Get implements MailService.
func (c *Client) Get(ctx context.Context, id string) (*gmail.Message, error) {
	start := time.Now()
	msg, err := c.svc.Messages.Get("me", id).Format("full").Context(ctx).Do()
	c.record(ctx, instrumentation.OperationGet, err, start)
	return msg, err
}

func (c *Client) record(ctx context.Context, op string, err error, start time.Time) {
	if c.metrics == nil {
		return
	}
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, op, status, time.Since(start))
}
