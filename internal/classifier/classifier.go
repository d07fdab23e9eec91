package classifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/teemow/applytrack/internal/instrumentation"
	"github.com/teemow/applytrack/internal/jobs"
	"github.com/teemow/applytrack/internal/logging"
)

// Defaults for Config.
const (
	DefaultMaxAttempts    = 3
	DefaultAttemptTimeout = 60 * time.Second
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMaxBackoff     = 10 * time.Second
)

// Config tunes retry and rate limiting. Zero values select defaults.
type Config struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// RequestsPerSecond caps the call rate; 0 disables the limit.
	RequestsPerSecond float64
	Burst             int
}

// Classifier classifies messages with a Completer.
type Classifier struct {
	completer Completer
	cfg       Config
	limiter   *rate.Limiter
	metrics   *instrumentation.Metrics
	logger    *slog.Logger
}

// New returns a Classifier using completer.
func New(completer Completer, cfg Config, metrics *instrumentation.Metrics, logger *slog.Logger) *Classifier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Classifier{
		completer: completer,
		cfg:       cfg,
		limiter:   rate.NewLimiter(limit, burst),
		metrics:   metrics,
		logger:    logging.WithService(logger, "classifier"),
	}
}

// Classify returns the classification of msg.
//
// The returned result is always Irrelevant or an Application. A reply that
// cannot be parsed is logged and returned as Irrelevant with ParseFailed
// set; it is not an error. An error is returned only when the completion
// service could not be reached within the retry budget, as a
// *jobs.ClassificationServiceError (also wrapping jobs.ErrAuth when the
// credentials were rejected).
func (c *Classifier) Classify(ctx context.Context, msg jobs.RawMessage) (jobs.Result, error) {
	ctx, span := instrumentation.StartSpan(ctx, "classifier.classify")
	defer span.End()

	logger := c.logger.With(logging.Subject(msg.Subject))
	prompt := BuildPrompt(msg)
	start := time.Now()

	attempts := 0
	reply, err := backoff.Retry(ctx, func() (string, error) {
		attempts++
		if err := c.limiter.Wait(ctx); err != nil {
			return "", backoff.Permanent(err)
		}
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
		defer cancel()

		out, err := c.completer.Complete(attemptCtx, prompt)
		if err != nil {
			logger.Debug("completion attempt failed", "attempt", attempts, logging.Err(err))
		}
		return out, err
	},
		backoff.WithBackOff(c.backOff()),
		backoff.WithMaxTries(uint(c.cfg.MaxAttempts)),
	)
	if err != nil {
		c.metrics.RecordClassification(ctx, instrumentation.OutcomeFailed, time.Since(start))
		instrumentation.SetSpanError(span, err)
		logger.Warn("classification failed", "attempts", attempts, logging.Err(err))
		return jobs.Irrelevant(), &jobs.ClassificationServiceError{Attempts: attempts, Err: err}
	}

	result, perr := Parse(reply)
	if perr != nil {
		logger.Warn("unparseable classification reply", logging.Err(perr), "reply", reply)
		c.metrics.RecordClassification(ctx, instrumentation.OutcomeParseFailure, time.Since(start))
		return result, nil
	}

	outcome := instrumentation.OutcomeIrrelevant
	if result.IsApplication() {
		outcome = instrumentation.OutcomeApplication
		logger.Info("classified application",
			"role", result.Application.Role,
			"company", result.Application.Company,
			logging.Status(result.Application.Status.String()))
	} else {
		logger.Debug("classified irrelevant")
	}
	c.metrics.RecordClassification(ctx, outcome, time.Since(start))
	instrumentation.SetSpanSuccess(span)
	return result, nil
}

func (c *Classifier) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.MaxInterval = c.cfg.MaxBackoff
	return b
}
