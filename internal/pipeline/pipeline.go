package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/applytrack/internal/archive"
	"github.com/teemow/applytrack/internal/fsutil"
	"github.com/teemow/applytrack/internal/instrumentation"
	"github.com/teemow/applytrack/internal/jobs"
	"github.com/teemow/applytrack/internal/logging"
)

// DefaultWorkers is the size of the processing pool.
const DefaultWorkers = 4

var (
	// ErrIncompleteRun is returned when some artifact could not be written.
	// The watermark is left unchanged so the next run fetches the same
	// window again.
	ErrIncompleteRun = errors.New("pipeline run incomplete: watermark not advanced")

	// ErrRunInProgress is returned when another run holds the pipeline.
	ErrRunInProgress = errors.New("a pipeline run is already in progress")
)

// Fetcher lists the messages received since a day.
type Fetcher interface {
	Fetch(ctx context.Context, since *civil.Date) ([]jobs.RawMessage, error)
}

// Classifier assigns a verdict to a message.
type Classifier interface {
	Classify(ctx context.Context, msg jobs.RawMessage) (jobs.Result, error)
}

// Archive persists per-message artifacts.
type Archive interface {
	WriteRaw(msg jobs.RawMessage) error
	WriteClassified(msg jobs.RawMessage, result jobs.Result) error
}

// Watermarks stores the date of the last committed fetch.
type Watermarks interface {
	Read(ctx context.Context) (*civil.Date, error)
	Write(ctx context.Context, d civil.Date) error
}

// Locker serializes runs across processes. WithLock must return an error
// wrapping fsutil.ErrLocked, without calling fn, when the lock is taken.
type Locker interface {
	WithLock(ctx context.Context, fn func() error) error
}

// Options holds the collaborators of a Pipeline.
type Options struct {
	Fetcher    Fetcher
	Classifier Classifier
	Archive    Archive
	Watermarks Watermarks

	// Workers bounds concurrent message processing. 1 processes messages
	// strictly one after the other.
	Workers int
	// Lock, when set, is held for the duration of a run and takes
	// precedence over LockPath.
	Lock Locker
	// LockPath, when set, is flocked for the duration of a run.
	LockPath string

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Pipeline runs fetch, classify and archive passes.
type Pipeline struct {
	opts   Options
	logger *slog.Logger

	running sync.Mutex
	state   atomic.Int32
}

// New returns a Pipeline. Fetcher, Classifier, Archive and Watermarks are
// required.
func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.Fetcher == nil:
		return nil, errors.New("pipeline: fetcher is required")
	case opts.Classifier == nil:
		return nil, errors.New("pipeline: classifier is required")
	case opts.Archive == nil:
		return nil, errors.New("pipeline: archive is required")
	case opts.Watermarks == nil:
		return nil, errors.New("pipeline: watermark store is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{opts: opts, logger: logging.WithOperation(logger, "pipeline.run")}, nil
}

// State returns the current phase.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Run performs one pass. The report is filled in as far as the run got,
// also when an error is returned.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	if !p.running.TryLock() {
		return Report{}, ErrRunInProgress
	}
	defer p.running.Unlock()

	report := Report{RunID: uuid.NewString()}
	logger := logging.WithRunID(p.logger, report.RunID)

	ctx, span := instrumentation.StartSpan(ctx, "pipeline.run", attribute.String(instrumentation.SpanAttrRunID, report.RunID))
	defer span.End()
	start := time.Now()

	run := func() error { return p.run(ctx, logger, &report) }
	var err error
	switch {
	case p.opts.Lock != nil:
		err = p.opts.Lock.WithLock(ctx, run)
	case p.opts.LockPath != "":
		err = fsutil.WithTryLock(p.opts.LockPath, run)
	default:
		err = run()
	}
	if errors.Is(err, fsutil.ErrLocked) {
		err = fmt.Errorf("%w: %w", ErrRunInProgress, err)
	}
	p.setState(logger, StateIdle)

	status := instrumentation.StatusSuccess
	switch {
	case err != nil:
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
		logger.Error("pipeline run failed", logging.Err(err), slog.Int("fetched", report.Fetched))
	case report.Failed > 0:
		status = instrumentation.StatusPartial
		logger.Warn("pipeline run finished with failures", slog.Int("failed", report.Failed))
	default:
		instrumentation.SetSpanSuccess(span)
	}
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrMessages, report.Fetched))
	p.opts.Metrics.RecordPipelineRun(ctx, status, time.Since(start))

	logger.Info("pipeline run finished",
		logging.Status(status),
		slog.Int("fetched", report.Fetched),
		slog.Int("applications", report.Applications),
		slog.Int("irrelevant", report.Irrelevant),
		slog.Int("parse_failures", report.ParseFailures),
		slog.Int("failed", report.Failed),
		slog.Bool("committed", report.Committed),
		slog.Duration(logging.KeyDuration, time.Since(start)))

	return report, err
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, report *Report) error {
	p.setState(logger, StateFetching)

	watermark, err := p.opts.Watermarks.Read(ctx)
	if err != nil {
		return err
	}
	report.Watermark = watermark

	msgs, err := p.opts.Fetcher.Fetch(ctx, watermark)
	if err != nil {
		return err
	}
	report.Fetched = len(msgs)

	p.setState(logger, StateProcessing)
	outcomes, err := p.process(ctx, logger, msgs)
	writeFailed := p.tally(ctx, report, msgs, outcomes)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if writeFailed {
		return ErrIncompleteRun
	}

	if len(msgs) == 0 {
		logger.Debug("nothing fetched, watermark unchanged")
		return nil
	}

	p.setState(logger, StateCommitting)
	next := maxDate(msgs)
	if watermark != nil && watermark.After(next) {
		next = *watermark
	}
	if err := p.opts.Watermarks.Write(ctx, next); err != nil {
		return err
	}
	report.Watermark = &next
	report.Committed = true
	instrumentation.AddSpanEvent(trace.SpanFromContext(ctx), "watermark.committed",
		attribute.String(instrumentation.SpanAttrWatermark, next.String()))
	return nil
}

// outcome is the result of processing one message.
type outcome struct {
	result jobs.Result
	// classifyErr is set when the completion service failed.
	classifyErr error
	// writeErr is set when an artifact could not be written.
	writeErr error
	// skipped is set when the run was cancelled before the message started.
	skipped bool
}

// process handles every message with at most Workers in flight. Messages
// that share an artifact key form one lane and are processed in fetch order
// by a single worker, so the later message owns both artifacts. It returns
// early only when the completion service rejects the credentials, since no
// later message can succeed either.
func (p *Pipeline) process(ctx context.Context, logger *slog.Logger, msgs []jobs.RawMessage) ([]outcome, error) {
	outcomes := make([]outcome, len(msgs))
	for i := range outcomes {
		outcomes[i].skipped = true
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for _, lane := range lanes(msgs) {
		g.Go(func() error {
			for _, i := range lane {
				if gctx.Err() != nil {
					return nil
				}
				o := p.processOne(gctx, logger, msgs[i])
				outcomes[i] = o
				if errors.Is(o.classifyErr, jobs.ErrAuth) {
					return o.classifyErr
				}
			}
			return nil
		})
	}
	return outcomes, g.Wait()
}

// lanes groups message indexes by artifact key. Lanes are ordered by their
// first message and hold indexes in fetch order.
func lanes(msgs []jobs.RawMessage) [][]int {
	byKey := make(map[string]int, len(msgs))
	var out [][]int
	for i, msg := range msgs {
		key := archive.Key(msg.Subject)
		n, ok := byKey[key]
		if !ok {
			n = len(out)
			byKey[key] = n
			out = append(out, nil)
		}
		out[n] = append(out[n], i)
	}
	return out
}

func (p *Pipeline) processOne(ctx context.Context, logger *slog.Logger, msg jobs.RawMessage) outcome {
	logger = logger.With(logging.MessageID(msg.ID), logging.Subject(msg.Subject))

	if err := p.opts.Archive.WriteRaw(msg); err != nil {
		logger.Error("failed to write raw artifact", logging.Err(err))
		return outcome{writeErr: err}
	}

	result, err := p.opts.Classifier.Classify(ctx, msg)
	if err != nil {
		logger.Warn("classification failed", logging.Err(err))
		return outcome{classifyErr: err}
	}

	if err := p.opts.Archive.WriteClassified(msg, result); err != nil {
		logger.Error("failed to write cleaned artifact", logging.Err(err))
		return outcome{result: result, writeErr: err}
	}

	logger.Debug("message processed", slog.String("kind", result.Kind.String()))
	return outcome{result: result}
}

// tally folds outcomes into report in fetch order. It reports whether any
// artifact write failed.
func (p *Pipeline) tally(ctx context.Context, report *Report, msgs []jobs.RawMessage, outcomes []outcome) bool {
	writeFailed := false
	for i, o := range outcomes {
		msg := msgs[i]
		switch {
		case o.skipped:
			continue
		case o.writeErr != nil:
			writeFailed = true
			report.Failed++
			report.Errors = append(report.Errors, messageError(msg, o.writeErr))
			p.opts.Metrics.RecordPipelineMessage(ctx, instrumentation.OutcomeFailed)
			if o.result.IsApplication() {
				// Classified, but the cleaned artifact is missing.
				report.Classified++
				report.Applications++
			}
			continue
		case o.classifyErr != nil:
			report.Failed++
			report.Errors = append(report.Errors, messageError(msg, o.classifyErr))
			p.opts.Metrics.RecordPipelineMessage(ctx, instrumentation.OutcomeFailed)
			continue
		}

		report.Classified++
		switch {
		case o.result.IsApplication():
			report.Applications++
			p.opts.Metrics.RecordPipelineMessage(ctx, instrumentation.OutcomeApplication)
		case o.result.ParseFailed:
			report.ParseFailures++
			p.opts.Metrics.RecordPipelineMessage(ctx, instrumentation.OutcomeParseFailure)
		default:
			report.Irrelevant++
			p.opts.Metrics.RecordPipelineMessage(ctx, instrumentation.OutcomeIrrelevant)
		}
	}
	return writeFailed
}

func messageError(msg jobs.RawMessage, err error) string {
	return fmt.Sprintf("%q (%s): %v", msg.Subject, msg.ID, err)
}

func (p *Pipeline) setState(logger *slog.Logger, s State) {
	prev := State(p.state.Swap(int32(s)))
	if prev != s {
		logger.Debug("pipeline state", slog.String("from", prev.String()), slog.String("to", s.String()))
	}
}

// maxDate returns the latest date in msgs, which must be non-empty.
func maxDate(msgs []jobs.RawMessage) civil.Date {
	latest := msgs[0].Date
	for _, m := range msgs[1:] {
		if m.Date.After(latest) {
			latest = m.Date
		}
	}
	return latest
}
