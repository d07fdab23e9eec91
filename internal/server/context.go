package server

import (
	"context"
	"errors"
	"sync"

	"github.com/teemow/applytrack/internal/instrumentation"
	"github.com/teemow/applytrack/internal/pipeline"
)

// PipelineRunner runs one fetch, classify and archive pass.
type PipelineRunner interface {
	Run(ctx context.Context) (pipeline.Report, error)
}

// ApplicationTracker writes application rows to the spreadsheet.
type ApplicationTracker interface {
	AddApplication(ctx context.Context, role, company, date, status string) error
	UpdateStatus(ctx context.Context, role, company, newStatus string) error
}

// EmailQuerier answers questions about archived emails.
type EmailQuerier interface {
	Query(ctx context.Context, question string) (string, error)
}

// ErrShutdown is returned by accessors after Shutdown.
var ErrShutdown = errors.New("server is shutting down")

// Options configures a ServerContext. Each component is built on first use
// by its constructor, so the server can start before credentials exist;
// a failed construction is retried on the next call.
type Options struct {
	NewPipeline func(ctx context.Context) (PipelineRunner, error)
	NewTracker  func(ctx context.Context) (ApplicationTracker, error)
	NewQuerier  func(ctx context.Context) (EmailQuerier, error)

	Instrumentation *instrumentation.Provider
}

// ServerContext holds the components the MCP tools operate on.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	pipeline lazy[PipelineRunner]
	tracker  lazy[ApplicationTracker]
	querier  lazy[EmailQuerier]

	provider *instrumentation.Provider

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a server context bound to ctx.
func NewServerContext(ctx context.Context, opts Options) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		pipeline: lazy[PipelineRunner]{build: opts.NewPipeline, name: "pipeline"},
		tracker:  lazy[ApplicationTracker]{build: opts.NewTracker, name: "spreadsheet tracker"},
		querier:  lazy[EmailQuerier]{build: opts.NewQuerier, name: "email retrieval"},
		provider: opts.Instrumentation,
	}
}

// Context returns the server context. It is cancelled by Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Pipeline returns the pipeline, building it on first use.
func (sc *ServerContext) Pipeline(ctx context.Context) (PipelineRunner, error) {
	if sc.IsShutdown() {
		return nil, ErrShutdown
	}
	return sc.pipeline.get(ctx)
}

// Tracker returns the spreadsheet tracker, building it on first use.
func (sc *ServerContext) Tracker(ctx context.Context) (ApplicationTracker, error) {
	if sc.IsShutdown() {
		return nil, ErrShutdown
	}
	return sc.tracker.get(ctx)
}

// Querier returns the email retrieval index, building it on first use.
func (sc *ServerContext) Querier(ctx context.Context) (EmailQuerier, error) {
	if sc.IsShutdown() {
		return nil, ErrShutdown
	}
	return sc.querier.get(ctx)
}

// Metrics returns the metrics recorder, or nil without instrumentation.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	if sc == nil || sc.provider == nil {
		return nil
	}
	return sc.provider.Metrics()
}

// AuditLogger returns the tool audit logger, or nil when disabled.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	if sc == nil || sc.provider == nil {
		return nil
	}
	return sc.provider.AuditLogger()
}

// Shutdown cancels the server context. It is safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	return nil
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

type lazy[T any] struct {
	name  string
	build func(ctx context.Context) (T, error)

	mu    sync.Mutex
	value T
	ready bool
}

func (l *lazy[T]) get(ctx context.Context) (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var zero T
	if l.ready {
		return l.value, nil
	}
	if l.build == nil {
		return zero, errors.New(l.name + " is not configured")
	}
	v, err := l.build(ctx)
	if err != nil {
		return zero, err
	}
	l.value, l.ready = v, true
	return v, nil
}
