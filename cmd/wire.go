package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/valkey-io/valkey-go"

	"github.com/teemow/applytrack/internal/archive"
	"github.com/teemow/applytrack/internal/classifier"
	"github.com/teemow/applytrack/internal/config"
	"github.com/teemow/applytrack/internal/gmail"
	"github.com/teemow/applytrack/internal/google"
	"github.com/teemow/applytrack/internal/instrumentation"
	"github.com/teemow/applytrack/internal/pipeline"
	"github.com/teemow/applytrack/internal/retrieval"
	"github.com/teemow/applytrack/internal/sheets"
	"github.com/teemow/applytrack/internal/state"
)

// lockFile is flocked by every pipeline run against the same data dir.
const lockFile = ".pipeline.lock"

// app builds the service components from the loaded configuration. Each
// builder creates its clients on demand, so commands only need the
// credentials they use.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	mu     sync.Mutex
	valkey valkey.Client
}

func newApp(cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) *app {
	return &app{cfg: cfg, logger: logger, metrics: metrics}
}

// Close releases shared clients.
func (a *app) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.valkey != nil {
		a.valkey.Close()
		a.valkey = nil
	}
}

func (a *app) googleConfig() google.Config {
	return google.Config{
		ClientID:     a.cfg.Google.ClientID,
		ClientSecret: a.cfg.Google.ClientSecret,
		TokenFile:    a.cfg.Google.TokenFile,
		RedirectURL:  a.cfg.Google.RedirectURL,
	}
}

// record returns the state record called name on the configured backend.
func (a *app) record(name string) (state.Record, error) {
	switch a.cfg.State.Backend {
	case config.BackendValkey:
		client, err := a.valkeyClient()
		if err != nil {
			return nil, err
		}
		return state.NewValkeyRecord(client, a.cfg.State.Valkey.KeyPrefix, name), nil
	case config.BackendFile, "":
		return state.NewFileRecord(a.cfg.Path(name)), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", a.cfg.State.Backend)
	}
}

// runLock returns the lock shared by every host on the valkey backend, or
// nil when runs are serialized by the local lock file.
func (a *app) runLock() (pipeline.Locker, error) {
	if a.cfg.State.Backend != config.BackendValkey {
		return nil, nil
	}
	client, err := a.valkeyClient()
	if err != nil {
		return nil, err
	}
	return state.NewValkeyLock(client, a.cfg.State.Valkey.KeyPrefix, "pipeline.lock", 0), nil
}

func (a *app) valkeyClient() (valkey.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.valkey == nil {
		client, err := state.NewValkeyClient(state.ValkeyConfig{
			Addr:      a.cfg.State.Valkey.Addr,
			Password:  a.cfg.State.Valkey.Password,
			DB:        a.cfg.State.Valkey.DB,
			KeyPrefix: a.cfg.State.Valkey.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		a.valkey = client
	}
	return a.valkey, nil
}

func (a *app) archive() *archive.Writer {
	return archive.NewWriter(a.cfg.DataDir)
}

func (a *app) completer() (classifier.Completer, error) {
	return classifier.NewOpenAICompleter(classifier.OpenAIConfig{
		APIKey:  a.cfg.OpenAI.APIKey,
		BaseURL: a.cfg.OpenAI.BaseURL,
		Model:   a.cfg.OpenAI.Model,
	})
}

func (a *app) newPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	mail, err := gmail.NewClient(ctx, a.googleConfig(), a.metrics)
	if err != nil {
		return nil, err
	}
	completer, err := a.completer()
	if err != nil {
		return nil, err
	}
	rec, err := a.record(state.WatermarkFile)
	if err != nil {
		return nil, err
	}
	lock, err := a.runLock()
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Options{
		Fetcher: gmail.NewReader(mail, gmail.ReaderConfig{
			Lookback:       a.cfg.Lookback(),
			RequestTimeout: a.cfg.Gmail.RequestTimeout,
		}, a.logger),
		Classifier: classifier.New(completer, classifier.Config{
			MaxAttempts:       a.cfg.Classifier.MaxAttempts,
			AttemptTimeout:    a.cfg.Classifier.AttemptTimeout,
			RequestsPerSecond: a.cfg.Classifier.RequestsPerSecond,
			Burst:             a.cfg.Classifier.Burst,
		}, a.metrics, a.logger),
		Archive:    a.archive(),
		Watermarks: state.NewWatermarkStore(rec),
		Workers:    a.cfg.Pipeline.Workers,
		Lock:       lock,
		LockPath:   a.cfg.Path(lockFile),
		Metrics:    a.metrics,
		Logger:     a.logger,
	})
}

func (a *app) newTracker(ctx context.Context) (*sheets.Tracker, error) {
	client, err := sheets.NewClient(ctx, a.googleConfig(), a.metrics)
	if err != nil {
		return nil, err
	}
	rec, err := a.record(state.SpreadsheetIDFile)
	if err != nil {
		return nil, err
	}
	id, err := sheets.Bootstrap(ctx, client, state.NewSpreadsheetIDStore(rec), a.logger)
	if err != nil {
		return nil, err
	}
	return sheets.NewTracker(client, id, a.logger), nil
}

func (a *app) newIndex() (*retrieval.Index, error) {
	completer, err := a.completer()
	if err != nil {
		return nil, err
	}
	return retrieval.NewIndex(a.archive(), completer, retrieval.Config{TopK: a.cfg.Retrieval.TopK}, a.logger), nil
}
