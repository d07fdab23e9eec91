package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/teemow/applytrack/internal/archive"
	"github.com/teemow/applytrack/internal/classifier"
	"github.com/teemow/applytrack/internal/jobs"
	"github.com/teemow/applytrack/internal/logging"
)

const (
	// DefaultTopK is the number of emails handed to the completion service.
	DefaultTopK = 5
	// DefaultMaxArtifactChars bounds each email in the prompt.
	DefaultMaxArtifactChars = 4000
)

// Answers returned without calling the completion service.
const (
	NoEmailsAnswer  = "No emails have been fetched yet."
	NoMatchesAnswer = "No fetched email matches the question."
)

// Source lists the raw artifacts to index.
type Source interface {
	ListRaw() ([]archive.Artifact, error)
	RawRoot() string
}

// Config tunes retrieval.
type Config struct {
	TopK             int
	MaxArtifactChars int
}

// Index is an in-memory lexical index over the raw artifacts.
type Index struct {
	src       Source
	completer classifier.Completer
	cfg       Config
	logger    *slog.Logger

	mu    sync.Mutex
	docs  []document
	stale bool
}

// NewIndex returns an index over src. It loads lazily on the first query.
func NewIndex(src Source, completer classifier.Completer, cfg Config, logger *slog.Logger) *Index {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxArtifactChars <= 0 {
		cfg.MaxArtifactChars = DefaultMaxArtifactChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		src:       src,
		completer: completer,
		cfg:       cfg,
		logger:    logging.WithOperation(logger, "retrieval"),
		stale:     true,
	}
}

// Invalidate forces a reload on the next query.
func (x *Index) Invalidate() {
	x.mu.Lock()
	x.stale = true
	x.mu.Unlock()
}

// Search returns the artifacts most relevant to question, best first.
func (x *Index) Search(question string) ([]archive.Artifact, int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.stale {
		artifacts, err := x.src.ListRaw()
		if err != nil {
			return nil, 0, fmt.Errorf("load email index: %w", err)
		}
		docs := make([]document, len(artifacts))
		for i, a := range artifacts {
			docs[i] = newDocument(a)
		}
		x.docs = docs
		x.stale = false
		x.logger.Debug("loaded email index", slog.Int("documents", len(docs)))
	}

	return rank(x.docs, question, x.cfg.TopK), len(x.docs), nil
}

// Query answers question from the archived emails.
func (x *Index) Query(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", &jobs.ValidationError{Field: "question", Reason: "must be non-empty"}
	}

	hits, total, err := x.Search(question)
	if err != nil {
		return "", err
	}
	if total == 0 {
		return NoEmailsAnswer, nil
	}
	if len(hits) == 0 {
		return NoMatchesAnswer, nil
	}

	answer, err := x.completer.Complete(ctx, x.prompt(question, hits))
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

func (x *Index) prompt(question string, hits []archive.Artifact) string {
	var b strings.Builder
	b.WriteString("Each document below is a single email message from my mailbox. ")
	b.WriteString("Answer the question using only these emails. ")
	b.WriteString("If they do not contain the answer, say so.\n\n")
	for i, h := range hits {
		fmt.Fprintf(&b, "--- Email %d (%s) ---\n%s\n", i+1, h.Name, logging.Truncate(h.Content, x.cfg.MaxArtifactChars))
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String()
}

// Watch invalidates the index whenever the raw artifact directory changes.
// It blocks until ctx is done.
func (x *Index) Watch(ctx context.Context) error {
	dir := x.src.RawRoot()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	// Anything written before the watch was in place.
	x.Invalidate()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				x.Invalidate()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			x.logger.Warn("email index watcher error", logging.Err(err))
			x.Invalidate()
		}
	}
}
