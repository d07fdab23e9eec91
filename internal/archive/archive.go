package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/teemow/applytrack/internal/fsutil"
	"github.com/teemow/applytrack/internal/jobs"
	"github.com/teemow/applytrack/internal/state"
)

const (
	// RawDir holds one artifact per fetched message.
	RawDir = "emails"
	// CleanedDir holds one artifact per message classified as an application.
	CleanedDir = "email_cleaned"

	// KeyLength is the number of subject characters kept in a key.
	KeyLength = 50

	artifactExt = ".txt"
	// ApplicationDateLayout is the mm/dd/yyyy layout used by cleaned artifacts.
	ApplicationDateLayout = "01/02/2006"
)

// Key derives the artifact file name for a subject: the first KeyLength
// characters with path separators replaced by underscores, plus ".txt".
func Key(subject string) string {
	runes := []rune(subject)
	if len(runes) > KeyLength {
		runes = runes[:KeyLength]
	}
	key := strings.NewReplacer("/", "_", `\`, "_").Replace(string(runes))
	if key == "" {
		key = "_"
	}
	return key + artifactExt
}

// Writer persists raw and cleaned artifacts under a root directory.
type Writer struct {
	root string
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{root: dir}
}

// RawPath returns the raw artifact path for msg.
func (w *Writer) RawPath(msg jobs.RawMessage) string {
	return filepath.Join(w.root, RawDir, Key(msg.Subject))
}

// CleanedPath returns the cleaned artifact path for msg.
func (w *Writer) CleanedPath(msg jobs.RawMessage) string {
	return filepath.Join(w.root, CleanedDir, Key(msg.Subject))
}

// RawRoot returns the directory raw artifacts are written to.
func (w *Writer) RawRoot() string {
	return filepath.Join(w.root, RawDir)
}

// WriteRaw persists subject, date and body of msg, replacing any artifact
// with the same key.
func (w *Writer) WriteRaw(msg jobs.RawMessage) error {
	if err := fsutil.WriteFileAtomic(w.RawPath(msg), []byte(FormatRaw(msg)), 0o644); err != nil {
		return fmt.Errorf("write raw artifact for %q: %w", msg.Subject, err)
	}
	return nil
}

// WriteClassified persists the structured form of result when it is an
// application. Irrelevant results write nothing and leave any existing
// cleaned artifact for the same key in place.
func (w *Writer) WriteClassified(msg jobs.RawMessage, result jobs.Result) error {
	if !result.IsApplication() {
		return nil
	}
	if err := fsutil.WriteFileAtomic(w.CleanedPath(msg), []byte(FormatApplication(result.Application)), 0o644); err != nil {
		return fmt.Errorf("write cleaned artifact for %q: %w", msg.Subject, err)
	}
	return nil
}

// FormatRaw renders the raw artifact body.
func FormatRaw(msg jobs.RawMessage) string {
	return fmt.Sprintf("Title: %s\nDate: %s\nBody:\n%s\n", msg.Subject, state.FormatWatermark(msg.Date), msg.Body)
}

// FormatApplication renders the four-line cleaned artifact body.
func FormatApplication(app jobs.Application) string {
	date := app.Date.In(time.UTC).Format(ApplicationDateLayout)
	return fmt.Sprintf("Job Role: %s\nCompany: %s\nStatus: %s\nDate: %s\n", app.Role, app.Company, app.Status, date)
}

// Artifact is a stored raw message as read back from disk.
type Artifact struct {
	Name    string
	Content string
}

// ListRaw returns every raw artifact, sorted by name. A missing directory
// yields no artifacts.
func (w *Writer) ListRaw() ([]Artifact, error) {
	dir := w.RawRoot()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list raw artifacts: %w", err)
	}

	var artifacts []Artifact
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != artifactExt {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read raw artifact %s: %w", name, err)
		}
		artifacts = append(artifacts, Artifact{Name: name, Content: string(data)})
	}
	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].Name < artifacts[j].Name })
	return artifacts, nil
}
