package retrieval

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/applytrack/internal/archive"
	"github.com/teemow/applytrack/internal/jobs"
)

type recordingCompleter struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (r *recordingCompleter) Complete(_ context.Context, prompt string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, prompt)
	return r.reply, r.err
}

func writeEmails(t *testing.T, w *archive.Writer, msgs ...jobs.RawMessage) {
	t.Helper()
	for _, m := range msgs {
		require.NoError(t, w.WriteRaw(m))
	}
}

var day = civil.Date{Year: 2024, Month: 3, Day: 1}

func TestIndex_Query(t *testing.T) {
	w := archive.NewWriter(t.TempDir())
	writeEmails(t, w,
		jobs.RawMessage{Subject: "Two Sigma interview invitation", Body: "We would like to schedule an interview.", Date: day},
		jobs.RawMessage{Subject: "Weekly newsletter", Body: "Ten tips for gardening.", Date: day},
		jobs.RawMessage{Subject: "Acme application received", Body: "Thanks for applying to Acme.", Date: day},
	)

	comp := &recordingCompleter{reply: "  You have an interview with Two Sigma.\n"}
	idx := NewIndex(w, comp, Config{TopK: 1}, nil)

	answer, err := idx.Query(context.Background(), "What is the latest on Two Sigma?")
	require.NoError(t, err)
	assert.Equal(t, "You have an interview with Two Sigma.", answer)

	require.Len(t, comp.prompts, 1)
	assert.Contains(t, comp.prompts[0], "Two Sigma interview invitation")
	assert.NotContains(t, comp.prompts[0], "gardening")
	assert.Contains(t, comp.prompts[0], "Question: What is the latest on Two Sigma?")
}

func TestIndex_Query_ShortCircuits(t *testing.T) {
	tests := []struct {
		name     string
		emails   []jobs.RawMessage
		question string
		want     string
	}{
		{name: "empty corpus", question: "Acme?", want: NoEmailsAnswer},
		{
			name:     "no match",
			emails:   []jobs.RawMessage{{Subject: "Newsletter", Body: "gardening", Date: day}},
			question: "Globex offer",
			want:     NoMatchesAnswer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := archive.NewWriter(t.TempDir())
			writeEmails(t, w, tt.emails...)
			comp := &recordingCompleter{}

			got, err := NewIndex(w, comp, Config{}, nil).Query(context.Background(), tt.question)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, comp.prompts)
		})
	}
}

func TestIndex_Query_Errors(t *testing.T) {
	w := archive.NewWriter(t.TempDir())
	writeEmails(t, w, jobs.RawMessage{Subject: "Acme", Body: "offer", Date: day})

	_, err := NewIndex(w, &recordingCompleter{}, Config{}, nil).Query(context.Background(), "  ")
	assert.True(t, jobs.IsValidation(err))

	boom := errors.New("rate limited")
	_, err = NewIndex(w, &recordingCompleter{err: boom}, Config{}, nil).Query(context.Background(), "Acme offer")
	assert.ErrorIs(t, err, boom)
}

func TestIndex_ReloadsAfterInvalidate(t *testing.T) {
	w := archive.NewWriter(t.TempDir())
	idx := NewIndex(w, &recordingCompleter{}, Config{}, nil)

	hits, total, err := idx.Search("globex")
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, hits)

	writeEmails(t, w, jobs.RawMessage{Subject: "Globex offer", Body: "Congratulations", Date: day})

	_, total, err = idx.Search("globex")
	require.NoError(t, err)
	assert.Zero(t, total, "cached until invalidated")

	idx.Invalidate()
	hits, total, err = idx.Search("globex")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, hits, 1)
	assert.Equal(t, "Globex offer.txt", hits[0].Name)
}

func TestIndex_Watch(t *testing.T) {
	w := archive.NewWriter(t.TempDir())
	idx := NewIndex(w, &recordingCompleter{}, Config{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- idx.Watch(ctx) }()

	// Prime the cache, then change the directory underneath it.
	_, _, err := idx.Search("initech")
	require.NoError(t, err)

	writeEmails(t, w, jobs.RawMessage{Subject: "Initech recruiter", Body: "Let's talk", Date: day})

	assert.Eventually(t, func() bool {
		hits, _, err := idx.Search("initech")
		return err == nil && len(hits) == 1
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestRank(t *testing.T) {
	docs := []document{
		newDocument(archive.Artifact{Name: "a.txt", Content: "acme acme acme interview"}),
		newDocument(archive.Artifact{Name: "b.txt", Content: "acme rejection"}),
		newDocument(archive.Artifact{Name: "c.txt", Content: "unrelated"}),
	}

	got := rank(docs, "the Acme interview", 5)
	names := make([]string, len(got))
	for i, a := range got {
		names[i] = a.Name
	}
	assert.Equal(t, []string{"a.txt", "b.txt"}, names)

	assert.Empty(t, rank(docs, "the and of", 5), "stopwords only")
	assert.Len(t, rank(docs, "acme", 1), 1)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"two", "sigma", "sde", "2024"}, tokenize("Two-Sigma: SDE (2024)!"))
	assert.Equal(t, "", strings.Join(tokenize("the of and"), ""))
}
