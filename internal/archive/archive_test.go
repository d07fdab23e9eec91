package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/applytrack/internal/jobs"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    string
	}{
		{name: "short", subject: "Your application", want: "Your application.txt"},
		{name: "separators", subject: `Re: a/b\c`, want: "Re: a_b_c.txt"},
		{name: "empty", subject: "", want: "_.txt"},
		{
			name:    "truncated to 50",
			subject: strings.Repeat("x", 49) + "yz-tail",
			want:    strings.Repeat("x", 49) + "y.txt",
		},
		{
			name:    "counts characters not bytes",
			subject: strings.Repeat("é", 60),
			want:    strings.Repeat("é", 50) + ".txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.subject))
		})
	}
}

func TestWriteRaw(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)
	msg := jobs.RawMessage{
		Subject: "Thanks for applying",
		Body:    "We received your application.",
		Date:    civil.Date{Year: 2025, Month: 1, Day: 5},
	}

	require.NoError(t, w.WriteRaw(msg))

	data, err := os.ReadFile(filepath.Join(root, RawDir, "Thanks for applying.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Title: Thanks for applying\nDate: 2025/01/05\nBody:\nWe received your application.\n", string(data))
}

func TestWriteRawOverwritesSameKey(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)
	prefix := strings.Repeat("s", KeyLength)

	first := jobs.RawMessage{Subject: prefix + " one", Body: "first", Date: civil.Date{Year: 2025, Month: 1, Day: 1}}
	second := jobs.RawMessage{Subject: prefix + " two", Body: "second", Date: civil.Date{Year: 2025, Month: 1, Day: 2}}
	require.NoError(t, w.WriteRaw(first))
	require.NoError(t, w.WriteRaw(second))

	artifacts, err := w.ListRaw()
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Contains(t, artifacts[0].Content, "second")
}

func TestWriteClassified(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)
	msg := jobs.RawMessage{Subject: "Interview invitation", Date: civil.Date{Year: 2025, Month: 1, Day: 7}}

	t.Run("irrelevant writes nothing", func(t *testing.T) {
		require.NoError(t, w.WriteClassified(msg, jobs.Irrelevant()))
		require.NoError(t, w.WriteClassified(msg, jobs.Unparseable("???")))
		_, err := os.Stat(w.CleanedPath(msg))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("application writes four lines", func(t *testing.T) {
		res := jobs.Relevant(jobs.Application{
			Role:    "SWE",
			Company: "Google",
			Status:  jobs.StatusInterview,
			Date:    civil.Date{Year: 2025, Month: 1, Day: 7},
		})
		require.NoError(t, w.WriteClassified(msg, res))

		data, err := os.ReadFile(filepath.Join(root, CleanedDir, "Interview invitation.txt"))
		require.NoError(t, err)
		assert.Equal(t, "Job Role: SWE\nCompany: Google\nStatus: interview\nDate: 01/07/2025\n", string(data))
	})

	t.Run("irrelevant leaves stale artifact untouched", func(t *testing.T) {
		require.NoError(t, w.WriteClassified(msg, jobs.Irrelevant()))
		_, err := os.Stat(w.CleanedPath(msg))
		assert.NoError(t, err)
	})
}

func TestFormatApplication(t *testing.T) {
	tests := []struct {
		name string
		date civil.Date
		want string
	}{
		{name: "pads month and day", date: civil.Date{Year: 2025, Month: 3, Day: 4}, want: "Date: 03/04/2025\n"},
		{name: "two digit fields", date: civil.Date{Year: 2024, Month: 12, Day: 31}, want: "Date: 12/31/2024\n"},
		{name: "leap day", date: civil.Date{Year: 2024, Month: 2, Day: 29}, want: "Date: 02/29/2024\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatApplication(jobs.Application{Role: "SWE", Company: "Acme", Status: "Applied", Date: tt.date})
			assert.True(t, strings.HasPrefix(got, "Job Role: SWE\nCompany: Acme\nStatus: Applied\n"))
			assert.True(t, strings.HasSuffix(got, tt.want), got)
		})
	}
}

func TestListRaw(t *testing.T) {
	w := NewWriter(t.TempDir())

	artifacts, err := w.ListRaw()
	require.NoError(t, err)
	assert.Empty(t, artifacts)

	for _, s := range []string{"b", "a"} {
		require.NoError(t, w.WriteRaw(jobs.RawMessage{Subject: s}))
	}
	// Non-artifact files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(w.RawRoot(), "notes.md"), []byte("x"), 0o644))

	artifacts, err = w.ListRaw()
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, "a.txt", artifacts[0].Name)
	assert.Equal(t, "b.txt", artifacts[1].Name)
}
