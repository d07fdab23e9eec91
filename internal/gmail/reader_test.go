package gmail

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/teemow/applytrack/internal/jobs"
)

// fakeMailService is an in-memory MailService.
type fakeMailService struct {
	queries   []string
	ids       []string
	messages  map[string]*gmail.Message
	searchErr error
	getErr    error
}

func (f *fakeMailService) Search(_ context.Context, query string) ([]string, error) {
	f.queries = append(f.queries, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.ids, nil
}

func (f *fakeMailService) Get(_ context.Context, id string) (*gmail.Message, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.messages[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return m, nil
}

func message(subject, body string, day time.Time) *gmail.Message {
	m := &gmail.Message{
		InternalDate: day.UnixMilli(),
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Body:     &gmail.MessagePartBody{Data: b64(body)},
		},
	}
	if subject != "" {
		m.Payload.Headers = []*gmail.MessagePartHeader{{Name: "Subject", Value: subject}}
	}
	return m
}

func fixedNow() time.Time {
	return time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
}

func TestReaderQuery(t *testing.T) {
	r := NewReader(&fakeMailService{}, ReaderConfig{Now: fixedNow}, nil)

	assert.Equal(t, "after:2025/01/07", r.Query(nil), "default lookback is three days")

	since := civil.Date{Year: 2024, Month: 12, Day: 31}
	assert.Equal(t, "after:2024/12/31", r.Query(&since))
}

func TestReaderFetch(t *testing.T) {
	svc := &fakeMailService{
		ids: []string{"b", "a"},
		messages: map[string]*gmail.Message{
			"a": message("", "", time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC)),
			"b": message("Interview", "see you", time.Date(2025, 1, 7, 1, 0, 0, 0, time.UTC)),
		},
	}
	r := NewReader(svc, ReaderConfig{Now: fixedNow}, nil)

	since := civil.Date{Year: 2025, Month: 1, Day: 4}
	msgs, err := r.Fetch(context.Background(), &since)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, []string{"after:2025/01/04"}, svc.queries)

	// Service order is preserved.
	assert.Equal(t, "b", msgs[0].ID)
	assert.Equal(t, "Interview", msgs[0].Subject)
	assert.Equal(t, "see you", msgs[0].Body)
	assert.Equal(t, civil.Date{Year: 2025, Month: 1, Day: 7}, msgs[0].Date)

	assert.Equal(t, jobs.DefaultSubject, msgs[1].Subject)
	assert.Equal(t, "", msgs[1].Body)
}

func TestReaderFetchErrors(t *testing.T) {
	tests := []struct {
		name     string
		svc      *fakeMailService
		wantAuth bool
	}{
		{
			name: "search failure",
			svc:  &fakeMailService{searchErr: errors.New("connection reset")},
		},
		{
			name: "get failure",
			svc:  &fakeMailService{ids: []string{"x"}, getErr: errors.New("timeout")},
		},
		{
			name:     "unauthorized",
			svc:      &fakeMailService{searchErr: &googleapi.Error{Code: http.StatusUnauthorized}},
			wantAuth: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(tt.svc, ReaderConfig{Now: fixedNow}, nil).Fetch(context.Background(), nil)
			require.Error(t, err)

			var mse *jobs.MailServiceError
			assert.True(t, errors.As(err, &mse))
			assert.Equal(t, tt.wantAuth, errors.Is(err, jobs.ErrAuth))
		})
	}
}
