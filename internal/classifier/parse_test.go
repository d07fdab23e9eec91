package classifier

import (
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/applytrack/internal/jobs"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		wantKind    jobs.Kind
		wantApp     jobs.Application
		wantFailure bool
	}{
		{
			name:     "irrelevant marker",
			reply:    "irrelevant email",
			wantKind: jobs.KindIrrelevant,
		},
		{
			name:     "irrelevant any case inside sentence",
			reply:    "This message is IRRELEVANT to job search.",
			wantKind: jobs.KindIrrelevant,
		},
		{
			name:     "four lines",
			reply:    "Job Role: SWE\nCompany: Google\nStatus: interview\nDate: 01/07/2025",
			wantKind: jobs.KindApplication,
			wantApp: jobs.Application{
				Role: "SWE", Company: "Google", Status: jobs.StatusInterview,
				Date: civil.Date{Year: 2025, Month: 1, Day: 7},
			},
		},
		{
			name:     "blank lines and padding",
			reply:    "\n  job role:  Data Engineer \n\nCOMPANY: Acme Corp\nStatus: OA\n date : 1/9/2025 \n",
			wantKind: jobs.KindApplication,
			wantApp: jobs.Application{
				Role: "Data Engineer", Company: "Acme Corp", Status: jobs.StatusOA,
				Date: civil.Date{Year: 2025, Month: 1, Day: 9},
			},
		},
		{
			name:     "status echoed with hint",
			reply:    "Job Role: PM\nCompany: Initech\nStatus: rejected (submitted/OA/interview/rejected)\nDate: 02/14/2025",
			wantKind: jobs.KindApplication,
			wantApp: jobs.Application{
				Role: "PM", Company: "Initech", Status: jobs.StatusRejected,
				Date: civil.Date{Year: 2025, Month: 2, Day: 14},
			},
		},
		{
			name:     "unknown status maps to other",
			reply:    "Job Role: SRE\nCompany: Hooli\nStatus: offer\nDate: 03/01/2025",
			wantKind: jobs.KindApplication,
			wantApp: jobs.Application{
				Role: "SRE", Company: "Hooli", Status: jobs.StatusOther,
				Date: civil.Date{Year: 2025, Month: 3, Day: 1},
			},
		},
		{
			name:        "missing field",
			reply:       "Job Role: SWE\nCompany: Google\nStatus: interview",
			wantKind:    jobs.KindIrrelevant,
			wantFailure: true,
		},
		{
			name:        "bad date",
			reply:       "Job Role: SWE\nCompany: Google\nStatus: interview\nDate: 2025-01-07",
			wantKind:    jobs.KindIrrelevant,
			wantFailure: true,
		},
		{
			name:        "free text",
			reply:       "I think this is about a job, maybe.",
			wantKind:    jobs.KindIrrelevant,
			wantFailure: true,
		},
		{
			name:        "empty",
			reply:       "",
			wantKind:    jobs.KindIrrelevant,
			wantFailure: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.reply)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantFailure, got.ParseFailed)
			if tt.wantFailure {
				var pe *jobs.ParseError
				require.True(t, errors.As(err, &pe))
				assert.Equal(t, tt.reply, got.Reply)
				return
			}
			require.NoError(t, err)
			if tt.wantKind == jobs.KindApplication {
				assert.Equal(t, tt.wantApp, got.Application)
			}
		})
	}
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	msg := jobs.RawMessage{Subject: "Hello", Body: "World", Date: civil.Date{Year: 2025, Month: 1, Day: 5}}
	p := BuildPrompt(msg)
	assert.Equal(t, p, BuildPrompt(msg))
	assert.Contains(t, p, "Subject: Hello\nBody: World\nDate: 2025/01/05\n")
	assert.Contains(t, p, "'irrelevant email'")
	assert.Contains(t, p, "Job Role: xxx\nCompany: xxx\nStatus: xxx (submitted/OA/interview/rejected)\nDate: mm/dd/yyyy")
}
