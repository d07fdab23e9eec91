package pipeline

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/teemow/applytrack/internal/state"
)

// Report summarises one run.
type Report struct {
	RunID string

	// Fetched is the number of messages returned by the mailbox.
	Fetched int
	// Classified counts messages the completion service answered for,
	// whatever the verdict.
	Classified    int
	Applications  int
	Irrelevant    int
	ParseFailures int
	// Failed counts messages that could not be archived or classified.
	Failed int
	Errors []string

	// Watermark is the stored watermark after the run; nil if none exists.
	Watermark *civil.Date
	// Committed reports whether this run wrote the watermark.
	Committed bool
}

// Summary renders the report as one line of text.
func (r Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fetched %d email(s), classified %d (%d application(s), %d irrelevant, %d unparseable), %d failed",
		r.Fetched, r.Classified, r.Applications, r.Irrelevant, r.ParseFailures, r.Failed)
	if r.Watermark != nil {
		fmt.Fprintf(&b, "; watermark %s", state.FormatWatermark(*r.Watermark))
		if !r.Committed {
			b.WriteString(" (unchanged)")
		}
	}
	for _, e := range r.Errors {
		b.WriteString("\n- ")
		b.WriteString(e)
	}
	return b.String()
}
