package jobs

import (
	"cloud.google.com/go/civil"
)

// DefaultSubject is used when a message carries no Subject header.
const DefaultSubject = "No Subject"

// RawMessage is a single email as fetched from the mailbox.
type RawMessage struct {
	// ID is the provider message id. It is carried for diagnostics only;
	// artifacts are keyed by subject.
	ID      string
	Subject string
	Body    string
	// Date is the calendar day (UTC) the provider received the message.
	Date civil.Date
}

// Kind discriminates classification results.
type Kind int

const (
	// KindIrrelevant marks a message that is not about a job application.
	KindIrrelevant Kind = iota
	// KindApplication marks a message that reports an application event.
	KindApplication
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindApplication:
		return "application"
	default:
		return "irrelevant"
	}
}

// Application is the structured payload extracted from a relevant message.
type Application struct {
	Role    string
	Company string
	Status  Status
	Date    civil.Date
}

// Result is the outcome of classifying one message.
//
// Application is only meaningful when Kind is KindApplication. A reply that
// matched neither expected shape is reported as KindIrrelevant with
// ParseFailed set, so callers can tell "the model said no" apart from
// "the model said something unreadable".
type Result struct {
	Kind        Kind
	Application Application
	ParseFailed bool
	Reply       string
}

// Irrelevant returns an irrelevant result.
func Irrelevant() Result {
	return Result{Kind: KindIrrelevant}
}

// Unparseable returns an irrelevant result flagged as a parse failure.
func Unparseable(reply string) Result {
	return Result{Kind: KindIrrelevant, ParseFailed: true, Reply: reply}
}

// Relevant returns an application result.
func Relevant(app Application) Result {
	return Result{Kind: KindApplication, Application: app}
}

// IsApplication reports whether the result carries an application payload.
func (r Result) IsApplication() bool {
	return r.Kind == KindApplication
}
