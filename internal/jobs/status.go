package jobs

import "strings"

// Status is the lifecycle stage of an application as reported by an email.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusOA        Status = "OA"
	StatusInterview Status = "interview"
	StatusRejected  Status = "rejected"
	StatusOther     Status = "other"
)

// statusAliases folds the free-form wording models tend to produce onto the
// closed set. Keys are lowercase with collapsed whitespace.
var statusAliases = map[string]Status{
	"submitted":            StatusSubmitted,
	"applied":              StatusSubmitted,
	"application received": StatusSubmitted,
	"received":             StatusSubmitted,
	"oa":                   StatusOA,
	"online assessment":    StatusOA,
	"assessment":           StatusOA,
	"coding challenge":     StatusOA,
	"interview":            StatusInterview,
	"interview scheduled":  StatusInterview,
	"interviewing":         StatusInterview,
	"rejected":             StatusRejected,
	"rejection":            StatusRejected,
	"declined":             StatusRejected,
	"other":                StatusOther,
}

// ParseStatus maps s onto the closed status set. Matching ignores case and
// surrounding whitespace; anything unrecognised becomes StatusOther.
func ParseStatus(s string) Status {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if st, ok := statusAliases[key]; ok {
		return st
	}
	return StatusOther
}

func (s Status) String() string {
	return string(s)
}
