package classifier

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/teemow/applytrack/internal/jobs"
)

var replyDateLayouts = []string{"01/02/2006", "1/2/2006"}

// Parse interprets a model reply.
//
// A reply containing "irrelevant" (any case) is Irrelevant. Otherwise the
// reply must contain the four keyed lines Job Role, Company, Status and
// Date (mm/dd/yyyy); keys are case-insensitive and blank lines or
// surrounding whitespace are ignored. Anything else yields an Unparseable
// result together with a *jobs.ParseError describing what was wrong.
func Parse(reply string) (jobs.Result, error) {
	if strings.Contains(strings.ToLower(reply), "irrelevant") {
		return jobs.Irrelevant(), nil
	}

	fields := map[string]string{}
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return fail(reply, fmt.Sprintf("line %q is not a key: value pair", line))
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if _, known := fieldNames[key]; !known {
			return fail(reply, fmt.Sprintf("unexpected field %q", key))
		}
		fields[fieldNames[key]] = strings.TrimSpace(value)
	}

	for _, name := range []string{"role", "company", "status", "date"} {
		if fields[name] == "" {
			return fail(reply, "missing "+name)
		}
	}

	date, err := parseReplyDate(fields["date"])
	if err != nil {
		return fail(reply, err.Error())
	}

	return jobs.Relevant(jobs.Application{
		Role:    fields["role"],
		Company: fields["company"],
		Status:  jobs.ParseStatus(stripParenthetical(fields["status"])),
		Date:    date,
	}), nil
}

var fieldNames = map[string]string{
	"job role": "role",
	"role":     "role",
	"company":  "company",
	"status":   "status",
	"date":     "date",
}

func parseReplyDate(s string) (civil.Date, error) {
	for _, layout := range replyDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), nil
		}
	}
	return civil.Date{}, fmt.Errorf("date %q is not mm/dd/yyyy", s)
}

func fail(reply, reason string) (jobs.Result, error) {
	return jobs.Unparseable(reply), &jobs.ParseError{Reply: reply, Reason: reason}
}

// stripParenthetical drops a trailing "(...)" hint that models sometimes echo
// back from the template, e.g. "interview (submitted/OA/interview/rejected)".
func stripParenthetical(s string) string {
	if i := strings.Index(s, "("); i > 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
