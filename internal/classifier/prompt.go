package classifier

import (
	"fmt"

	"github.com/teemow/applytrack/internal/jobs"
	"github.com/teemow/applytrack/internal/state"
)

// IrrelevantMarker is the reply the model gives for unrelated mail.
const IrrelevantMarker = "irrelevant email"

const promptTemplate = `Analyze this email:
Subject: %s
Body: %s
Date: %s
Determine if it's related to job applications. If irrelevant, output '%s'. If relevant, provide output strictly in this format:
Job Role: xxx
Company: xxx
Status: xxx (submitted/OA/interview/rejected)
Date: mm/dd/yyyy`

// BuildPrompt renders the classification prompt for msg. The same message
// always yields the same prompt.
func BuildPrompt(msg jobs.RawMessage) string {
	return fmt.Sprintf(promptTemplate, msg.Subject, msg.Body, state.FormatWatermark(msg.Date), IrrelevantMarker)
}
