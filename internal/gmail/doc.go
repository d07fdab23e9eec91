// Package gmail reads job-search mail from a Gmail mailbox.
//
// Client is a thin wrapper over the Gmail v1 API that satisfies MailService.
// Reader builds on any MailService: it turns a watermark date into an
// "after:" search, fetches every match in full and converts each one into a
// jobs.RawMessage (subject, plain-text body, UTC delivery day).
//
// Errors from the API are wrapped in *jobs.MailServiceError. Rejected
// credentials are additionally marked with jobs.ErrAuth so callers can ask
// the user to re-authorize instead of retrying.
package gmail
