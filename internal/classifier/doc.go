// Package classifier decides whether an email is about a job application and,
// if so, extracts role, company, status and date from it.
//
// Classification is delegated to a text-completion model behind the Completer
// interface. The model is asked for either the literal "irrelevant email" or
// a four-line template; Parse turns the reply into a jobs.Result. Calls are
// rate limited, bounded by a per-attempt timeout and retried with exponential
// backoff before a *jobs.ClassificationServiceError is returned.
package classifier
