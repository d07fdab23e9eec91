// Package google provides OAuth2 authentication for the Google APIs applytrack
// talks to (Gmail and Sheets).
//
// Tokens are cached in a single file written by SaveToken. Refreshing an
// expired access token is left to golang.org/x/oauth2; when the cached token
// is missing or rejected, callers receive an error wrapping jobs.ErrAuth and
// must re-authorize.
package google
