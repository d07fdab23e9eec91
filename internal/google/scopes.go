package google

import (
	gmail "google.golang.org/api/gmail/v1"
	sheets "google.golang.org/api/sheets/v4"
)

// DefaultOAuthScopes are the scopes requested during authorization:
//   - Gmail: read-only, used by the mailbox reader
//   - Sheets: read/write, used by the application tracker
var DefaultOAuthScopes = []string{
	gmail.GmailReadonlyScope,
	sheets.SpreadsheetsScope,
}
