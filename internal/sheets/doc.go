// Package sheets keeps the job-application spreadsheet.
//
// A Tracker appends application rows and updates the status column of an
// existing row, keyed by (job title, company) with the first match winning.
// Bootstrap finds or creates the spreadsheet and persists its id so every
// run writes to the same document.
//
// Rows have four columns: job title, company, application date (YYYY-MM-DD)
// and status. Arguments are validated before any remote call.
package sheets
