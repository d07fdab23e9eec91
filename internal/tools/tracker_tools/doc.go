// Package tracker_tools registers the job-tracking MCP tools:
//
//   - run_pipeline: fetch, classify and archive new email
//   - add_application: append a row to the tracking spreadsheet
//   - update_application_status: change the status of an existing row
//   - query_emails: answer a question from the archived emails
//
// Every tool reports failures as an error result with a readable message.
package tracker_tools
