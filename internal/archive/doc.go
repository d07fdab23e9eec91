// Package archive writes per-message artifacts to disk.
//
// Every fetched message gets a raw artifact under emails/. Messages that
// classify as job applications additionally get a cleaned artifact under
// email_cleaned/ with the same file name. File names are derived from the
// subject (see Key), so two messages whose subjects share the same first 50
// characters map to the same artifact and the later write wins.
package archive
