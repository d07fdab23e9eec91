// Package jobs holds the domain types shared by the applytrack pipeline:
// fetched messages, classification results, application statuses and the
// error taxonomy every component reports through.
package jobs
