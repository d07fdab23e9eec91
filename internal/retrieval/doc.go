// Package retrieval answers free-form questions about the archived emails.
//
// The Index scores every raw artifact against the question with a simple
// term-frequency weighting, hands the best few to the completion service
// and returns its answer. The corpus is reloaded on the next query after
// a change in the raw artifact directory.
package retrieval
