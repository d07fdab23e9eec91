// Package pipeline runs one fetch, classify and archive pass over the
// mailbox.
//
// A run reads the watermark, fetches every message since then, and for
// each message writes its raw artifact, classifies it and writes the
// cleaned artifact when it is an application. Messages are processed by a
// bounded worker pool; the steps for a single message stay in order. The
// watermark advances to the newest message date only after every artifact
// of the batch has been written, so an interrupted run is repeated in full
// by the next one.
package pipeline
