// Package state persists small single-value records between runs.
//
// A Record stores one opaque JSON document. FileRecord keeps it on local disk
// and replaces it atomically; ValkeyRecord keeps it under a single Valkey key
// for deployments that move between hosts. WatermarkStore and the
// spreadsheet id store are built on top of Record.
package state
