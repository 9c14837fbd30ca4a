// Package queue persists transcription jobs in SQLite and exposes the
// lifecycle operations the daemon and CLI share. Jobs move from pending to
// transcribing to completed or failed; the store keeps progress fields and
// heartbeats so stuck work can be reset after an unclean shutdown.
package queue
