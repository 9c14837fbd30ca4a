// Package transcriber implements the workflow stage that runs speech-to-text
// over queued recordings. It dispatches to the local whisper CLI or the
// hosted API based on configuration, writes transcript files, and archives
// the source recording when enabled.
package transcriber
