// Package notifications pushes workflow events to an ntfy topic when one is
// configured. Recording, transcription and error events can be toggled
// individually; with no topic configured every call is a no-op.
package notifications
