// Package workflow drives the transcription queue. A manager polls the
// store for pending jobs, hands each to the registered stage handler, and
// persists status transitions. Heartbeats keep long transcriptions visible;
// jobs stuck in a processing state after an unclean shutdown are reset at
// daemon startup.
package workflow
