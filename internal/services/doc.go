// Package services defines shared utilities consumed by the transcription
// stage and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp queue job IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent retry semantics.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services
