// Package whisper invokes the openai-whisper CLI for local speech-to-text.
//
// This package handles:
//   - Format conversion of non-WAV input via ffmpeg
//   - Whisper invocation with model, language and task options
//   - Parsing transcript text and segments from Whisper's JSON output
//   - Model checkpoint cache inspection
package whisper
