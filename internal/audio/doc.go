// Package audio owns microphone capture and WAV persistence. Capture runs
// through miniaudio (via malgo) at 16 kHz mono signed 16-bit, the format the
// transcription engines expect, so no resampling happens between the
// microphone and the saved recording.
package audio
