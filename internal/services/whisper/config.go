package whisper

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config captures runtime settings for local Whisper transcription.
type Config struct {
	// Model is the Whisper model tier (tiny, base, small, medium, large).
	Model string
	// Language is an ISO 639-1 hint; empty lets Whisper auto-detect.
	Language string
	// Translate asks Whisper to translate the audio to English.
	Translate bool
	// Threads caps CPU threads; zero lets Whisper decide.
	Threads int
	// CacheDir is where Whisper stores downloaded model checkpoints.
	CacheDir string
}

// Whisper configuration constants.
const (
	DefaultModel   = "base"
	OutputFormat   = "json"
	TaskTranscribe = "transcribe"
	TaskTranslate  = "translate"
)

// Command names for external tools.
const (
	WhisperCommand = "whisper"
	FFmpegCommand  = "ffmpeg"
)

// ModelPath returns the checkpoint path for a model tier inside the cache
// directory.
func ModelPath(cacheDir, model string) string {
	return filepath.Join(cacheDir, fmt.Sprintf("%s.pt", model))
}

// ModelDownloaded reports whether the model checkpoint is already present in
// the cache. A missing checkpoint means the first transcription will download
// it, which can take a while on slow links.
func ModelDownloaded(cacheDir, model string) bool {
	info, err := os.Stat(ModelPath(cacheDir, model))
	return err == nil && !info.IsDir() && info.Size() > 0
}
