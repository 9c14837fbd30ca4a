package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Service runs the openai-whisper CLI against audio files.
type Service struct {
	cfg           Config
	whisperBinary string
	ffmpegBinary  string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a Whisper service with the given configuration.
func NewService(cfg Config, whisperBinary, ffmpegBinary string) *Service {
	if whisperBinary == "" {
		whisperBinary = WhisperCommand
	}
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	return &Service{
		cfg:           cfg,
		whisperBinary: whisperBinary,
		ffmpegBinary:  ffmpegBinary,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model tier for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// ModelReady reports whether the configured model checkpoint is cached.
func (s *Service) ModelReady() bool {
	return ModelDownloaded(s.cfg.CacheDir, s.Model())
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Result contains the outcome of a transcription.
type Result struct {
	// Text is the full plain text transcription.
	Text string
	// Language is the language Whisper detected or was told to use.
	Language string
	// Segments are the timed portions of the transcript.
	Segments []Segment
	// JSONPath is the path to the raw Whisper JSON output.
	JSONPath string
}

// Segment represents a transcribed span from Whisper JSON output.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperPayload struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// TranscribeFile transcribes an audio file. Non-WAV input is converted
// through ffmpeg first. outputDir is where Whisper writes its JSON output.
func (s *Service) TranscribeFile(ctx context.Context, source, outputDir string) (Result, error) {
	var result Result

	if source == "" {
		return result, fmt.Errorf("transcribe: source path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	input := source
	if !strings.EqualFold(filepath.Ext(source), ".wav") {
		converted := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))+".wav")
		if err := s.convert(ctx, source, converted); err != nil {
			return result, err
		}
		input = converted
	}

	args := s.buildArgs(input, outputDir)
	if err := s.run(ctx, s.whisperBinary, args...); err != nil {
		return result, fmt.Errorf("whisper: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	result.JSONPath = filepath.Join(outputDir, baseName+".json")

	payload, err := loadPayload(result.JSONPath)
	if err != nil {
		return result, fmt.Errorf("whisper output: %w", err)
	}
	result.Text = strings.TrimSpace(payload.Text)
	if result.Text == "" {
		result.Text = joinSegmentText(payload.Segments)
	}
	result.Language = payload.Language
	result.Segments = payload.Segments
	return result, nil
}

func (s *Service) convert(ctx context.Context, source, dest string) error {
	if s.commandRunner != nil {
		args := []string{
			"-y", "-hide_banner", "-loglevel", "error",
			"-i", source,
			"-vn", "-sn", "-dn",
			"-ac", "1", "-ar", "16000", "-c:a", "pcm_s16le",
			dest,
		}
		return s.commandRunner(ctx, s.ffmpegBinary, args...)
	}
	return ConvertToWAV(ctx, s.ffmpegBinary, source, dest)
}

// buildArgs constructs the whisper CLI arguments.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 16)

	args = append(args,
		source,
		"--model", s.Model(),
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
	)

	task := TaskTranscribe
	if s.cfg.Translate {
		task = TaskTranslate
	}
	args = append(args, "--task", task)

	if s.cfg.Language != "" {
		args = append(args, "--language", s.cfg.Language)
	}
	if s.cfg.Threads > 0 {
		args = append(args, "--threads", strconv.Itoa(s.cfg.Threads))
	}
	if s.cfg.CacheDir != "" {
		args = append(args, "--model_dir", s.cfg.CacheDir)
	}

	return args
}

func loadPayload(jsonPath string) (whisperPayload, error) {
	var payload whisperPayload
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("parse whisper json: %w", err)
	}
	return payload, nil
}

func joinSegmentText(segments []Segment) string {
	var parts []string
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
