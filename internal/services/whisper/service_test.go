package whisper

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeResultJSON(t *testing.T, path string, payload whisperPayload) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
}

func TestBuildArgsDefaults(t *testing.T) {
	svc := NewService(Config{}, "", "")
	args := svc.buildArgs("/tmp/clip.wav", "/tmp/out")

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--model base") {
		t.Fatalf("expected default model, got %v", args)
	}
	if !strings.Contains(joined, "--task transcribe") {
		t.Fatalf("expected transcribe task, got %v", args)
	}
	if strings.Contains(joined, "--language") {
		t.Fatalf("expected no language flag when unset, got %v", args)
	}
	if strings.Contains(joined, "--threads") {
		t.Fatalf("expected no threads flag when unset, got %v", args)
	}
}

func TestBuildArgsFullConfig(t *testing.T) {
	svc := NewService(Config{
		Model:     "small",
		Language:  "en",
		Translate: true,
		Threads:   4,
		CacheDir:  "/tmp/cache",
	}, "", "")
	args := svc.buildArgs("/tmp/clip.wav", "/tmp/out")

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"--model small",
		"--task translate",
		"--language en",
		"--threads 4",
		"--model_dir /tmp/cache",
		"--output_format json",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in args, got %v", want, args)
		}
	}
}

func TestTranscribeFileParsesOutput(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "clip.wav")
	if err := os.WriteFile(source, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	svc := NewService(Config{Model: "tiny"}, "", "")
	var gotBinary string
	var gotArgs []string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotBinary = name
		gotArgs = args
		writeResultJSON(t, filepath.Join(dir, "clip.json"), whisperPayload{
			Text:     " hello there ",
			Language: "en",
			Segments: []Segment{{Start: 0, End: 1.5, Text: "hello there"}},
		})
		return nil
	})

	result, err := svc.TranscribeFile(context.Background(), source, dir)
	if err != nil {
		t.Fatalf("TranscribeFile failed: %v", err)
	}
	if gotBinary != "whisper" {
		t.Fatalf("expected whisper binary, got %q", gotBinary)
	}
	if gotArgs[0] != source {
		t.Fatalf("expected source as first arg, got %v", gotArgs)
	}
	if result.Text != "hello there" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if result.Language != "en" {
		t.Fatalf("unexpected language: %q", result.Language)
	}
	if len(result.Segments) != 1 || result.Segments[0].End != 1.5 {
		t.Fatalf("unexpected segments: %#v", result.Segments)
	}
}

func TestTranscribeFileJoinsSegmentsWhenTextEmpty(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "clip.wav")
	if err := os.WriteFile(source, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	svc := NewService(Config{}, "", "")
	svc.WithCommandRunner(func(_ context.Context, _ string, _ ...string) error {
		writeResultJSON(t, filepath.Join(dir, "clip.json"), whisperPayload{
			Segments: []Segment{
				{Text: " first part "},
				{Text: "second part"},
				{Text: "   "},
			},
		})
		return nil
	})

	result, err := svc.TranscribeFile(context.Background(), source, dir)
	if err != nil {
		t.Fatalf("TranscribeFile failed: %v", err)
	}
	if result.Text != "first part second part" {
		t.Fatalf("unexpected joined text: %q", result.Text)
	}
}

func TestTranscribeFileConvertsNonWAVInput(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "clip.mp3")
	if err := os.WriteFile(source, []byte("ID3"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	svc := NewService(Config{}, "", "")
	var calls [][]string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		calls = append(calls, append([]string{name}, args...))
		if name == "whisper" {
			writeResultJSON(t, filepath.Join(dir, "clip.json"), whisperPayload{Text: "converted"})
		}
		return nil
	})

	result, err := svc.TranscribeFile(context.Background(), source, dir)
	if err != nil {
		t.Fatalf("TranscribeFile failed: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected ffmpeg then whisper, got %v", calls)
	}
	if calls[0][0] != "ffmpeg" {
		t.Fatalf("expected ffmpeg first, got %v", calls[0])
	}
	joined := strings.Join(calls[0], " ")
	if !strings.Contains(joined, "-ar 16000") || !strings.Contains(joined, "-ac 1") {
		t.Fatalf("expected 16kHz mono conversion, got %v", calls[0])
	}
	wavPath := filepath.Join(dir, "clip.wav")
	if calls[1][1] != wavPath {
		t.Fatalf("expected whisper to receive converted wav, got %v", calls[1])
	}
	if result.Text != "converted" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
}

func TestModelDownloaded(t *testing.T) {
	cache := t.TempDir()
	if ModelDownloaded(cache, "base") {
		t.Fatal("expected missing checkpoint to report not downloaded")
	}
	if err := os.WriteFile(ModelPath(cache, "base"), []byte("weights"), 0o644); err != nil {
		t.Fatalf("write checkpoint: %v", err)
	}
	if !ModelDownloaded(cache, "base") {
		t.Fatal("expected checkpoint to report downloaded")
	}
	if ModelDownloaded(cache, "large") {
		t.Fatal("expected other tier to remain missing")
	}
}
