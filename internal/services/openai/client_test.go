package openai

import (
	"context"
	"errors"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"

	"scribe/internal/config"
)

type fakeTranscriber struct {
	gotRequest goopenai.AudioRequest
	response   goopenai.AudioResponse
	err        error
}

func (f *fakeTranscriber) CreateTranscription(_ context.Context, request goopenai.AudioRequest) (goopenai.AudioResponse, error) {
	f.gotRequest = request
	return f.response, f.err
}

func TestNewServiceRequiresAPIKey(t *testing.T) {
	if _, err := NewService(config.OpenAI{}, "en"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestNewServiceDefaultsModel(t *testing.T) {
	svc, err := NewService(config.OpenAI{APIKey: "sk-test"}, "en")
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if svc.Model() != goopenai.Whisper1 {
		t.Fatalf("expected whisper-1 default, got %q", svc.Model())
	}
}

func TestTranscribeFileBuildsRequest(t *testing.T) {
	fake := &fakeTranscriber{
		response: goopenai.AudioResponse{
			Text:     " hello world ",
			Language: "english",
			Segments: []struct {
				ID               int     `json:"id"`
				Seek             int     `json:"seek"`
				Start            float64 `json:"start"`
				End              float64 `json:"end"`
				Text             string  `json:"text"`
				Tokens           []int   `json:"tokens"`
				Temperature      float64 `json:"temperature"`
				AvgLogprob       float64 `json:"avg_logprob"`
				CompressionRatio float64 `json:"compression_ratio"`
				NoSpeechProb     float64 `json:"no_speech_prob"`
				Transient        bool    `json:"transient"`
			}{
				{Start: 0, End: 2.5, Text: " hello world "},
			},
		},
	}
	svc := &Service{client: fake, model: "whisper-1", language: "en"}

	result, err := svc.TranscribeFile(context.Background(), "/tmp/clip.wav")
	if err != nil {
		t.Fatalf("TranscribeFile failed: %v", err)
	}
	if fake.gotRequest.FilePath != "/tmp/clip.wav" {
		t.Fatalf("unexpected file path: %q", fake.gotRequest.FilePath)
	}
	if fake.gotRequest.Model != "whisper-1" {
		t.Fatalf("unexpected model: %q", fake.gotRequest.Model)
	}
	if fake.gotRequest.Language != "en" {
		t.Fatalf("unexpected language: %q", fake.gotRequest.Language)
	}
	if result.Text != "hello world" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if len(result.Segments) != 1 || result.Segments[0].End != 2.5 || result.Segments[0].Text != "hello world" {
		t.Fatalf("unexpected segments: %#v", result.Segments)
	}
}

func TestTranscribeFileWrapsErrors(t *testing.T) {
	fake := &fakeTranscriber{err: errors.New("rate limited")}
	svc := &Service{client: fake, model: "whisper-1"}

	if _, err := svc.TranscribeFile(context.Background(), "/tmp/clip.wav"); err == nil {
		t.Fatal("expected error")
	}

	if _, err := svc.TranscribeFile(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty source")
	}
}
