// Package openai wraps the hosted Whisper transcription API as an
// alternative to running the whisper CLI locally.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"scribe/internal/config"
)

// transcriber is the slice of the go-openai client the service uses,
// extracted so tests can stub the network call.
type transcriber interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// Service submits audio files to the hosted transcription endpoint.
type Service struct {
	client   transcriber
	model    string
	language string
}

// NewService builds a client from the openai config section. BaseURL allows
// pointing at any compatible server, such as a local whisper.cpp instance.
func NewService(cfg config.OpenAI, language string) (*Service, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai.api_key is required for the hosted engine")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = openai.Whisper1
	}

	return &Service{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    model,
		language: language,
	}, nil
}

// Model returns the configured API model for logging.
func (s *Service) Model() string {
	return s.model
}

// Result contains the hosted transcription outcome.
type Result struct {
	Text     string
	Language string
	Segments []Segment
}

// Segment is a timed span of transcript text.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// TranscribeFile uploads the audio file and returns the transcript.
func (s *Service) TranscribeFile(ctx context.Context, source string) (Result, error) {
	var result Result
	if source == "" {
		return result, errors.New("transcribe: source path required")
	}

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.model,
		FilePath: source,
		Language: s.language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return result, fmt.Errorf("hosted transcription: %w", err)
	}

	result.Text = strings.TrimSpace(resp.Text)
	result.Language = resp.Language
	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return result, nil
}
