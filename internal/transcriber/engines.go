package transcriber

import (
	"context"

	"scribe/internal/config"
	"scribe/internal/services/openai"
	"scribe/internal/services/whisper"
)

// Segment is a timed span of transcript text, engine-neutral.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type engineResult struct {
	Text     string
	Language string
	Segments []Segment
	// JSONPath is set when the engine already wrote raw JSON output.
	JSONPath string
}

// engine abstracts the local whisper CLI and the hosted API behind one call.
type engine interface {
	Name() string
	Transcribe(ctx context.Context, source, outputDir string) (engineResult, error)
}

// modelCache is implemented by engines that keep a local model checkpoint.
type modelCache interface {
	ModelReady() bool
}

type localEngine struct {
	svc *whisper.Service
}

func newLocalEngine(cfg *config.Config) *localEngine {
	svc := whisper.NewService(whisper.Config{
		Model:     cfg.Whisper.Model,
		Language:  cfg.Whisper.Language,
		Translate: cfg.Whisper.Translate,
		Threads:   cfg.Whisper.Threads,
		CacheDir:  cfg.Whisper.CacheDir,
	}, cfg.WhisperBinary(), cfg.FFmpegBinary())
	return &localEngine{svc: svc}
}

func (e *localEngine) Name() string { return "whisper (" + e.svc.Model() + ")" }

func (e *localEngine) ModelReady() bool { return e.svc.ModelReady() }

func (e *localEngine) Transcribe(ctx context.Context, source, outputDir string) (engineResult, error) {
	res, err := e.svc.TranscribeFile(ctx, source, outputDir)
	if err != nil {
		return engineResult{}, err
	}
	segments := make([]Segment, 0, len(res.Segments))
	for _, seg := range res.Segments {
		segments = append(segments, Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return engineResult{
		Text:     res.Text,
		Language: res.Language,
		Segments: segments,
		JSONPath: res.JSONPath,
	}, nil
}

type hostedEngine struct {
	svc *openai.Service
}

func newHostedEngine(cfg *config.Config) (*hostedEngine, error) {
	svc, err := openai.NewService(cfg.OpenAI, cfg.Whisper.Language)
	if err != nil {
		return nil, err
	}
	return &hostedEngine{svc: svc}, nil
}

func (e *hostedEngine) Name() string { return "openai (" + e.svc.Model() + ")" }

func (e *hostedEngine) Transcribe(ctx context.Context, source, _ string) (engineResult, error) {
	res, err := e.svc.TranscribeFile(ctx, source)
	if err != nil {
		return engineResult{}, err
	}
	segments := make([]Segment, 0, len(res.Segments))
	for _, seg := range res.Segments {
		segments = append(segments, Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return engineResult{
		Text:     res.Text,
		Language: res.Language,
		Segments: segments,
	}, nil
}
