package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/audio"
	"scribe/internal/config"
	"scribe/internal/fileutil"
	"scribe/internal/logging"
	"scribe/internal/notifications"
	"scribe/internal/queue"
	"scribe/internal/services"
	"scribe/internal/stage"
)

// Transcriber turns queued recordings into transcript files.
type Transcriber struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	notifier notifications.Service
	engine   engine
}

// New builds the transcription stage for the configured engine.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) (*Transcriber, error) {
	t := &Transcriber{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "transcriber"),
		notifier: notifier,
	}
	switch cfg.Whisper.Engine {
	case config.EngineOpenAI:
		eng, err := newHostedEngine(cfg)
		if err != nil {
			return nil, err
		}
		t.engine = eng
	default:
		t.engine = newLocalEngine(cfg)
	}
	return t, nil
}

// SetLogger installs a stage-scoped logger.
func (t *Transcriber) SetLogger(logger *slog.Logger) {
	if logger != nil {
		t.logger = logger
	}
}

// Prepare validates the recording and records its duration on the job.
func (t *Transcriber) Prepare(ctx context.Context, job *queue.Job) error {
	source := strings.TrimSpace(job.SourcePath)
	if source == "" {
		return services.Wrap(services.ErrValidation, "transcriber", "prepare",
			"Job has no recording path", nil)
	}
	info, err := os.Stat(source)
	if err != nil {
		return services.Wrap(services.ErrValidation, "transcriber", "prepare",
			fmt.Sprintf("Recording %s is not readable", source), err)
	}
	if info.IsDir() || info.Size() == 0 {
		return services.Wrap(services.ErrValidation, "transcriber", "prepare",
			fmt.Sprintf("Recording %s is empty", source), nil)
	}

	if strings.EqualFold(filepath.Ext(source), ".wav") {
		if probed, err := audio.Probe(source); err == nil {
			job.DurationSeconds = probed.Duration.Seconds()
		} else {
			t.logger.Warn("could not probe recording", logging.Error(err))
		}
	}

	job.SetProgress("Preparing", fmt.Sprintf("Transcribing with %s", t.engine.Name()), 0)
	return nil
}

// Execute runs the engine and writes the transcript files.
func (t *Transcriber) Execute(ctx context.Context, job *queue.Job) error {
	if err := t.cfg.EnsureDirectories(); err != nil {
		return services.Wrap(services.ErrConfiguration, "transcriber", "execute",
			"Could not create transcript directories", err)
	}

	runCtx := ctx
	if timeout := time.Duration(t.cfg.Whisper.TimeoutSeconds) * time.Second; timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	job.SetProgress("Transcribing", fmt.Sprintf("Running %s", t.engine.Name()), 10)
	if err := t.store.Update(ctx, job); err != nil {
		t.logger.Warn("failed to persist transcription progress", logging.Error(err))
	}

	started := time.Now()
	result, err := t.engine.Transcribe(runCtx, job.SourcePath, t.cfg.Paths.TranscriptsDir)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return services.Wrap(services.ErrTimeout, "transcriber", "execute",
				fmt.Sprintf("Transcription exceeded %ds timeout", t.cfg.Whisper.TimeoutSeconds), err)
		}
		return services.Wrap(services.ErrExternalTool, "transcriber", "execute",
			"Transcription failed", err)
	}

	if result.Text == "" {
		t.logger.Warn("transcription produced no text",
			logging.String("source_file", job.SourcePath))
	}

	transcriptPath, err := t.writeTranscript(job, result)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "transcriber", "execute",
			"Could not write transcript", err)
	}

	job.TranscriptPath = transcriptPath
	job.TranscriptText = result.Text
	if result.Language != "" {
		job.Language = result.Language
	}
	if job.Model == "" {
		job.Model = t.cfg.Whisper.Model
	}
	job.SetProgressComplete("Transcribed", fmt.Sprintf("Transcript saved to %s", transcriptPath))

	t.archiveRecording(job)

	t.logger.Info("transcription complete",
		logging.String(logging.FieldEventType, "transcription_complete"),
		logging.String("transcript", transcriptPath),
		logging.String("language", job.Language),
		logging.Duration("elapsed", time.Since(started)),
	)

	if t.notifier != nil {
		if err := t.notifier.NotifyTranscriptionCompleted(ctx, job.Title, transcriptPath); err != nil {
			t.logger.Debug("transcription notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies the engine prerequisites without running it.
func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcriber"
	switch t.cfg.Whisper.Engine {
	case config.EngineOpenAI:
		if strings.TrimSpace(t.cfg.OpenAI.APIKey) == "" {
			return stage.Unhealthy(name, "openai.api_key is not configured")
		}
	default:
		statuses := depsForHealth(t.cfg)
		for _, status := range statuses {
			if !status.Optional && !status.Available {
				return stage.Unhealthy(name, status.Detail)
			}
		}
		if cache, ok := t.engine.(modelCache); ok && !cache.ModelReady() {
			return stage.Health{
				Name:   name,
				Ready:  true,
				Detail: fmt.Sprintf("model %q not cached yet; first run will download it", t.cfg.Whisper.Model),
			}
		}
	}
	return stage.Healthy(name)
}

func (t *Transcriber) writeTranscript(job *queue.Job, result engineResult) (string, error) {
	base := fileutil.SanitizeFileName(strings.TrimSuffix(filepath.Base(job.SourcePath), filepath.Ext(job.SourcePath)))
	if base == "" {
		base = fmt.Sprintf("job-%d", job.ID)
	}

	txtPath := fileutil.UniquePath(filepath.Join(t.cfg.Paths.TranscriptsDir, base+".txt"))
	if err := os.WriteFile(txtPath, []byte(result.Text+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write transcript text: %w", err)
	}

	// The local engine already leaves its JSON next to the transcript; only
	// synthesize one when the engine returned segments without a file.
	if result.JSONPath == "" && len(result.Segments) > 0 {
		payload := struct {
			Text     string    `json:"text"`
			Language string    `json:"language,omitempty"`
			Segments []Segment `json:"segments"`
		}{Text: result.Text, Language: result.Language, Segments: result.Segments}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal transcript json: %w", err)
		}
		jsonPath := strings.TrimSuffix(txtPath, ".txt") + ".json"
		if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
			return "", fmt.Errorf("write transcript json: %w", err)
		}
	}
	return txtPath, nil
}

// archiveRecording copies the recording into the archive directory after a
// successful transcription. Failures are logged, not fatal: the transcript
// already exists.
func (t *Transcriber) archiveRecording(job *queue.Job) {
	if !t.cfg.Audio.ArchiveRecordings {
		return
	}
	source := job.SourcePath
	archiveDir := t.cfg.Paths.RecordingsDir
	if rel, err := filepath.Rel(archiveDir, source); err == nil && !strings.HasPrefix(rel, "..") {
		return
	}

	base := fileutil.SanitizeFileName(filepath.Base(source))
	target := fileutil.UniquePath(filepath.Join(archiveDir, time.Now().UTC().Format("20060102-150405")+"-"+base))
	if err := fileutil.CopyFile(source, target); err != nil {
		t.logger.Warn("could not archive recording", logging.Error(err))
		return
	}
	job.SourcePath = target
	t.logger.Info("recording archived", logging.String("archive", target))
}
