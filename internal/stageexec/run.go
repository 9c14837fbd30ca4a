// Package stageexec transcribes a single queued job inline, outside the
// daemon, applying the same queue lifecycle the background workflow does.
package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"scribe/internal/logging"
	"scribe/internal/notifications"
	"scribe/internal/queue"
	"scribe/internal/services"
	"scribe/internal/stage"
)

const stageName = "transcriber"

// Options wires an inline transcription to the queue store.
type Options struct {
	Logger   *slog.Logger
	Store    *queue.Store
	Notifier notifications.Service
	Handler  stage.Handler
	Job      *queue.Job
}

// Run moves the job to transcribing, runs the handler, and records the
// completed or failed outcome. Every transition is persisted so inline
// jobs look the same in `scribe queue list` as daemon-processed ones.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return errors.New("transcription stage is not configured")
	}
	if opts.Store == nil || opts.Job == nil {
		return errors.New("queue store and job are required")
	}

	job := opts.Job
	runCtx := logging.WithStage(services.WithJobID(ctx, job.ID), stageName)
	logger := logging.WithContext(runCtx, opts.Logger).With(logging.String("request_id", uuid.NewString()))
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(logger)
	}

	markTranscribing(job)
	if err := opts.Store.Update(runCtx, job); err != nil {
		return fmt.Errorf("persist transcribing transition: %w", err)
	}

	started := time.Now()
	logger.Info(
		"inline transcription started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("title", strings.TrimSpace(job.Title)),
		logging.String("source_file", strings.TrimSpace(job.SourcePath)),
	)

	if err := opts.Handler.Prepare(runCtx, job); err != nil {
		return failJob(runCtx, logger, opts, err)
	}
	if err := opts.Store.Update(runCtx, job); err != nil {
		return fmt.Errorf("persist preparation progress: %w", err)
	}

	if err := opts.Handler.Execute(runCtx, job); err != nil {
		return failJob(runCtx, logger, opts, err)
	}

	job.Status = queue.StatusCompleted
	job.LastHeartbeat = nil
	if job.ProgressPercent < 100 {
		job.ProgressPercent = 100
	}
	if err := opts.Store.Update(runCtx, job); err != nil {
		return fmt.Errorf("persist completed job: %w", err)
	}

	logger.Info(
		"inline transcription completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("transcript", strings.TrimSpace(job.TranscriptPath)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func markTranscribing(job *queue.Job) {
	now := time.Now().UTC()
	job.Status = queue.StatusTranscribing
	if job.ProgressStage == "" {
		job.ProgressStage = "Transcribing"
	}
	if job.ProgressMessage == "" {
		job.ProgressMessage = "Transcription started"
	}
	job.ProgressPercent = 0
	job.ErrorMessage = ""
	job.LastHeartbeat = &now
}

func failJob(ctx context.Context, logger *slog.Logger, opts Options, stageErr error) error {
	message := strings.TrimSpace(services.Details(stageErr).Message)
	if message == "" {
		message = strings.TrimSpace(stageErr.Error())
	}
	opts.Job.SetFailed(message)

	logger.Error(
		"inline transcription failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)
	if err := opts.Store.Update(ctx, opts.Job); err != nil {
		logger.Error("failed to persist job failure", logging.Error(err))
	}

	if opts.Notifier != nil {
		label := fmt.Sprintf("%s (job #%d)", stageName, opts.Job.ID)
		if err := opts.Notifier.NotifyError(ctx, stageErr, label); err != nil {
			logger.Debug("failure notification skipped", logging.Error(err))
		}
	}
	return stageErr
}
